package orders

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store encapsulates operations on the orders collection.
type Store struct {
	client     *mongo.Client
	database   string
	collection string
}

// NewStore returns a Store bound to a database and collection.
func NewStore(client *mongo.Client, database, collection string) *Store {
	return &Store{
		client:     client,
		database:   database,
		collection: collection,
	}
}

// Save inserts the order and returns it with the store-assigned id.
func (s *Store) Save(ctx context.Context, order Order) (*Order, error) {
	coll := s.client.Database(s.database).Collection(s.collection)
	res, err := coll.InsertOne(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("insert order %s: %w", order.OrderID, err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = oid
	}
	return &order, nil
}

// GetByOrderID fetches an order by its business id. Returns (nil, nil) when
// not found.
func (s *Store) GetByOrderID(ctx context.Context, orderID string) (*Order, error) {
	coll := s.client.Database(s.database).Collection(s.collection)
	var order Order
	err := coll.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order %s: %w", orderID, err)
	}
	return &order, nil
}

// EnsureIndexes creates the orderId and customerId indexes the read paths
// depend on. Called once at startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	coll := s.client.Database(s.database).Collection(s.collection)
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderId", Value: 1}}},
		{Keys: bson.D{{Key: "customerId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create order indexes: %w", err)
	}
	return nil
}
