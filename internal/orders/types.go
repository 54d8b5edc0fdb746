package orders

import "go.mongodb.org/mongo-driver/bson/primitive"

// ProductRef is a product line as it arrives on the queue. The same shape is
// embedded in the persisted order.
type ProductRef struct {
	ProductID string  `json:"productId" bson:"productId"`
	Name      string  `json:"name" bson:"name"`
	Price     float64 `json:"price" bson:"price"`
}

// Message is the inbound order payload, one per queue delivery.
type Message struct {
	OrderID    string       `json:"orderId"`
	CustomerID string       `json:"customerId"`
	Products   []ProductRef `json:"products"`
}

// Order is the enriched document persisted to the orders collection. It is
// written once after enrichment and validation succeed and never mutated by
// this service afterwards.
type Order struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OrderID    string             `json:"orderId" bson:"orderId"`
	CustomerID string             `json:"customerId" bson:"customerId"`
	Products   []ProductRef       `json:"products" bson:"products"`
}
