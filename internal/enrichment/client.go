package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client calls the external customer and product providers over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for the provider at baseURL. Outbound requests
// carry the OTel trace context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Customer fetches customer details by id.
func (c *Client) Customer(ctx context.Context, customerID string) (*CustomerDetails, error) {
	var details CustomerDetails
	if err := c.get(ctx, "/customer", url.Values{"customerId": {customerID}}, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// Product fetches product details by id.
func (c *Client) Product(ctx context.Context, productID string) (*ProductDetails, error) {
	var details ProductDetails
	if err := c.get(ctx, "/product", url.Values{"productId": {productID}}, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("call %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
