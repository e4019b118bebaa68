package product

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gofrs/uuid"
)

// Client is the HTTP client the order boundary uses to reach the catalog
// service after a successful placement commit.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

type decrementRequest struct {
	Quantity int `json:"quantity"`
}

func (c *Client) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	body, err := json.Marshal(decrementRequest{Quantity: quantity})
	if err != nil {
		return fmt.Errorf("product client: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/products/%s/decrement", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("product client: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("product client: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrInsufficientStock
	default:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("product client: unexpected status %d: %s", resp.StatusCode, payload)
	}
}
