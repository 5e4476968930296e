// Package advisor is a client for the external financial advisor service.
package advisor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Client talks to the advisor service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates an advisor client. An empty URL leaves it unconfigured.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		log: log.With().Str("client", "advisor").Logger(),
	}
}

// IsConfigured reports whether a service URL is set.
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

type queryRequest struct {
	UserID       int64       `json:"user_id"`
	Query        string      `json:"query"`
	Transactions interface{} `json:"transactions,omitempty"`
}

type queryResponse struct {
	Answer string `json:"answer"`
}

// Query sends a scenario question, with the user's recent transactions as
// context, and returns the advisor's answer.
func (c *Client) Query(userID int64, query string, transactions interface{}) (string, error) {
	body, err := json.Marshal(queryRequest{
		UserID:       userID,
		Query:        query,
		Transactions: transactions,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal advisor request: %w", err)
	}

	resp, err := c.client.Post(c.baseURL+"/query", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to call advisor service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("advisor service returned status %d", resp.StatusCode)
	}

	var result queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to parse advisor response: %w", err)
	}
	return result.Answer, nil
}
