// Package plaid is a minimal client for the Plaid bank-data aggregator API.
package plaid

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Environment base URLs.
var environments = map[string]string{
	"sandbox":    "https://sandbox.plaid.com",
	"production": "https://production.plaid.com",
}

// Client talks to the Plaid API. Failures are surfaced to callers as errors,
// never as empty results.
type Client struct {
	baseURL  string
	clientID string
	secret   string
	client   *http.Client
	log      zerolog.Logger
}

// NewClient creates a Plaid client for the given environment. Unknown
// environments fall back to sandbox.
func NewClient(env, clientID, secret string, log zerolog.Logger) *Client {
	baseURL, ok := environments[env]
	if !ok {
		baseURL = environments["sandbox"]
	}

	return &Client{
		baseURL:  baseURL,
		clientID: clientID,
		secret:   secret,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "plaid").Logger(),
	}
}

// IsConfigured reports whether API credentials are present.
func (c *Client) IsConfigured() bool {
	return c.clientID != "" && c.secret != ""
}

// apiError is Plaid's error envelope.
type apiError struct {
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// post sends a request with credentials injected and decodes the response.
func (c *Client) post(endpoint string, request map[string]interface{}, response interface{}) error {
	request["client_id"] = c.clientID
	request["secret"] = c.secret

	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.client.Post(c.baseURL+endpoint, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to call plaid %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read plaid response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.ErrorCode != "" {
			return fmt.Errorf("plaid %s failed: %s (%s)", endpoint, apiErr.ErrorCode, apiErr.ErrorMessage)
		}
		return fmt.Errorf("plaid %s failed with status %d", endpoint, resp.StatusCode)
	}

	if err := json.Unmarshal(payload, response); err != nil {
		return fmt.Errorf("failed to parse plaid response: %w", err)
	}
	return nil
}

// LinkToken is the result of a link token creation.
type LinkToken struct {
	LinkToken  string `json:"link_token"`
	Expiration string `json:"expiration"`
}

// CreateLinkToken creates a Link token bridging a user to their bank.
func (c *Client) CreateLinkToken(userID int64) (*LinkToken, error) {
	req := map[string]interface{}{
		"user": map[string]string{
			"client_user_id": strconv.FormatInt(userID, 10),
		},
		"client_name":   "FiscalGuide",
		"products":      []string{"transactions"},
		"country_codes": []string{"GB"},
		"language":      "en",
	}

	var token LinkToken
	if err := c.post("/link/token/create", req, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// ExchangePublicToken trades a public token for a persistent access token.
func (c *Client) ExchangePublicToken(publicToken string) (accessToken, itemID string, err error) {
	req := map[string]interface{}{
		"public_token": publicToken,
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ItemID      string `json:"item_id"`
	}
	if err := c.post("/item/public_token/exchange", req, &result); err != nil {
		return "", "", err
	}
	return result.AccessToken, result.ItemID, nil
}

// Transaction is one bank transaction as Plaid reports it.
type Transaction struct {
	TransactionID           string          `json:"transaction_id"`
	Date                    string          `json:"date"`
	Name                    string          `json:"name"`
	Amount                  decimal.Decimal `json:"amount"`
	PersonalFinanceCategory *struct {
		Detailed string `json:"detailed"`
	} `json:"personal_finance_category"`
}

// GetTransactions fetches transactions for an access token in a date range.
func (c *Client) GetTransactions(accessToken, startDate, endDate string) ([]Transaction, error) {
	req := map[string]interface{}{
		"access_token": accessToken,
		"start_date":   startDate,
		"end_date":     endDate,
	}

	var result struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := c.post("/transactions/get", req, &result); err != nil {
		return nil, err
	}
	return result.Transactions, nil
}
