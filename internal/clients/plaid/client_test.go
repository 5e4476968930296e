package plaid

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	client := NewClient("sandbox", "client-id", "secret", zerolog.Nop())
	assert.Equal(t, "https://sandbox.plaid.com", client.baseURL)
	assert.True(t, client.IsConfigured())

	// Unknown environments fall back to sandbox.
	client = NewClient("bogus", "client-id", "secret", zerolog.Nop())
	assert.Equal(t, "https://sandbox.plaid.com", client.baseURL)

	client = NewClient("production", "", "", zerolog.Nop())
	assert.Equal(t, "https://production.plaid.com", client.baseURL)
	assert.False(t, client.IsConfigured())
}

func TestCreateLinkToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/link/token/create", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// Credentials are injected into every request body.
		assert.Equal(t, "client-id", req["client_id"])
		assert.Equal(t, "secret", req["secret"])

		user, ok := req["user"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "42", user["client_user_id"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"link_token": "link-sandbox-abc123",
			"expiration": "2026-01-01T00:30:00Z",
		})
	}))
	defer server.Close()

	client := NewClient("sandbox", "client-id", "secret", zerolog.Nop())
	client.baseURL = server.URL

	token, err := client.CreateLinkToken(42)
	require.NoError(t, err)

	assert.Equal(t, "link-sandbox-abc123", token.LinkToken)
	assert.Equal(t, "2026-01-01T00:30:00Z", token.Expiration)
}

func TestExchangePublicToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/item/public_token/exchange", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "public-sandbox-token", req["public_token"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "access-sandbox-token",
			"item_id":      "item-123",
		})
	}))
	defer server.Close()

	client := NewClient("sandbox", "client-id", "secret", zerolog.Nop())
	client.baseURL = server.URL

	accessToken, itemID, err := client.ExchangePublicToken("public-sandbox-token")
	require.NoError(t, err)

	assert.Equal(t, "access-sandbox-token", accessToken)
	assert.Equal(t, "item-123", itemID)
}

func TestGetTransactions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/get", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "access-sandbox-token", req["access_token"])
		assert.Equal(t, "2026-01-01", req["start_date"])
		assert.Equal(t, "2026-01-31", req["end_date"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"transactions": [
				{
					"transaction_id": "plaid-tx-1",
					"date": "2026-01-10",
					"name": "Office rent",
					"amount": 1200.50,
					"personal_finance_category": {"detailed": "RENT_AND_UTILITIES.RENT"}
				},
				{
					"transaction_id": "plaid-tx-2",
					"date": "2026-01-11",
					"name": "Invoice payment",
					"amount": -800
				}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient("sandbox", "client-id", "secret", zerolog.Nop())
	client.baseURL = server.URL

	txns, err := client.GetTransactions("access-sandbox-token", "2026-01-01", "2026-01-31")
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, "plaid-tx-1", txns[0].TransactionID)
	assert.Equal(t, "Office rent", txns[0].Name)
	assert.True(t, txns[0].Amount.Equal(decimal.RequireFromString("1200.50")))
	require.NotNil(t, txns[0].PersonalFinanceCategory)
	assert.Equal(t, "RENT_AND_UTILITIES.RENT", txns[0].PersonalFinanceCategory.Detailed)

	assert.True(t, txns[1].Amount.Equal(decimal.RequireFromString("-800")))
	assert.Nil(t, txns[1].PersonalFinanceCategory)
}

func TestGetTransactions_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transactions": []}`))
	}))
	defer server.Close()

	client := NewClient("sandbox", "client-id", "secret", zerolog.Nop())
	client.baseURL = server.URL

	txns, err := client.GetTransactions("access-sandbox-token", "2026-01-01", "2026-01-31")
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error_type":    "INVALID_INPUT",
			"error_code":    "INVALID_ACCESS_TOKEN",
			"error_message": "the provided access token is invalid",
		})
	}))
	defer server.Close()

	client := NewClient("sandbox", "client-id", "secret", zerolog.Nop())
	client.baseURL = server.URL

	_, err := client.GetTransactions("bad-token", "2026-01-01", "2026-01-31")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_ACCESS_TOKEN")
	assert.Contains(t, err.Error(), "the provided access token is invalid")
}

func TestClient_HTTPErrorWithoutEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("Bad Gateway"))
	}))
	defer server.Close()

	client := NewClient("sandbox", "client-id", "secret", zerolog.Nop())
	client.baseURL = server.URL

	_, err := client.CreateLinkToken(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestClient_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient("sandbox", "client-id", "secret", zerolog.Nop())
	client.baseURL = server.URL

	_, _, err := client.ExchangePublicToken("public-token")
	assert.Error(t, err)
}
