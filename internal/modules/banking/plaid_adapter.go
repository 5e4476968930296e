package banking

import (
	"fmt"

	"github.com/fiscalguide/fiscalguide/internal/clients/plaid"
	"github.com/fiscalguide/fiscalguide/internal/modules/transactions"
)

// PlaidAdapter adapts the Plaid client to the AggregatorClient interface the
// banking module consumes.
type PlaidAdapter struct {
	client *plaid.Client
}

// NewPlaidAdapter wraps a Plaid client.
func NewPlaidAdapter(client *plaid.Client) *PlaidAdapter {
	return &PlaidAdapter{client: client}
}

func (a *PlaidAdapter) IsConfigured() bool {
	return a.client.IsConfigured()
}

func (a *PlaidAdapter) CreateLinkToken(userID int64) (string, string, error) {
	token, err := a.client.CreateLinkToken(userID)
	if err != nil {
		return "", "", err
	}
	return token.LinkToken, token.Expiration, nil
}

func (a *PlaidAdapter) ExchangePublicToken(publicToken string) (string, string, error) {
	return a.client.ExchangePublicToken(publicToken)
}

// FetchTransactions converts Plaid transactions to the raw shape the ingestion
// engine accepts. The transaction id becomes the dedup key.
func (a *PlaidAdapter) FetchTransactions(accessToken, startDate, endDate string) ([]transactions.RawTransaction, error) {
	plaidTxns, err := a.client.GetTransactions(accessToken, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transactions.ErrUpstream, err)
	}

	raw := make([]transactions.RawTransaction, 0, len(plaidTxns))
	for _, pt := range plaidTxns {
		pt := pt
		description := pt.Name
		if description == "" {
			description = "Unknown transaction"
		}

		item := transactions.RawTransaction{
			ExternalID:  &pt.TransactionID,
			Date:        &pt.Date,
			Description: &description,
			Amount:      &pt.Amount,
		}
		if pt.PersonalFinanceCategory != nil && pt.PersonalFinanceCategory.Detailed != "" {
			item.UpstreamCategory = &pt.PersonalFinanceCategory.Detailed
		}
		raw = append(raw, item)
	}
	return raw, nil
}
