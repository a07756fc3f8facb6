package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/finsync/src/client"
	"github.com/username/finsync/src/models"
)

func accountsHandler(accounts []models.Account, currencies []models.Currency) func(string, string, []byte) (*client.Response, error) {
	return func(method, path string, body []byte) (*client.Response, error) {
		switch path {
		case "service/accounts":
			return okJSON(accounts)
		case "service/currencies":
			return okJSON(currencies)
		default:
			return unhandled(method, path)
		}
	}
}

func TestTotalsForCurrencyRecomputedOnRefresh(t *testing.T) {
	accountsJSON := []models.Account{
		{ID: 1, Name: "Checking", Currency: "USD", Balance: decimal.NewFromInt(100)},
		{ID: 2, Name: "Savings", Currency: "USD", Balance: decimal.NewFromInt(50)},
		{ID: 3, Name: "Travel", Currency: "EUR", Balance: decimal.NewFromInt(30)},
	}
	currenciesJSON := []models.Currency{{Symbol: "USD", DisplayName: "US Dollar"}}

	transport := &fakeTransport{handler: accountsHandler(accountsJSON, currenciesJSON)}
	session := &fakeSession{authorized: true}
	orch := client.NewOrchestrator()
	currencies := NewCurrencyCache(transport, session, orch)
	accounts := NewAccountsCache(transport, session, orch, currencies)

	currencies.Refresh(context.Background())
	accounts.Refresh(context.Background())

	totals := accounts.TotalsForCurrency()
	require.Len(t, totals, 2)
	assert.True(t, totals["USD"].Total.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, "US Dollar", totals["USD"].Name)
	assert.True(t, totals["EUR"].Total.Equal(decimal.NewFromInt(30)))
	// EUR is absent from the server list, the ISO registry fills in.
	assert.Equal(t, "EUR", totals["EUR"].Name)
}

func TestSubmitReplacesSnapshotAndRefreshesTransactions(t *testing.T) {
	saved := []models.Account{
		{ID: 7, Name: "Checking", Currency: "USD", Balance: decimal.NewFromInt(10), Version: 2},
	}
	transport := &fakeTransport{handler: func(method, path string, body []byte) (*client.Response, error) {
		if path == "service/accounts" {
			return okJSON(saved)
		}
		return accountsHandler(nil, nil)(method, path, body)
	}}
	session := &fakeSession{authorized: true}
	orch := client.NewOrchestrator()
	currencies := NewCurrencyCache(transport, session, orch)
	accounts := NewAccountsCache(transport, session, orch, currencies)
	transactionRefreshes := 0
	orch.RegisterTransactions(func() { transactionRefreshes++ })

	err := accounts.Submit(context.Background(), []models.Account{{Name: "Checking", Currency: "USD"}})
	require.NoError(t, err)

	got := accounts.Accounts()
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].ID, "server-assigned id is canonical")
	assert.Equal(t, 1, transactionRefreshes, "balance changes invalidate transaction state")
}

func TestLogoutEmptiesAccountsAndTotals(t *testing.T) {
	accountsJSON := []models.Account{
		{ID: 1, Currency: "USD", Balance: decimal.NewFromInt(100)},
	}
	transport := &fakeTransport{handler: accountsHandler(accountsJSON, nil)}
	session := &fakeSession{authorized: true}
	orch := client.NewOrchestrator()
	currencies := NewCurrencyCache(transport, session, orch)
	accounts := NewAccountsCache(transport, session, orch, currencies)

	accounts.Refresh(context.Background())
	require.NotEmpty(t, accounts.Accounts())
	require.NotEmpty(t, accounts.TotalsForCurrency())

	session.setAuthorized(false)
	accounts.Refresh(context.Background())

	assert.Empty(t, accounts.Accounts())
	assert.Empty(t, accounts.TotalsForCurrency())
}
