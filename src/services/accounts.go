package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/username/finsync/src/client"
	"github.com/username/finsync/src/logger"
	"github.com/username/finsync/src/models"
)

// CurrencyBalance is the aggregated balance of all accounts sharing one
// currency, annotated with the currency's display name.
type CurrencyBalance struct {
	Total decimal.Decimal
	Name  string
}

// AccountsCache mirrors the account set and maintains per-currency balance
// totals. Accounts are written with replace-whole-collection semantics.
type AccountsCache struct {
	mu         sync.Mutex
	transport  Transport
	session    SessionState
	orch       *client.Orchestrator
	currencies *CurrencyCache
	accounts   []models.Account
	totals     map[string]CurrencyBalance
}

func NewAccountsCache(transport Transport, session SessionState, orch *client.Orchestrator, currencies *CurrencyCache) *AccountsCache {
	c := &AccountsCache{
		transport:  transport,
		session:    session,
		orch:       orch,
		currencies: currencies,
		totals:     map[string]CurrencyBalance{},
	}
	orch.RegisterAccounts(func() { c.Refresh(context.Background()) })
	return c
}

// Refresh replaces the snapshot and recomputes the per-currency totals.
func (c *AccountsCache) Refresh(ctx context.Context) {
	if !c.session.Authorized() {
		c.setAccounts(nil)
		return
	}
	resp, err := c.transport.Get(ctx, "service/accounts", nil)
	if err != nil {
		return
	}
	var accounts []models.Account
	if err := json.Unmarshal(resp.Body, &accounts); err != nil {
		logger.L.Error("Failed to decode account list", "error", err)
		return
	}
	c.setAccounts(accounts)
}

// Submit replaces the whole account set on the server. The server response
// is the canonical collection (it assigns ids and versions); transactions
// are refreshed afterwards since their totals depend on account state.
// On failure the cache falls back to a refresh.
func (c *AccountsCache) Submit(ctx context.Context, accounts []models.Account) error {
	resp, err := c.transport.PostJSON(ctx, "service/accounts", accounts, nil)
	if err != nil {
		c.Refresh(ctx)
		return err
	}
	var saved []models.Account
	if err := json.Unmarshal(resp.Body, &saved); err != nil {
		c.Refresh(ctx)
		return fmt.Errorf("failed to decode account list: %w", err)
	}
	c.setAccounts(saved)
	c.orch.UpdateTransactions()
	return nil
}

// Account returns the cached account with the given id.
func (c *AccountsCache) Account(id int64) (models.Account, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, account := range c.accounts {
		if account.ID == id {
			return account, true
		}
	}
	return models.Account{}, false
}

// Accounts returns a copy of the cached account set.
func (c *AccountsCache) Accounts() []models.Account {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Account, len(c.accounts))
	copy(out, c.accounts)
	return out
}

// TotalsForCurrency returns a copy of the per-currency balance totals.
func (c *AccountsCache) TotalsForCurrency() map[string]CurrencyBalance {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]CurrencyBalance, len(c.totals))
	for currency, balance := range c.totals {
		out[currency] = balance
	}
	return out
}

// setAccounts swaps the snapshot wholesale and recomputes totals from
// scratch. Totals are never updated incrementally, so a missed event can
// not make them drift.
func (c *AccountsCache) setAccounts(accounts []models.Account) {
	totals := map[string]CurrencyBalance{}
	for _, account := range accounts {
		balance, ok := totals[account.Currency]
		if !ok {
			balance = CurrencyBalance{Name: c.currencies.FindCurrency(account.Currency)}
		}
		balance.Total = balance.Total.Add(account.Balance)
		totals[account.Currency] = balance
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts = accounts
	c.totals = totals
}
