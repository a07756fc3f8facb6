package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/username/finsync/src/client"
	"github.com/username/finsync/src/logger"
	"github.com/username/finsync/src/models"
)

// TransactionsCache mirrors one page of the transaction list plus the total
// page count. Pages are 1-based here and 0-based on the wire.
type TransactionsCache struct {
	mu           sync.Mutex
	transport    Transport
	session      SessionState
	orch         *client.Orchestrator
	accounts     *AccountsCache
	transactions []models.Transaction
	currentPage  int
	totalPages   int
}

func NewTransactionsCache(transport Transport, session SessionState, orch *client.Orchestrator, accounts *AccountsCache) *TransactionsCache {
	c := &TransactionsCache{
		transport:   transport,
		session:     session,
		orch:        orch,
		accounts:    accounts,
		currentPage: 1,
	}
	orch.RegisterTransactions(func() { c.Refresh(context.Background()) })
	return c
}

// Refresh fetches the current page and the page count. The two fetches are
// independent; either may fail without affecting the other. While
// unauthenticated the snapshot resets to empty without a network call.
func (c *TransactionsCache) Refresh(ctx context.Context) {
	if !c.session.Authorized() {
		c.mu.Lock()
		c.transactions = nil
		c.currentPage = 1
		c.totalPages = 0
		c.mu.Unlock()
		return
	}
	c.refreshPage(ctx)
	c.refreshCount(ctx)
}

func (c *TransactionsCache) refreshPage(ctx context.Context) {
	nextPage := c.CurrentPage()
	resp, err := c.transport.Get(ctx, fmt.Sprintf("service/transactions/page_%d", nextPage-1), nil)
	if err != nil {
		return
	}
	var transactions []models.Transaction
	if err := json.Unmarshal(resp.Body, &transactions); err != nil {
		logger.L.Error("Failed to decode transaction page", "error", err)
		return
	}
	c.mu.Lock()
	c.transactions = transactions
	c.currentPage = nextPage
	c.mu.Unlock()
	// Balances depend on transaction contents.
	c.orch.UpdateAccounts()
}

func (c *TransactionsCache) refreshCount(ctx context.Context) {
	resp, err := c.transport.Get(ctx, "service/transactions/pages", nil)
	if err != nil {
		return
	}
	totalPages, err := strconv.Atoi(strings.TrimSpace(string(resp.Body)))
	if err != nil {
		logger.L.Error("Failed to decode transaction page count", "error", err)
		return
	}
	c.mu.Lock()
	c.totalPages = totalPages
	if max := maxPage(totalPages); c.currentPage > max {
		c.currentPage = max
	}
	c.mu.Unlock()
}

// SetPage moves to the given 1-based page, clamped to the known page range,
// and refreshes.
func (c *TransactionsCache) SetPage(ctx context.Context, page int) {
	c.mu.Lock()
	if page < 1 {
		page = 1
	}
	if max := maxPage(c.totalPages); page > max {
		page = max
	}
	c.currentPage = page
	c.mu.Unlock()
	c.Refresh(ctx)
}

// UpdateOne fetches a single transaction. A locally cached entry is
// replaced in place, and accounts are refreshed since balances depend on
// transaction contents; a transaction not cached locally (it may have
// moved pages) forces a full page refresh instead.
func (c *TransactionsCache) UpdateOne(ctx context.Context, id int64) {
	resp, err := c.transport.Get(ctx, fmt.Sprintf("service/transactions/%d", id), nil)
	if err != nil {
		return
	}
	var transaction models.Transaction
	if err := json.Unmarshal(resp.Body, &transaction); err != nil {
		logger.L.Error("Failed to decode transaction", "error", err)
		return
	}
	if c.replaceLocal(transaction) {
		c.orch.UpdateAccounts()
	} else {
		c.refreshPage(ctx)
	}
}

// Submit validates the ledger invariant and writes the transaction. An
// unbalanced transfer is rejected before any request is sent. On success
// the server's canonical representation replaces the local entry; on
// failure the cache resynchronizes with a refresh.
func (c *TransactionsCache) Submit(ctx context.Context, transaction models.Transaction) error {
	if !IsBalanced(transaction, c.accounts.Account) {
		return ErrNotBalanced
	}
	resp, err := c.transport.PostJSON(ctx, "service/transactions/submit", transaction, nil)
	if err != nil {
		c.Refresh(ctx)
		return err
	}
	var saved models.Transaction
	if err := json.Unmarshal(resp.Body, &saved); err != nil {
		c.Refresh(ctx)
		return fmt.Errorf("failed to decode transaction: %w", err)
	}
	if c.replaceLocal(saved) {
		c.orch.UpdateAccounts()
	} else {
		c.refreshPage(ctx)
	}
	return nil
}

// Delete removes a transaction on the server and refreshes the page. A
// transaction without an id only exists locally, so only the page refresh
// happens.
func (c *TransactionsCache) Delete(ctx context.Context, transaction models.Transaction) error {
	if transaction.ID == nil {
		c.refreshPage(ctx)
		return nil
	}
	_, err := c.transport.Get(ctx, fmt.Sprintf("service/transactions/delete/%d", *transaction.ID), nil)
	if err != nil {
		c.Refresh(ctx)
		return err
	}
	c.refreshPage(ctx)
	return nil
}

// Transactions returns a copy of the cached page.
func (c *TransactionsCache) Transactions() []models.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Transaction, len(c.transactions))
	copy(out, c.transactions)
	return out
}

// CurrentPage returns the 1-based current page.
func (c *TransactionsCache) CurrentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentPage
}

// TotalPages returns the last known page count.
func (c *TransactionsCache) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalPages
}

// replaceLocal swaps a cached transaction by id. Returns false when the id
// is absent from the current page.
func (c *TransactionsCache) replaceLocal(transaction models.Transaction) bool {
	if transaction.ID == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.transactions {
		if existing.ID != nil && *existing.ID == *transaction.ID {
			c.transactions[i] = transaction
			return true
		}
	}
	return false
}

// maxPage keeps the 1-based current page valid even for an empty result.
func maxPage(totalPages int) int {
	if totalPages < 1 {
		return 1
	}
	return totalPages
}
