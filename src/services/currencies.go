package services

import (
	"context"
	"encoding/json"
	"sync"

	money "github.com/Rhymond/go-money"
	"github.com/username/finsync/src/client"
	"github.com/username/finsync/src/logger"
	"github.com/username/finsync/src/models"
)

// CurrencyCache mirrors the server's list of available currencies.
type CurrencyCache struct {
	mu         sync.Mutex
	transport  Transport
	session    SessionState
	currencies []models.Currency
}

func NewCurrencyCache(transport Transport, session SessionState, orch *client.Orchestrator) *CurrencyCache {
	c := &CurrencyCache{transport: transport, session: session}
	orch.RegisterCurrencies(func() { c.Refresh(context.Background()) })
	return c
}

func (c *CurrencyCache) Refresh(ctx context.Context) {
	if !c.session.Authorized() {
		c.set(nil)
		return
	}
	resp, err := c.transport.Get(ctx, "service/currencies", nil)
	if err != nil {
		return
	}
	var currencies []models.Currency
	if err := json.Unmarshal(resp.Body, &currencies); err != nil {
		logger.L.Error("Failed to decode currency list", "error", err)
		return
	}
	c.set(currencies)
}

// Currencies returns a copy of the cached currency list.
func (c *CurrencyCache) Currencies() []models.Currency {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Currency, len(c.currencies))
	copy(out, c.currencies)
	return out
}

// FindCurrency resolves a currency symbol to its display name. Symbols
// absent from the server list fall back to the ISO registry, and finally
// to the symbol itself.
func (c *CurrencyCache) FindCurrency(symbol string) string {
	c.mu.Lock()
	for _, currency := range c.currencies {
		if currency.Symbol == symbol {
			c.mu.Unlock()
			return currency.DisplayName
		}
	}
	c.mu.Unlock()
	if iso := money.GetCurrency(symbol); iso != nil {
		return iso.Code
	}
	return symbol
}

func (c *CurrencyCache) set(currencies []models.Currency) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currencies = currencies
}
