package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/username/finsync/src/logger"
	"github.com/username/finsync/src/models"
)

// SettingsCache mirrors the admin configuration variables. It is refreshed
// on demand rather than on every sync pass; only administrators see it.
type SettingsCache struct {
	mu        sync.Mutex
	transport Transport
	session   SessionState
	settings  []models.ConfigurationVariable
}

func NewSettingsCache(transport Transport, session SessionState) *SettingsCache {
	return &SettingsCache{transport: transport, session: session}
}

func (c *SettingsCache) Refresh(ctx context.Context) {
	if !c.session.Authorized() {
		c.set(nil)
		return
	}
	resp, err := c.transport.Get(ctx, "service/configuration", nil)
	if err != nil {
		return
	}
	var settings []models.ConfigurationVariable
	if err := json.Unmarshal(resp.Body, &settings); err != nil {
		logger.L.Error("Failed to decode configuration", "error", err)
		return
	}
	c.set(settings)
}

// Submit writes the full variable set, then re-reads the server state so
// the cache reflects whatever the server actually accepted.
func (c *SettingsCache) Submit(ctx context.Context, settings []models.ConfigurationVariable) error {
	_, err := c.transport.PostJSON(ctx, "service/configuration", settings, nil)
	c.Refresh(ctx)
	return err
}

// Value returns the value of a named configuration variable.
func (c *SettingsCache) Value(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, setting := range c.settings {
		if setting.Name == name {
			return setting.Value, true
		}
	}
	return "", false
}

// Settings returns a copy of the cached variable set.
func (c *SettingsCache) Settings() []models.ConfigurationVariable {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ConfigurationVariable, len(c.settings))
	copy(out, c.settings)
	return out
}

func (c *SettingsCache) set(settings []models.ConfigurationVariable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = settings
}
