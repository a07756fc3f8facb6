package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/username/finsync/src/client"
	"github.com/username/finsync/src/logger"
	"github.com/username/finsync/src/models"
)

// UserCache mirrors the current user's profile.
type UserCache struct {
	mu        sync.Mutex
	transport Transport
	session   SessionState
	user      *models.User
}

func NewUserCache(transport Transport, session SessionState, orch *client.Orchestrator) *UserCache {
	c := &UserCache{transport: transport, session: session}
	orch.RegisterUser(func() { c.Refresh(context.Background()) })
	return c
}

// Refresh replaces the snapshot with the server's current profile. While
// unauthenticated it resets the snapshot without touching the network; on
// request failure the prior snapshot is kept.
func (c *UserCache) Refresh(ctx context.Context) {
	if !c.session.Authorized() {
		c.set(nil)
		return
	}
	resp, err := c.transport.Get(ctx, "service/user", nil)
	if err != nil {
		return
	}
	var user models.User
	if err := json.Unmarshal(resp.Body, &user); err != nil {
		logger.L.Error("Failed to decode user profile", "error", err)
		return
	}
	c.set(&user)
}

// Submit writes the profile and replaces the snapshot from the server's
// canonical response. On failure it falls back to a refresh.
func (c *UserCache) Submit(ctx context.Context, user models.User) error {
	resp, err := c.transport.PostJSON(ctx, "service/user", user, nil)
	if err != nil {
		c.Refresh(ctx)
		return err
	}
	var updated models.User
	if err := json.Unmarshal(resp.Body, &updated); err != nil {
		c.Refresh(ctx)
		return fmt.Errorf("failed to decode user profile: %w", err)
	}
	c.set(&updated)
	return nil
}

// User returns a copy of the cached profile, or nil when none is loaded.
func (c *UserCache) User() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	user := *c.user
	return &user
}

func (c *UserCache) set(user *models.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = user
}
