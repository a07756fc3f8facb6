package client

import (
	"fmt"
	"sync/atomic"
)

// Orchestrator is a registry of named refresh hooks. Each entity cache
// registers its own refresh at construction time; the transport and the
// session invoke the hooks without depending on the cache packages, which
// breaks the otherwise-circular dependency between the two layers.
//
// Hooks must be registered during wiring, before any request is issued.
type Orchestrator struct {
	updateUser         func()
	updateAccounts     func()
	updateCurrencies   func()
	updateTransactions func()

	depth atomic.Int64
}

func NewOrchestrator() *Orchestrator {
	return &Orchestrator{}
}

func (o *Orchestrator) RegisterUser(hook func())         { o.updateUser = hook }
func (o *Orchestrator) RegisterAccounts(hook func())     { o.updateAccounts = hook }
func (o *Orchestrator) RegisterCurrencies(hook func())   { o.updateCurrencies = hook }
func (o *Orchestrator) RegisterTransactions(hook func()) { o.updateTransactions = hook }

// MustBeComplete panics unless every hook has been registered. Call it at
// the end of wiring; an unbound hook indicates incorrect construction order.
func (o *Orchestrator) MustBeComplete() {
	for name, hook := range map[string]func(){
		"updateUser":         o.updateUser,
		"updateAccounts":     o.updateAccounts,
		"updateCurrencies":   o.updateCurrencies,
		"updateTransactions": o.updateTransactions,
	} {
		if hook == nil {
			panic(fmt.Sprintf("refresh hook %s is not registered", name))
		}
	}
}

func (o *Orchestrator) UpdateUser()         { o.call("updateUser", o.updateUser) }
func (o *Orchestrator) UpdateAccounts()     { o.call("updateAccounts", o.updateAccounts) }
func (o *Orchestrator) UpdateCurrencies()   { o.call("updateCurrencies", o.updateCurrencies) }
func (o *Orchestrator) UpdateTransactions() { o.call("updateTransactions", o.updateTransactions) }

// UpdateAllData refreshes the profile-level caches. Transactions are pulled
// in by the account- and transaction-specific flows.
func (o *Orchestrator) UpdateAllData() {
	o.UpdateUser()
	o.UpdateAccounts()
	o.UpdateCurrencies()
}

func (o *Orchestrator) call(name string, hook func()) {
	if hook == nil {
		// Programmer error: a cache was wired after its first use.
		panic(fmt.Sprintf("refresh hook %s is not registered", name))
	}
	o.depth.Add(1)
	defer o.depth.Add(-1)
	hook()
}

// Refreshing reports whether a refresh pass is currently executing. The
// transport uses it to stop a failing refresh from fanning out into
// another full resynchronization.
func (o *Orchestrator) Refreshing() bool {
	return o.depth.Load() > 0
}
