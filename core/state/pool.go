package state

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anemonelab/agenthub/core/chain"
	"github.com/anemonelab/agenthub/core/cvm"
	"github.com/anemonelab/agenthub/core/scheduler"
	"github.com/anemonelab/agenthub/core/skills"
	"github.com/anemonelab/agenthub/core/sse"
	"github.com/anemonelab/agenthub/core/types"
	"github.com/anemonelab/agenthub/pkg/mist"
	"github.com/mudler/xlog"
)

const DefaultBalanceInterval = 2 * time.Second

// PoolOptions wires the collaborators every session shares.
type PoolOptions struct {
	Loader  AgentLoader
	Roles   skills.RoleReader
	Catalog *skills.Catalog
	Tx      chain.TxExecutor
	Cvm     cvm.Backend

	SettleDelay     time.Duration
	BalanceInterval time.Duration
}

// SessionPool holds one session per role id being viewed, plus the balance
// stream of each role.
type SessionPool struct {
	sync.Mutex
	opts      PoolOptions
	sessions  map[string]*Session
	managers  map[string]sse.Manager
	scheduler *scheduler.Scheduler
}

// Balance is the payload of the balance stream.
type Balance struct {
	RoleID  string `json:"role_id"`
	Mist    uint64 `json:"mist"`
	Display string `json:"display"`
	Health  int    `json:"health"`
	Active  bool   `json:"active"`
}

func NewBalance(role *types.RoleData) Balance {
	return Balance{
		RoleID:  role.ID,
		Mist:    role.Balance,
		Display: mist.FormatBalance(role.Balance),
		Health:  role.HealthPercentage(),
		Active:  role.IsActive,
	}
}

func NewSessionPool(opts PoolOptions) *SessionPool {
	if opts.BalanceInterval <= 0 {
		opts.BalanceInterval = DefaultBalanceInterval
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = cvm.DefaultSettleDelay
	}
	s := scheduler.NewScheduler()
	s.Start()
	return &SessionPool{
		opts:      opts,
		sessions:  map[string]*Session{},
		managers:  map[string]sse.Manager{},
		scheduler: s,
	}
}

// Get returns the session of roleID, creating it on first use.
func (a *SessionPool) Get(roleID string) *Session {
	a.Lock()
	defer a.Unlock()
	if s, ok := a.sessions[roleID]; ok {
		return s
	}
	s := &Session{
		roleID:  roleID,
		loader:  a.opts.Loader,
		tx:      a.opts.Tx,
		backend: a.opts.Cvm,
		skills:  skills.NewReconciler(roleID, a.opts.Catalog, a.opts.Roles, a.opts.Tx),
		settle: func(p *cvm.Poller) {
			p.SettleDelay = a.opts.SettleDelay
		},
	}
	s.onLoaded = func(d *types.AgentDetail) {
		a.publishBalance(roleID, d.Role)
	}
	a.sessions[roleID] = s
	return s
}

// Wallet is the connected wallet address, empty when disconnected.
func (a *SessionPool) Wallet() string {
	return a.opts.Tx.Address()
}

// Lookup returns the session of roleID if one exists.
func (a *SessionPool) Lookup(roleID string) *Session {
	a.Lock()
	defer a.Unlock()
	return a.sessions[roleID]
}

func (a *SessionPool) List() []string {
	a.Lock()
	defer a.Unlock()
	var roles []string
	for id := range a.sessions {
		roles = append(roles, id)
	}
	sort.Strings(roles)
	return roles
}

// WalletChanged propagates a new connected wallet to every session.
func (a *SessionPool) WalletChanged(address string) {
	a.Lock()
	defer a.Unlock()
	for _, s := range a.sessions {
		s.WalletChanged(address)
	}
}

// Remove tears down the session of roleID and its balance stream.
func (a *SessionPool) Remove(roleID string) {
	a.Lock()
	defer a.Unlock()
	a.remove(roleID)
}

func (a *SessionPool) remove(roleID string) {
	if s, ok := a.sessions[roleID]; ok {
		s.Close()
		delete(a.sessions, roleID)
	}
	a.scheduler.Cancel(balanceJob(roleID))
	if m, ok := a.managers[roleID]; ok {
		m.Close()
		delete(a.managers, roleID)
	}
}

func (a *SessionPool) StopAll() {
	a.Lock()
	for id := range a.sessions {
		a.remove(id)
	}
	for id := range a.managers {
		a.remove(id)
	}
	a.Unlock()
	a.scheduler.Stop()
}

func balanceJob(roleID string) string { return "balance:" + roleID }

// GetManager returns the balance stream of roleID. The role is re-polled
// while at least one client is connected.
func (a *SessionPool) GetManager(roleID string) sse.Manager {
	a.Lock()
	defer a.Unlock()
	if m, ok := a.managers[roleID]; ok {
		return m
	}
	m := sse.NewManager(sse.Hooks{
		OnJoin: func(clients int) {
			if clients == 1 {
				a.startBalance(roleID)
			}
		},
		OnLeave: func(clients int) {
			if clients == 0 {
				xlog.Debug("Last balance listener left", "role", roleID)
				a.scheduler.Cancel(balanceJob(roleID))
			}
		},
	})
	a.managers[roleID] = m
	return m
}

// BalancePolling reports whether the balance of roleID is being re-polled.
func (a *SessionPool) BalancePolling(roleID string) bool {
	return a.scheduler.Running(balanceJob(roleID))
}

func (a *SessionPool) startBalance(roleID string) {
	_, err := a.scheduler.Schedule(balanceJob(roleID), a.opts.BalanceInterval, func(ctx context.Context) {
		role, err := a.opts.Roles.Role(ctx, roleID)
		if err != nil {
			if ctx.Err() == nil {
				xlog.Warn("Failed to poll agent balance", "role", roleID, "error", err)
			}
			return
		}
		a.publishBalance(roleID, role)
	})
	if err != nil {
		xlog.Error("Failed to schedule balance polling", "role", roleID, "error", err)
	}
}

func (a *SessionPool) publishBalance(roleID string, role *types.RoleData) {
	if role == nil {
		return
	}
	a.Lock()
	m, ok := a.managers[roleID]
	a.Unlock()
	if !ok {
		return
	}
	msg, err := sse.NewJSONMessage("balance", NewBalance(role))
	if err != nil {
		xlog.Error("Failed to encode balance", "role", roleID, "error", err)
		return
	}
	m.Send(msg)
}
