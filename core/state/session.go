package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/anemonelab/agenthub/core/agent"
	"github.com/anemonelab/agenthub/core/chain"
	"github.com/anemonelab/agenthub/core/cvm"
	"github.com/anemonelab/agenthub/core/skills"
	"github.com/anemonelab/agenthub/core/types"
	"github.com/anemonelab/agenthub/pkg/mist"
	"github.com/mudler/xlog"
)

var ErrNotLoaded = errors.New("agent not loaded")

// AgentLoader builds the detail of a role.
type AgentLoader interface {
	LoadAgent(ctx context.Context, roleID, wallet string) (*types.AgentDetail, error)
}

// Session is the state of one agent page: the loaded view, the skill
// reconciler and the CVM poller of the role.
type Session struct {
	mu sync.Mutex

	roleID string
	view   agent.View
	token  agent.Token
	cancel context.CancelFunc

	loader   AgentLoader
	tx       chain.TxExecutor
	backend  cvm.Backend
	settle   func(*cvm.Poller)
	skills   *skills.Reconciler
	cvm      *cvm.Poller
	closed   bool
	onLoaded func(*types.AgentDetail)
}

func (s *Session) RoleID() string { return s.roleID }

// View returns a copy of the current page state.
func (s *Session) View() agent.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Load starts a new load of the role. A load still in flight is cancelled
// and its result, if it arrives, is discarded.
func (s *Session) Load(ctx context.Context) agent.View {
	s.mu.Lock()
	if s.closed {
		v := s.view
		s.mu.Unlock()
		return v
	}
	if s.cancel != nil {
		s.cancel()
	}
	if addr := s.tx.Address(); addr != s.view.Wallet {
		s.view = agent.Reduce(s.view, agent.WalletChanged{Address: addr})
	}
	s.token++
	token := s.token
	loadCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.view = agent.Reduce(s.view, agent.LoadStarted{RoleID: s.roleID, Token: token})
	wallet := s.view.Wallet
	s.mu.Unlock()

	defer cancel()

	detail, err := s.loader.LoadAgent(loadCtx, s.roleID, wallet)
	if err == nil && s.current(token) {
		s.skills.Sync(loadCtx, detail.Role)
	}

	s.mu.Lock()
	if err != nil {
		if s.token == token {
			xlog.Error("Failed to load agent", "role", s.roleID, "error", err)
		}
		s.view = agent.Reduce(s.view, agent.LoadFailed{Token: token, Err: err})
		v := s.view
		s.mu.Unlock()
		return v
	}
	s.view = agent.Reduce(s.view, agent.LoadSucceeded{Token: token, Detail: detail})
	fresh := s.view.Token == token && !s.closed
	if fresh {
		s.attachPoller(detail.Role.AppID)
	}
	v := s.view
	s.mu.Unlock()

	if fresh && s.onLoaded != nil {
		s.onLoaded(detail)
	}
	return v
}

func (s *Session) current(token agent.Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token == token
}

// attachPoller keeps the poller when the app id did not change.
func (s *Session) attachPoller(appID string) {
	if s.cvm != nil && s.cvm.AppID() == appID {
		return
	}
	if s.cvm != nil {
		s.cvm.Close()
	}
	s.cvm = cvm.NewPoller(appID, s.backend)
	if s.settle != nil {
		s.settle(s.cvm)
	}
}

// WalletChanged recomputes ownership without reloading.
func (s *Session) WalletChanged(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = agent.Reduce(s.view, agent.WalletChanged{Address: address})
}

func (s *Session) Detail() (*types.AgentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.Detail == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotLoaded, s.roleID)
	}
	return s.view.Detail, nil
}

func (s *Session) IsOwner() bool {
	d, err := s.Detail()
	return err == nil && d.IsOwner
}

func (s *Session) Skills() *skills.Reconciler { return s.skills }

// Cvm returns the poller of the loaded role.
func (s *Session) Cvm() (*cvm.Poller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cvm == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotLoaded, s.roleID)
	}
	return s.cvm, nil
}

// Liveness reports whether the agent is online, preferring CVM data over
// the on-chain flag.
func (s *Session) Liveness() cvm.Liveness {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := s.view.Detail != nil && s.view.Detail.Role != nil && s.view.Detail.Role.IsActive
	if s.cvm == nil {
		return cvm.Liveness{Online: active, Source: "chain"}
	}
	return s.cvm.Liveness(active)
}

// Deposit moves SUI from the connected wallet into the role.
func (s *Session) Deposit(ctx context.Context, amount string) (string, error) {
	value, err := mist.ParseAmount(amount)
	if err != nil {
		return "", err
	}
	digest, err := s.tx.DepositSui(ctx, s.roleID, value)
	if err != nil {
		return "", fmt.Errorf("deposit: %w", err)
	}
	if _, err := chain.Confirm(ctx, s.tx, digest); err != nil {
		return digest, fmt.Errorf("deposit: %w", err)
	}
	xlog.Info("Deposited to agent", "role", s.roleID, "mist", value, "digest", digest)
	return digest, nil
}

// Withdraw moves SUI from the role to the holder of its bot NFT.
func (s *Session) Withdraw(ctx context.Context, amount string) (string, error) {
	value, err := mist.ParseAmount(amount)
	if err != nil {
		return "", err
	}
	detail, err := s.Detail()
	if err != nil {
		return "", err
	}
	if detail.Role == nil || detail.Role.BotNFTID == "" {
		return "", skills.ErrMissingNFT
	}
	digest, err := s.tx.WithdrawSui(ctx, s.roleID, detail.Role.BotNFTID, value)
	if err != nil {
		return "", fmt.Errorf("withdraw: %w", err)
	}
	if _, err := chain.Confirm(ctx, s.tx, digest); err != nil {
		return digest, fmt.Errorf("withdraw: %w", err)
	}
	xlog.Info("Withdrew from agent", "role", s.roleID, "mist", value, "digest", digest)
	return digest, nil
}

// Close cancels the load in flight and stops the CVM re-poll.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	if s.cvm != nil {
		s.cvm.Close()
	}
}
