package agent

import (
	"github.com/anemonelab/agenthub/core/types"
	"github.com/mudler/xlog"
)

// State is the lifecycle of an agent page.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Degraded
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Degraded:
		return "degraded"
	case Error:
		return "error"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Token identifies one load. Results carrying an older token are dropped.
type Token uint64

// View is the state of one agent page.
type View struct {
	State  State              `json:"state"`
	RoleID string             `json:"role_id"`
	Token  Token              `json:"-"`
	Wallet string             `json:"-"`
	Detail *types.AgentDetail `json:"detail,omitempty"`
	Err    error              `json:"-"`
}

// ErrorMessage returns the message of the last failed load.
func (v View) ErrorMessage() string {
	if v.Err == nil {
		return ""
	}
	return v.Err.Error()
}

type Event interface {
	event()
}

type LoadStarted struct {
	RoleID string
	Token  Token
}

type LoadSucceeded struct {
	Token  Token
	Detail *types.AgentDetail
}

type LoadFailed struct {
	Token Token
	Err   error
}

type WalletChanged struct {
	Address string
}

func (LoadStarted) event()   {}
func (LoadSucceeded) event() {}
func (LoadFailed) event()    {}
func (WalletChanged) event() {}

// Reduce is the only transition function of View.
func Reduce(v View, e Event) View {
	switch e := e.(type) {
	case LoadStarted:
		if e.RoleID != v.RoleID {
			v.Detail = nil
		}
		v.RoleID = e.RoleID
		v.Token = e.Token
		v.State = Loading
		v.Err = nil

	case LoadSucceeded:
		if e.Token != v.Token {
			xlog.Debug("Discarding stale agent load", "role", v.RoleID, "token", e.Token, "current", v.Token)
			return v
		}
		if e.Detail == nil {
			return v
		}
		d := *e.Detail
		d.RecomputeOwner(v.Wallet)
		v.Detail = &d
		v.Err = nil
		v.State = Ready
		if d.Degraded {
			v.State = Degraded
		}

	case LoadFailed:
		if e.Token != v.Token {
			xlog.Debug("Discarding stale agent load failure", "role", v.RoleID, "token", e.Token, "error", e.Err)
			return v
		}
		v.Err = e.Err
		v.State = Error

	case WalletChanged:
		v.Wallet = e.Address
		if v.Detail != nil {
			d := *v.Detail
			d.RecomputeOwner(v.Wallet)
			v.Detail = &d
		}
	}
	return v
}
