// Package cvm keeps the stats, attestation and composition snapshots of the
// confidential VM that hosts an agent.
package cvm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anemonelab/agenthub/core/types"
	"github.com/mudler/xlog"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoAppID        = errors.New("agent has no CVM app id")
	ErrNotOwner       = errors.New("only the agent owner can control its CVM")
	ErrUnknownSection = errors.New("unknown CVM section")
)

const (
	DefaultSettleDelay = 5 * time.Second
	repollTimeout      = 30 * time.Second
)

// Backend is the CVM part of the backend API.
type Backend interface {
	CvmStats(ctx context.Context, appID string) (*types.CvmStatsResponse, error)
	CvmAttestation(ctx context.Context, appID string) (*types.AttestationResponse, error)
	CvmComposition(ctx context.Context, appID string) (*types.CvmCompositionResponse, error)
	StartCvm(ctx context.Context, appID string) error
	StopCvm(ctx context.Context, appID string) error
}

type Section string

const (
	Stats       Section = "stats"
	Attestation Section = "attestation"
	Composition Section = "composition"
)

var Sections = []Section{Stats, Attestation, Composition}

func ParseSection(s string) (Section, error) {
	for _, sec := range Sections {
		if string(sec) == s {
			return sec, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSection, s)
}

// Poller fetches the three CVM snapshots independently. A snapshot is
// replaced wholesale on success; a failure keeps the previous one and is
// recorded for its section only.
type Poller struct {
	mu sync.Mutex

	appID   string
	backend Backend

	stats       *types.CvmStatsResponse
	attestation *types.AttestationResponse
	composition *types.CvmCompositionResponse
	errs        map[Section]error
	loaded      map[Section]bool

	repoll *time.Timer
	closed bool

	// SettleDelay is the wait between a start or stop and the re-poll.
	SettleDelay time.Duration
	// OnRepoll runs after each delayed re-poll.
	OnRepoll func()
}

func NewPoller(appID string, backend Backend) *Poller {
	return &Poller{
		appID:       appID,
		backend:     backend,
		errs:        map[Section]error{},
		loaded:      map[Section]bool{},
		SettleDelay: DefaultSettleDelay,
	}
}

func (p *Poller) AppID() string { return p.appID }

// Refresh fetches one section.
func (p *Poller) Refresh(ctx context.Context, section Section) error {
	if p.appID == "" {
		return ErrNoAppID
	}

	var (
		err         error
		stats       *types.CvmStatsResponse
		attestation *types.AttestationResponse
		composition *types.CvmCompositionResponse
	)
	switch section {
	case Stats:
		stats, err = p.backend.CvmStats(ctx, p.appID)
	case Attestation:
		attestation, err = p.backend.CvmAttestation(ctx, p.appID)
	case Composition:
		composition, err = p.backend.CvmComposition(ctx, p.appID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded[section] = true
	if err != nil {
		p.errs[section] = err
		xlog.Warn("CVM fetch failed", "app", p.appID, "section", section, "error", err)
		return fmt.Errorf("cvm %s: %w", section, err)
	}
	delete(p.errs, section)
	switch section {
	case Stats:
		p.stats = stats
	case Attestation:
		p.attestation = attestation
	case Composition:
		p.composition = composition
	}
	return nil
}

func (p *Poller) RefreshStats(ctx context.Context) error { return p.Refresh(ctx, Stats) }

func (p *Poller) RefreshAttestation(ctx context.Context) error {
	return p.Refresh(ctx, Attestation)
}

func (p *Poller) RefreshComposition(ctx context.Context) error {
	return p.Refresh(ctx, Composition)
}

// RefreshAll fetches every section concurrently. One failing section does
// not stop the others; the joined errors are returned.
func (p *Poller) RefreshAll(ctx context.Context) error {
	if p.appID == "" {
		return ErrNoAppID
	}
	errs := make([]error, len(Sections))
	var g errgroup.Group
	for i, sec := range Sections {
		g.Go(func() error {
			errs[i] = p.Refresh(ctx, sec)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// EnsureLoaded fetches a section the first time it is needed.
func (p *Poller) EnsureLoaded(ctx context.Context, section Section) error {
	p.mu.Lock()
	loaded := p.loaded[section]
	p.mu.Unlock()
	if loaded {
		return nil
	}
	return p.Refresh(ctx, section)
}

// Start asks the backend to start the CVM and schedules a re-poll.
func (p *Poller) Start(ctx context.Context, isOwner bool) error {
	return p.control(ctx, isOwner, "start", p.backend.StartCvm)
}

// Stop asks the backend to stop the CVM and schedules a re-poll.
func (p *Poller) Stop(ctx context.Context, isOwner bool) error {
	return p.control(ctx, isOwner, "stop", p.backend.StopCvm)
}

func (p *Poller) control(ctx context.Context, isOwner bool, op string, call func(context.Context, string) error) error {
	if !isOwner {
		return ErrNotOwner
	}
	if p.appID == "" {
		return ErrNoAppID
	}
	if err := call(ctx, p.appID); err != nil {
		return fmt.Errorf("%s cvm %s: %w", op, p.appID, err)
	}
	xlog.Info("CVM command accepted", "app", p.appID, "op", op)
	p.scheduleRepoll()
	return nil
}

func (p *Poller) scheduleRepoll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if p.repoll != nil {
		p.repoll.Stop()
	}
	p.repoll = time.AfterFunc(p.SettleDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), repollTimeout)
		defer cancel()
		if err := p.RefreshAll(ctx); err != nil {
			xlog.Debug("CVM re-poll incomplete", "app", p.appID, "error", err)
		}
		if p.OnRepoll != nil {
			p.OnRepoll()
		}
	})
}

// Close cancels a pending re-poll.
func (p *Poller) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.repoll != nil {
		p.repoll.Stop()
		p.repoll = nil
	}
}

// Liveness is the online state shown for an agent.
type Liveness struct {
	Online bool   `json:"online"`
	Source string `json:"source"`
}

// Liveness prefers the is_online flag of a fetched attestation or stats
// snapshot and falls back to the role's on-chain is_active flag.
func (p *Poller) Liveness(roleActive bool) Liveness {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.attestation != nil:
		return Liveness{Online: p.attestation.IsOnline, Source: string(Attestation)}
	case p.stats != nil:
		return Liveness{Online: p.stats.IsOnline, Source: string(Stats)}
	}
	return Liveness{Online: roleActive, Source: "chain"}
}

// View is a consistent copy of every snapshot.
type View struct {
	AppID       string                        `json:"app_id"`
	Stats       *types.CvmStatsResponse       `json:"stats,omitempty"`
	Attestation *types.AttestationResponse    `json:"attestation,omitempty"`
	Composition *types.CvmCompositionResponse `json:"composition,omitempty"`
	Errors      map[Section]string            `json:"errors,omitempty"`
}

func (p *Poller) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := View{
		AppID:       p.appID,
		Stats:       p.stats,
		Attestation: p.attestation,
		Composition: p.composition,
	}
	if len(p.errs) > 0 {
		v.Errors = map[Section]string{}
		for s, err := range p.errs {
			v.Errors[s] = err.Error()
		}
	}
	return v
}

// Err returns the last error of a section, nil after a successful fetch.
func (p *Poller) Err(section Section) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errs[section]
}
