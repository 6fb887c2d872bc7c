package skills

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/anemonelab/agenthub/core/chain"
	"github.com/anemonelab/agenthub/core/types"
	"github.com/anemonelab/agenthub/pkg/xstrings"
	"github.com/mudler/xlog"
)

var (
	ErrMissingNFT = errors.New("agent has no bot NFT")
	ErrNotEditing = errors.New("skills are not being edited")
	ErrSubmitting = errors.New("a skill update is in flight")
)

// Mode is the editing state of a role's skill list.
type Mode int

const (
	Viewing Mode = iota
	Editing
	Submitting
)

func (m Mode) String() string {
	switch m {
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	}
	return "unknown"
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Outcome classifies the result of Commit.
type Outcome int

const (
	// Committed: the update landed and the list was re-read from chain.
	Committed Outcome = iota
	// Rejected: nothing changed on chain; editing continues.
	Rejected
	// Uncertain: the update was submitted but its result is unknown until
	// Refresh.
	Uncertain
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case Rejected:
		return "rejected"
	case Uncertain:
		return "uncertain"
	}
	return "unknown"
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

type CommitResult struct {
	Outcome Outcome `json:"outcome"`
	Digest  string  `json:"digest,omitempty"`
	Err     error   `json:"-"`
}

// RoleReader reads decoded roles.
type RoleReader interface {
	Role(ctx context.Context, id string) (*types.RoleData, error)
}

// Reconciler owns the skill list of one role. The displayed list is only
// replaced with data read back from chain, never optimistically.
type Reconciler struct {
	mu sync.Mutex

	roleID string
	nftID  string

	mode    Mode
	current []string
	details []types.Skill
	catalog []types.Skill
	pending []string
	lastErr error
	// unsure is set while Submitting once finality could not be observed.
	unsure bool

	skills *Catalog
	roles  RoleReader
	tx     chain.TxExecutor
}

func NewReconciler(roleID string, catalog *Catalog, roles RoleReader, tx chain.TxExecutor) *Reconciler {
	return &Reconciler{
		roleID:  roleID,
		skills:  catalog,
		roles:   roles,
		tx:      tx,
		current: []string{},
		details: []types.Skill{},
	}
}

// Sync seeds the reconciler from an already loaded role.
func (r *Reconciler) Sync(ctx context.Context, role *types.RoleData) {
	details := r.skills.Details(ctx, role.Skills)
	if ctx.Err() != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.apply(role, details)
}

func (r *Reconciler) apply(role *types.RoleData, details []types.Skill) {
	r.nftID = role.BotNFTID
	r.current = slices.Clone(role.Skills)
	r.details = details
}

// Refresh re-reads the role from chain. It is the only way out of an
// uncertain Submitting state; a submission still in flight keeps its mode
// and pending selection.
func (r *Reconciler) Refresh(ctx context.Context) error {
	role, err := r.roles.Role(ctx, r.roleID)
	if err != nil {
		return fmt.Errorf("refresh skills of %s: %w", r.roleID, err)
	}
	details := r.skills.Details(ctx, role.Skills)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("refresh skills of %s: %w", r.roleID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.apply(role, details)
	if r.mode == Submitting {
		if !r.unsure {
			return nil
		}
		r.mode = Viewing
		r.pending = nil
		r.unsure = false
	}
	r.lastErr = nil
	return nil
}

// EnterEdit loads the catalog and seeds the pending selection with the
// current skills. A catalog failure leaves an empty catalog.
func (r *Reconciler) EnterEdit(ctx context.Context) error {
	r.mu.Lock()
	switch r.mode {
	case Editing:
		r.mu.Unlock()
		return nil
	case Submitting:
		r.mu.Unlock()
		return ErrSubmitting
	}
	r.mu.Unlock()

	catalog, err := r.skills.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		xlog.Warn("Could not load skill catalog", "role", r.roleID, "error", err)
		catalog = []types.Skill{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != Viewing {
		return nil
	}
	r.catalog = catalog
	r.pending = xstrings.UniqueSlice(slices.Clone(r.current))
	r.mode = Editing
	r.lastErr = nil
	return nil
}

// Toggle adds or removes a skill from the pending selection.
func (r *Reconciler) Toggle(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != Editing {
		return ErrNotEditing
	}
	if i := slices.Index(r.pending, id); i >= 0 {
		r.pending = slices.Delete(r.pending, i, i+1)
	} else {
		r.pending = append(r.pending, id)
	}
	return nil
}

// Cancel drops the pending selection without any network call.
func (r *Reconciler) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != Editing {
		return
	}
	r.mode = Viewing
	r.pending = nil
	r.lastErr = nil
}

// Commit replaces the role's skills on chain with the pending selection,
// waits for finality and re-reads the role. It always submits, even when
// the selection equals the current list.
func (r *Reconciler) Commit(ctx context.Context) CommitResult {
	r.mu.Lock()
	if r.mode != Editing {
		r.mu.Unlock()
		return CommitResult{Outcome: Rejected, Err: ErrNotEditing}
	}
	if r.tx.Address() == "" {
		return r.rejectLocked(chain.ErrWalletNotConnected)
	}
	if r.nftID == "" {
		return r.rejectLocked(ErrMissingNFT)
	}
	pending := slices.Clone(r.pending)
	nftID := r.nftID
	r.mode = Submitting
	r.mu.Unlock()

	digest, err := r.tx.UpdateSkills(ctx, r.roleID, nftID, slices.Clone(pending))
	if err != nil {
		return r.reject(pending, fmt.Errorf("update skills: %w", err))
	}

	if _, err := chain.Confirm(ctx, r.tx, digest); err != nil {
		if errors.Is(err, chain.ErrTransactionFailed) {
			return r.reject(pending, err)
		}
		return r.uncertain(digest, err)
	}

	role, err := r.roles.Role(ctx, r.roleID)
	if err != nil {
		return r.uncertain(digest, fmt.Errorf("%w: re-read role: %w", chain.ErrUncertainOutcome, err))
	}
	details := r.skills.Details(ctx, role.Skills)
	if err := ctx.Err(); err != nil {
		return r.uncertain(digest, fmt.Errorf("%w: re-read skills: %w", chain.ErrUncertainOutcome, err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.apply(role, details)
	r.mode = Viewing
	r.pending = nil
	r.lastErr = nil
	r.unsure = false
	xlog.Info("Skills updated", "role", r.roleID, "digest", digest, "skills", len(role.Skills))
	return CommitResult{Outcome: Committed, Digest: digest}
}

func (r *Reconciler) rejectLocked(err error) CommitResult {
	defer r.mu.Unlock()
	r.lastErr = err
	return CommitResult{Outcome: Rejected, Err: err}
}

// reject returns to Editing with the selection that was submitted.
func (r *Reconciler) reject(pending []string, err error) CommitResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = Editing
	r.pending = pending
	r.lastErr = err
	xlog.Error("Skill update rejected", "role", r.roleID, "error", err)
	return CommitResult{Outcome: Rejected, Err: err}
}

func (r *Reconciler) uncertain(digest string, err error) CommitResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastErr = err
	r.unsure = true
	xlog.Warn("Skill update outcome unknown", "role", r.roleID, "digest", digest, "error", err)
	return CommitResult{Outcome: Uncertain, Digest: digest, Err: err}
}

func (r *Reconciler) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// Current is the committed skill list, as read from chain.
func (r *Reconciler) Current() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.current)
}

// Pending returns a copy of the selection being edited.
func (r *Reconciler) Pending() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.pending)
}

// Details are the skill records of the committed list, duplicates included.
func (r *Reconciler) Details() []types.Skill {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.details)
}

func (r *Reconciler) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Combined is the current skill details followed by the catalog, one entry
// per object id.
func (r *Reconciler) Combined() []types.Skill {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.combined()
}

func (r *Reconciler) combined() []types.Skill {
	return types.UniqueSkills(r.details, r.catalog)
}

// Selected returns the pending skills in selection order.
func (r *Reconciler) Selected() []types.Skill {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID := map[string]types.Skill{}
	for _, s := range r.combined() {
		byID[s.ObjectID] = s
	}
	out := []types.Skill{}
	for _, id := range r.pending {
		s, ok := byID[id]
		if !ok {
			s = types.StubSkill(id)
		}
		out = append(out, s)
	}
	return out
}

// Available returns the combined skills that are not selected.
func (r *Reconciler) Available() []types.Skill {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []types.Skill{}
	for _, s := range r.combined() {
		if !slices.Contains(r.pending, s.ObjectID) {
			out = append(out, s)
		}
	}
	return out
}

// Snapshot is the serializable state of a reconciler.
type Snapshot struct {
	RoleID    string        `json:"role_id"`
	Mode      Mode          `json:"mode"`
	Current   []string      `json:"current"`
	Skills    []types.Skill `json:"skills"`
	Pending   []string      `json:"pending,omitempty"`
	Selected  []types.Skill `json:"selected,omitempty"`
	Available []types.Skill `json:"available,omitempty"`
	Error     string        `json:"error,omitempty"`
}

func (r *Reconciler) Snapshot() Snapshot {
	s := Snapshot{
		RoleID:  r.roleID,
		Mode:    r.Mode(),
		Current: r.Current(),
		Skills:  types.UniqueSkills(r.Details()),
	}
	if s.Mode != Viewing {
		s.Pending = r.Pending()
		s.Selected = r.Selected()
		s.Available = r.Available()
	}
	if err := r.LastError(); err != nil {
		s.Error = err.Error()
	}
	return s
}
