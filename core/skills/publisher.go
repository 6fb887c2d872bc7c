package skills

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anemonelab/agenthub/core/chain"
	"github.com/mudler/xlog"
)

const (
	// DefaultFee is 0.01 SUI.
	DefaultFee uint64 = 10_000_000

	SkillType = "::skill_manager::Skill"
)

var (
	ErrInvalidSkill = errors.New("skill name and endpoint are required")
	// ErrNotRegistered means the skill exists on chain but the registry
	// does not list it.
	ErrNotRegistered = errors.New("skill created on chain but not registered")
)

type PublishResult struct {
	ObjectID   string `json:"object_id,omitempty"`
	Digest     string `json:"digest"`
	Registered bool   `json:"registered"`
}

// Publisher creates skill objects and registers them with the backend.
type Publisher struct {
	registry Registry
	tx       chain.TxExecutor
}

func NewPublisher(registry Registry, tx chain.TxExecutor) *Publisher {
	return &Publisher{registry: registry, tx: tx}
}

// Publish creates the skill on chain and then registers it. A zero fee
// becomes DefaultFee. When only the registration fails, the result is
// returned along with ErrNotRegistered.
func (p *Publisher) Publish(ctx context.Context, params chain.SkillParams) (*PublishResult, error) {
	params.Name = strings.TrimSpace(params.Name)
	params.Endpoint = strings.TrimSpace(params.Endpoint)
	if params.Name == "" || params.Endpoint == "" {
		return nil, ErrInvalidSkill
	}
	if params.Fee == 0 {
		params.Fee = DefaultFee
	}
	if p.tx.Address() == "" {
		return nil, chain.ErrWalletNotConnected
	}

	digest, err := p.tx.CreateSkill(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create skill: %w", err)
	}
	block, err := chain.Confirm(ctx, p.tx, digest)
	if err != nil {
		return nil, err
	}

	res := &PublishResult{Digest: digest, ObjectID: chain.FindCreated(block, SkillType)}
	if res.ObjectID == "" {
		return res, fmt.Errorf("%w: no skill object in %s", ErrNotRegistered, digest)
	}
	if err := p.registry.AddSkill(ctx, res.ObjectID); err != nil {
		xlog.Error("Could not register skill", "skill", res.ObjectID, "error", err)
		return res, fmt.Errorf("%w: %w", ErrNotRegistered, err)
	}
	res.Registered = true
	xlog.Info("Skill published", "skill", res.ObjectID, "digest", digest)
	return res, nil
}

// Unpublish removes a skill from the registry. The chain object stays.
func (p *Publisher) Unpublish(ctx context.Context, objectID string) error {
	if err := p.registry.DeleteSkill(ctx, objectID); err != nil {
		return fmt.Errorf("delete skill %s: %w", objectID, err)
	}
	return nil
}
