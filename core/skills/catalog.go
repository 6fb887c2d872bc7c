// Package skills joins the skill registry with chain data and manages the
// editing workflow of a role's skill list.
package skills

import (
	"context"
	"fmt"

	"github.com/anemonelab/agenthub/core/types"
	"github.com/mudler/xlog"
	"golang.org/x/sync/errgroup"
)

// Registry is the backend skill registry.
type Registry interface {
	ListSkills(ctx context.Context) ([]types.Skill, error)
	GetSkill(ctx context.Context, id string) (*types.Skill, error)
	AddSkill(ctx context.Context, objectID string) error
	DeleteSkill(ctx context.Context, objectID string) error
}

// SkillReader reads decoded skill objects from chain.
type SkillReader interface {
	Skill(ctx context.Context, id string) (*types.Skill, error)
}

// Catalog is the list of available skills: registry entries enriched with
// their chain objects.
type Catalog struct {
	registry Registry
	chain    SkillReader

	// Concurrency bounds the chain reads of one join.
	Concurrency int
}

func NewCatalog(registry Registry, chain SkillReader) *Catalog {
	return &Catalog{registry: registry, chain: chain, Concurrency: 8}
}

// Load lists the registry and joins every entry with its chain object. A
// failing chain read degrades that entry to a stub.
func (c *Catalog) Load(ctx context.Context) ([]types.Skill, error) {
	entries, err := c.registry.ListSkills(ctx)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	out := c.join(ctx, entries)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Details reads the chain objects of ids, in order. Duplicates are kept.
func (c *Catalog) Details(ctx context.Context, ids []string) []types.Skill {
	entries := make([]types.Skill, len(ids))
	for i, id := range ids {
		entries[i] = types.Skill{ObjectID: id}
	}
	return c.join(ctx, entries)
}

// Get returns one skill, preferring chain fields over the registry entry.
// The registry is optional; the chain object is not.
func (c *Catalog) Get(ctx context.Context, id string) (*types.Skill, error) {
	onChain, err := c.chain.Skill(ctx, id)
	if err != nil {
		return nil, err
	}
	entry, err := c.registry.GetSkill(ctx, id)
	if err != nil {
		xlog.Debug("Skill not in registry", "skill", id, "error", err)
		entry = &types.Skill{ObjectID: id}
	}
	merged := entry.Merge(*onChain)
	return &merged, nil
}

func (c *Catalog) join(ctx context.Context, entries []types.Skill) []types.Skill {
	out := make([]types.Skill, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, c.Concurrency))
	for i, entry := range entries {
		g.Go(func() error {
			onChain, err := c.chain.Skill(gctx, entry.ObjectID)
			if err != nil {
				xlog.Warn("Could not read skill object", "skill", entry.ObjectID, "error", err)
				out[i] = types.StubSkill(entry.ObjectID).Merge(entry)
				return nil
			}
			out[i] = entry.Merge(*onChain)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
