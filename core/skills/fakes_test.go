package skills_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/anemonelab/agenthub/core/chain"
	"github.com/anemonelab/agenthub/core/types"
	"github.com/anemonelab/agenthub/pkg/client"
)

type fakeRegistry struct {
	mu      sync.Mutex
	entries []types.Skill
	listErr error
	addErr  error
	added   []string
	deleted []string
}

func (f *fakeRegistry) ListSkills(ctx context.Context) ([]types.Skill, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]types.Skill(nil), f.entries...), nil
}

func (f *fakeRegistry) GetSkill(ctx context.Context, id string) (*types.Skill, error) {
	for _, e := range f.entries {
		if e.ObjectID == id {
			cp := e
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("skill %s: %w", id, client.ErrNotFound)
}

func (f *fakeRegistry) AddSkill(ctx context.Context, objectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, objectID)
	return f.addErr
}

func (f *fakeRegistry) DeleteSkill(ctx context.Context, objectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, objectID)
	return nil
}

func skillObject(id, name string, fee string) *chain.ObjectResponse {
	return chain.MoveObject(id, map[string]any{
		"name":       name,
		"endpoint":   "https://" + name + ".example",
		"fee":        fee,
		"author":     "0xauthor",
		"is_enabled": true,
	})
}

func roleWithSkills(id string, skills ...string) *chain.ObjectResponse {
	list := make([]any, 0, len(skills))
	for _, s := range skills {
		list = append(list, s)
	}
	return chain.MoveObject(id, map[string]any{
		"bot_nft_id": "0xnft",
		"skills":     list,
	})
}
