// Package agent assembles the agent view model from the chain and the
// backend, and drives the per-page view state.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anemonelab/agenthub/core/types"
	"github.com/anemonelab/agenthub/pkg/client"
	"github.com/mudler/xlog"
	"golang.org/x/sync/errgroup"
)

var ErrRoleNotFound = errors.New("role not found")

// ChainReader reads decoded role and NFT records.
type ChainReader interface {
	Role(ctx context.Context, id string) (*types.RoleData, error)
	Nft(ctx context.Context, id string) (*types.NftData, error)
}

// Backend is the part of the backend API the aggregator enriches with.
type Backend interface {
	GetAgentByRoleID(ctx context.Context, roleID string) (*types.Agent, error)
	ListAgents(ctx context.Context) ([]types.Agent, error)
}

// Aggregator builds AgentDetail view models. It keeps no cache: every load
// is a full reconstruction.
type Aggregator struct {
	chain   ChainReader
	backend Backend
	now     func() time.Time

	// ListConcurrency bounds the NFT reads of ListAgents.
	ListConcurrency int
}

func NewAggregator(chain ChainReader, backend Backend) *Aggregator {
	return &Aggregator{
		chain:           chain,
		backend:         backend,
		now:             time.Now,
		ListConcurrency: 8,
	}
}

// WithClock replaces the clock used for synthesized timestamps.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// LoadAgent builds the detail of one role for the given connected wallet.
// Only an unreadable role fails the load; NFT and backend problems degrade
// the result.
func (a *Aggregator) LoadAgent(ctx context.Context, roleID, wallet string) (*types.AgentDetail, error) {
	role, err := a.chain.Role(ctx, roleID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrRoleNotFound, roleID, err)
	}

	if role.BotNFTID == "" {
		xlog.Debug("Role has no bot NFT, building degraded view", "role", roleID)
		detail := &types.AgentDetail{
			Agent: types.Agent{
				ID:        types.UnknownID,
				RoleID:    roleID,
				NftID:     types.UnknownID,
				Address:   role.BotAddress,
				CreatedAt: a.now().UTC().Format(time.RFC3339),
				URL:       types.PlaceholderImageURL,
			},
			Role:     role,
			Nft:      &types.NftData{URL: types.PlaceholderImageURL},
			Degraded: true,
		}
		detail.RecomputeOwner(wallet)
		return detail, nil
	}

	nft, err := a.chain.Nft(ctx, role.BotNFTID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		xlog.Warn("Could not read bot NFT", "role", roleID, "nft", role.BotNFTID, "error", err)
		nft = &types.NftData{}
	}
	if nft.URL == "" {
		nft.URL = types.PlaceholderImageURL
	}

	detail := &types.AgentDetail{
		Agent: a.indexedAgent(ctx, roleID, role, nft),
		Role:  role,
		Nft:   nft,
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	detail.RecomputeOwner(wallet)
	return detail, nil
}

// indexedAgent returns the backend record for the role merged with chain
// data, or a record synthesized from chain data alone.
func (a *Aggregator) indexedAgent(ctx context.Context, roleID string, role *types.RoleData, nft *types.NftData) types.Agent {
	fallback := types.Agent{
		ID:          roleID,
		RoleID:      roleID,
		NftID:       role.BotNFTID,
		Address:     role.BotAddress,
		URL:         nft.URL,
		Name:        nft.Name,
		Description: nft.Description,
		Owner:       nft.Owner,
	}

	indexed, err := a.backend.GetAgentByRoleID(ctx, roleID)
	switch {
	case errors.Is(err, client.ErrNotFound):
		xlog.Debug("Agent not indexed by backend", "role", roleID)
		return fallback
	case err != nil:
		xlog.Warn("Backend agent lookup failed", "role", roleID, "error", err)
		return fallback
	}

	out := *indexed
	out.RoleID = roleID
	if out.ID == "" {
		out.ID = fallback.ID
	}
	if out.NftID == "" {
		out.NftID = fallback.NftID
	}
	if out.Address == "" {
		out.Address = fallback.Address
	}
	if out.Name == "" {
		out.Name = fallback.Name
	}
	if out.Description == "" {
		out.Description = fallback.Description
	}
	if out.URL == "" {
		out.URL = fallback.URL
	}
	if out.Owner == "" {
		out.Owner = fallback.Owner
	}
	return out
}

// ListAgents returns every indexed agent joined with its NFT metadata. NFT
// read failures leave the backend record as is. With mine set only agents
// owned by wallet are returned.
func (a *Aggregator) ListAgents(ctx context.Context, wallet string, mine bool) ([]types.AgentSummary, error) {
	agents, err := a.backend.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}

	out := make([]types.AgentSummary, len(agents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, a.ListConcurrency))
	for i, ag := range agents {
		out[i] = types.AgentSummary{Agent: ag}
		if ag.NftID == "" {
			continue
		}
		g.Go(func() error {
			nft, err := a.chain.Nft(gctx, ag.NftID)
			if err != nil {
				xlog.Warn("Could not read agent NFT", "nft", ag.NftID, "error", err)
				return nil
			}
			mergeNft(&out[i].Agent, nft)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make([]types.AgentSummary, 0, len(out))
	for _, s := range out {
		s.IsOwner = types.IsOwnerOf(wallet, s.Owner)
		if mine && !s.IsOwner {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

// mergeNft overlays the non-empty NFT metadata on an agent record.
func mergeNft(ag *types.Agent, nft *types.NftData) {
	if nft.URL != "" {
		ag.URL = nft.URL
	}
	if nft.Name != "" {
		ag.Name = nft.Name
	}
	if nft.Description != "" {
		ag.Description = nft.Description
	}
	ag.Owner = nft.Owner
}
