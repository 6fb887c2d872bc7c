package state_test

import (
	"context"
	"errors"
	"sync"

	"github.com/anemonelab/agenthub/core/types"
)

// fakeLoader serves canned details. A role listed in block waits for its
// context to be cancelled.
type fakeLoader struct {
	mu      sync.Mutex
	details map[string]*types.AgentDetail
	block   map[string]bool
	calls   int
	wallets []string
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{details: map[string]*types.AgentDetail{}, block: map[string]bool{}}
}

func (f *fakeLoader) LoadAgent(ctx context.Context, roleID, wallet string) (*types.AgentDetail, error) {
	f.mu.Lock()
	f.calls++
	f.wallets = append(f.wallets, wallet)
	blocked := f.block[roleID]
	f.block[roleID] = false
	d, ok := f.details[roleID]
	f.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if !ok {
		return nil, errors.New("role not found")
	}
	c := *d
	c.Role = d.Role.Clone()
	return &c, nil
}

func detail(roleID, owner, appID string, balance uint64) *types.AgentDetail {
	return &types.AgentDetail{
		Agent: types.Agent{ID: "1", RoleID: roleID, NftID: "0xnft", Name: "bot"},
		Role: &types.RoleData{
			ID:       roleID,
			BotNFTID: "0xnft",
			Balance:  balance,
			IsActive: true,
			Skills:   []string{"0xs1"},
			AppID:    appID,
		},
		Nft: &types.NftData{Name: "bot", Owner: owner},
	}
}

type fakeCvm struct{}

func (fakeCvm) CvmStats(ctx context.Context, appID string) (*types.CvmStatsResponse, error) {
	return &types.CvmStatsResponse{}, nil
}

func (fakeCvm) CvmAttestation(ctx context.Context, appID string) (*types.AttestationResponse, error) {
	return &types.AttestationResponse{}, nil
}

func (fakeCvm) CvmComposition(ctx context.Context, appID string) (*types.CvmCompositionResponse, error) {
	return &types.CvmCompositionResponse{}, nil
}

func (fakeCvm) StartCvm(ctx context.Context, appID string) error { return nil }
func (fakeCvm) StopCvm(ctx context.Context, appID string) error  { return nil }

func (f *fakeLoader) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
