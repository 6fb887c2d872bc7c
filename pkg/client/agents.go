package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/anemonelab/agenthub/core/types"
)

// GetAgentByRoleID looks up the agent indexed for a role. A missing record
// is reported as ErrNotFound.
func (c *Client) GetAgentByRoleID(ctx context.Context, roleID string) (*types.Agent, error) {
	var out struct {
		Agent *types.Agent `json:"agent"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/agent/"+url.PathEscape(roleID), nil, &out); err != nil {
		return nil, err
	}
	if out.Agent == nil {
		return nil, fmt.Errorf("agent for role %s: %w", roleID, ErrNotFound)
	}
	return out.Agent, nil
}

// ListAgents returns every indexed agent.
func (c *Client) ListAgents(ctx context.Context) ([]types.Agent, error) {
	var out struct {
		Agents []types.Agent `json:"agents"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/agents", nil, &out); err != nil {
		return nil, err
	}
	if out.Agents == nil {
		out.Agents = []types.Agent{}
	}
	return out.Agents, nil
}

// GetNFTIDByRole resolves the bot NFT of a role from the backend mapping.
func (c *Client) GetNFTIDByRole(ctx context.Context, roleID string) (string, error) {
	var out struct {
		NftID string `json:"nft_id"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/agent/nft-id/"+url.PathEscape(roleID), nil, &out); err != nil {
		return "", err
	}
	if out.NftID == "" {
		return "", fmt.Errorf("nft for role %s: %w", roleID, ErrNotFound)
	}
	return out.NftID, nil
}

// AgentAddress is a freshly generated agent wallet and its CVM deployment.
type AgentAddress struct {
	Address string `json:"address"`
	AppID   string `json:"app_id"`
	CvmID   int64  `json:"cvm_id"`
}

// GenerateAgentAddress asks the backend to provision an agent address.
func (c *Client) GenerateAgentAddress(ctx context.Context) (*AgentAddress, error) {
	var out AgentAddress
	if err := c.doRequest(ctx, http.MethodPost, "/generate-agent-address", nil, &out); err != nil {
		return nil, err
	}
	if out.Address == "" || out.AppID == "" {
		return nil, fmt.Errorf("generate agent address: incomplete response")
	}
	return &out, nil
}

// AgentMapping links a minted role and NFT to the generated address.
type AgentMapping struct {
	Address string `json:"address"`
	NftID   string `json:"nft_id"`
	RoleID  string `json:"role_id"`
	CvmID   int64  `json:"cvm_id"`
}

// CreateAgent stores the mapping of a newly minted agent.
func (c *Client) CreateAgent(ctx context.Context, m AgentMapping) error {
	return c.doRequest(ctx, http.MethodPost, "/create-agent", m, nil)
}
