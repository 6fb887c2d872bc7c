package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/anemonelab/agenthub/core/types"
)

// ListSkills returns the skill registry. Entries usually carry only the
// object id and registration metadata.
func (c *Client) ListSkills(ctx context.Context) ([]types.Skill, error) {
	var out struct {
		Skills []types.Skill `json:"skills"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/skills", nil, &out); err != nil {
		return nil, err
	}
	if out.Skills == nil {
		out.Skills = []types.Skill{}
	}
	return out.Skills, nil
}

// GetSkill fetches one registry entry.
func (c *Client) GetSkill(ctx context.Context, id string) (*types.Skill, error) {
	var out struct {
		Skill *types.Skill `json:"skill"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/skill/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	if out.Skill == nil {
		return nil, fmt.Errorf("skill %s: %w", id, ErrNotFound)
	}
	return out.Skill, nil
}

// AddSkill registers a skill object.
func (c *Client) AddSkill(ctx context.Context, objectID string) error {
	body := struct {
		ObjectID string `json:"object_id"`
	}{ObjectID: objectID}
	return c.doRequest(ctx, http.MethodPost, "/skill", body, nil)
}

// DeleteSkill removes a skill from the registry.
func (c *Client) DeleteSkill(ctx context.Context, objectID string) error {
	return c.doRequest(ctx, http.MethodDelete, "/skill/"+url.PathEscape(objectID), nil, nil)
}
