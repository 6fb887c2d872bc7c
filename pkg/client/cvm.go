package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/anemonelab/agenthub/core/types"
)

func cvmPath(op, appID string) string {
	return fmt.Sprintf("/cvm/%s/%s", op, url.PathEscape(appID))
}

// getCvm decodes the data field of a CVM endpoint.
func getCvm[T any](ctx context.Context, c *Client, op, appID string) (*T, error) {
	var out struct {
		Data *T `json:"data"`
	}
	if err := c.doRequest(ctx, http.MethodGet, cvmPath(op, appID), nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, fmt.Errorf("cvm %s for %s: empty data", op, appID)
	}
	return out.Data, nil
}

// CvmAttestation returns the TCB info, certificate chain and compose file.
func (c *Client) CvmAttestation(ctx context.Context, appID string) (*types.AttestationResponse, error) {
	return getCvm[types.AttestationResponse](ctx, c, "attestation", appID)
}

// CvmStats returns the system information snapshot.
func (c *Client) CvmStats(ctx context.Context, appID string) (*types.CvmStatsResponse, error) {
	return getCvm[types.CvmStatsResponse](ctx, c, "stats", appID)
}

// CvmComposition returns the container list.
func (c *Client) CvmComposition(ctx context.Context, appID string) (*types.CvmCompositionResponse, error) {
	return getCvm[types.CvmCompositionResponse](ctx, c, "composition", appID)
}

// StartCvm asks the backend to start the CVM. The call returns as soon as
// the request is accepted.
func (c *Client) StartCvm(ctx context.Context, appID string) error {
	return c.doRequest(ctx, http.MethodPost, cvmPath("start", appID), nil, nil)
}

// StopCvm asks the backend to stop the CVM.
func (c *Client) StopCvm(ctx context.Context, appID string) error {
	return c.doRequest(ctx, http.MethodPost, cvmPath("stop", appID), nil, nil)
}
