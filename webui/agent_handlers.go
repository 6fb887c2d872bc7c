package webui

import (
	"context"
	"errors"
	"net/http"

	"github.com/anemonelab/agenthub/core/agent"
	"github.com/anemonelab/agenthub/core/cvm"
	"github.com/anemonelab/agenthub/core/state"
	"github.com/anemonelab/agenthub/core/types"
	"github.com/anemonelab/agenthub/pkg/mist"
	fiber "github.com/gofiber/fiber/v2"
	"github.com/mudler/xlog"
)

type agentResponse struct {
	State    agent.State        `json:"state"`
	RoleID   string             `json:"role_id"`
	Detail   *types.AgentDetail `json:"detail,omitempty"`
	Error    string             `json:"error,omitempty"`
	Wallet   string             `json:"wallet"`
	Liveness cvm.Liveness       `json:"liveness"`
	Balance  string             `json:"balance,omitempty"`
	Health   int                `json:"health"`
}

func newAgentResponse(v agent.View, s *state.Session) agentResponse {
	out := agentResponse{
		State:    v.State,
		RoleID:   v.RoleID,
		Detail:   v.Detail,
		Error:    v.ErrorMessage(),
		Wallet:   v.Wallet,
		Liveness: s.Liveness(),
	}
	if v.Detail != nil && v.Detail.Role != nil {
		out.Balance = mist.FormatFixed(v.Detail.Role.Balance, 3)
		out.Health = v.Detail.Role.HealthPercentage()
	}
	return out
}

// loadedSession returns the session of the route's role, loading it first
// if it never loaded.
func loadedSession(ctx context.Context, pool *state.SessionPool, roleID string) (*state.Session, error) {
	s := pool.Get(roleID)
	if s.View().Detail != nil {
		return s, nil
	}
	v := s.Load(ctx)
	if v.Detail == nil {
		if v.Err != nil {
			if errors.Is(v.Err, agent.ErrRoleNotFound) {
				pool.Remove(roleID)
			}
			return nil, v.Err
		}
		return nil, state.ErrNotLoaded
	}
	return s, nil
}

func (a *App) ListAgents(pool *state.SessionPool) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		ctx, cancel := a.requestContext()
		defer cancel()

		wallet := pool.Wallet()
		mine := c.QueryBool("mine", false)
		agents, err := a.config.Agents.ListAgents(ctx, wallet, mine)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{
			"agents": agents,
			"count":  len(agents),
			"wallet": wallet,
		})
	}
}

// GetAgent runs a fresh load of the agent on every call.
func (a *App) GetAgent(pool *state.SessionPool) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		ctx, cancel := a.requestContext()
		defer cancel()

		roleID := c.Params("roleId")
		s := pool.Get(roleID)
		v := s.Load(ctx)
		if v.Detail == nil && v.Err != nil {
			if errors.Is(v.Err, agent.ErrRoleNotFound) {
				pool.Remove(roleID)
			}
			return errorJSON(c, v.Err)
		}
		return c.JSON(newAgentResponse(v, s))
	}
}

type amountRequest struct {
	Amount string `json:"amount" form:"amount"`
}

func (a *App) Deposit(pool *state.SessionPool) func(c *fiber.Ctx) error {
	return a.transfer(pool, "deposit", (*state.Session).Deposit)
}

func (a *App) Withdraw(pool *state.SessionPool) func(c *fiber.Ctx) error {
	return a.transfer(pool, "withdraw", (*state.Session).Withdraw)
}

func (a *App) transfer(pool *state.SessionPool, op string, run func(*state.Session, context.Context, string) (string, error)) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		payload := amountRequest{}
		if err := c.BodyParser(&payload); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}

		ctx, cancel := a.requestContext()
		defer cancel()

		s, err := loadedSession(ctx, pool, c.Params("roleId"))
		if err != nil {
			return errorJSON(c, err)
		}
		digest, err := run(s, ctx, payload.Amount)
		if err != nil {
			xlog.Error("Transfer failed", "op", op, "role", s.RoleID(), "digest", digest, "error", err)
			return c.Status(errorStatus(err)).JSON(fiber.Map{
				"error":  err.Error(),
				"digest": digest,
			})
		}

		v := s.Load(ctx)
		return c.JSON(fiber.Map{
			"digest": digest,
			"agent":  newAgentResponse(v, s),
		})
	}
}

func (a *App) Mint() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		payload := agent.MintRequest{}
		if err := c.BodyParser(&payload); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}

		ctx, cancel := a.requestContext()
		defer cancel()

		res, err := a.config.Minter.Mint(ctx, payload)
		switch {
		case errors.Is(err, agent.ErrMappingFailed):
			return c.JSON(fiber.Map{
				"result":  res,
				"warning": err.Error(),
			})
		case err != nil:
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{"result": res})
	}
}
