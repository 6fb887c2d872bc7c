package webui

import (
	"context"
	"errors"

	"github.com/anemonelab/agenthub/core/cvm"
	"github.com/anemonelab/agenthub/core/state"
	fiber "github.com/gofiber/fiber/v2"
)

type cvmResponse struct {
	Section  cvm.Section  `json:"section,omitempty"`
	Data     any          `json:"data,omitempty"`
	Error    string       `json:"error,omitempty"`
	View     *cvm.View    `json:"cvm,omitempty"`
	Liveness cvm.Liveness `json:"liveness"`
}

func sectionData(v cvm.View, section cvm.Section) any {
	switch section {
	case cvm.Stats:
		if v.Stats != nil {
			return v.Stats
		}
	case cvm.Attestation:
		if v.Attestation != nil {
			return v.Attestation
		}
	case cvm.Composition:
		if v.Composition != nil {
			return v.Composition
		}
	}
	return nil
}

// CvmSection serves one tab. The section is fetched on first access and
// again when ?refresh=true.
func (a *App) CvmSection(pool *state.SessionPool) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		section, err := cvm.ParseSection(c.Params("section"))
		if err != nil {
			return errorJSON(c, err)
		}

		ctx, cancel := a.requestContext()
		defer cancel()

		s, err := loadedSession(ctx, pool, c.Params("roleId"))
		if err != nil {
			return errorJSON(c, err)
		}
		p, err := s.Cvm()
		if err != nil {
			return errorJSON(c, err)
		}

		if c.QueryBool("refresh", false) {
			err = p.Refresh(ctx, section)
		} else {
			err = p.EnsureLoaded(ctx, section)
		}
		view := p.View()
		data := sectionData(view, section)
		if err != nil && (data == nil || errors.Is(err, cvm.ErrNoAppID)) {
			return errorJSON(c, err)
		}

		out := cvmResponse{Section: section, Data: data, Liveness: s.Liveness()}
		if e := p.Err(section); e != nil {
			out.Error = e.Error()
		}
		return c.JSON(out)
	}
}

func (a *App) CvmRefresh(pool *state.SessionPool) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		ctx, cancel := a.requestContext()
		defer cancel()

		s, err := loadedSession(ctx, pool, c.Params("roleId"))
		if err != nil {
			return errorJSON(c, err)
		}
		p, err := s.Cvm()
		if err != nil {
			return errorJSON(c, err)
		}
		if err := p.RefreshAll(ctx); errors.Is(err, cvm.ErrNoAppID) {
			return errorJSON(c, err)
		}
		view := p.View()
		return c.JSON(cvmResponse{View: &view, Liveness: s.Liveness()})
	}
}

func (a *App) CvmStart(pool *state.SessionPool) func(c *fiber.Ctx) error {
	return a.cvmControl(pool, (*cvm.Poller).Start)
}

func (a *App) CvmStop(pool *state.SessionPool) func(c *fiber.Ctx) error {
	return a.cvmControl(pool, (*cvm.Poller).Stop)
}

func (a *App) cvmControl(pool *state.SessionPool, op func(*cvm.Poller, context.Context, bool) error) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		ctx, cancel := a.requestContext()
		defer cancel()

		s, err := loadedSession(ctx, pool, c.Params("roleId"))
		if err != nil {
			return errorJSON(c, err)
		}
		p, err := s.Cvm()
		if err != nil {
			return errorJSON(c, err)
		}
		if err := op(p, ctx, s.IsOwner()); err != nil {
			return errorJSON(c, err)
		}
		return statusJSONMessage(c, "ok")
	}
}
