package webui

import (
	"errors"
	"net/http"

	"github.com/anemonelab/agenthub/core/skills"
	"github.com/anemonelab/agenthub/core/state"
	"github.com/anemonelab/agenthub/core/types"
	"github.com/anemonelab/agenthub/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/mudler/xlog"
)

type commitResponse struct {
	Outcome skills.Outcome  `json:"outcome"`
	Digest  string          `json:"digest,omitempty"`
	Error   string          `json:"error,omitempty"`
	Skills  skills.Snapshot `json:"skills"`
}

type skillDetailResponse struct {
	Skill     *types.Skill `json:"skill"`
	DocURL    string       `json:"doc_url,omitempty"`
	DocHTML   string       `json:"doc_html,omitempty"`
	DocError  string       `json:"doc_error,omitempty"`
	DockerURL string       `json:"docker_url,omitempty"`
}

// withReconciler runs fn against the skill reconciler of the route's role
// and answers with its snapshot.
func (a *App) withReconciler(pool *state.SessionPool, fn func(c *fiber.Ctx, r *skills.Reconciler) error) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		ctx, cancel := a.requestContext()
		defer cancel()

		s, err := loadedSession(ctx, pool, c.Params("roleId"))
		if err != nil {
			return errorJSON(c, err)
		}
		r := s.Skills()
		if fn != nil {
			c.SetUserContext(ctx)
			if err := fn(c, r); err != nil {
				return errorJSON(c, err)
			}
		}
		return c.JSON(r.Snapshot())
	}
}

func (a *App) AgentSkills(pool *state.SessionPool) func(c *fiber.Ctx) error {
	return a.withReconciler(pool, nil)
}

func (a *App) EditSkills(pool *state.SessionPool) func(c *fiber.Ctx) error {
	return a.withReconciler(pool, func(c *fiber.Ctx, r *skills.Reconciler) error {
		return r.EnterEdit(c.UserContext())
	})
}

func (a *App) ToggleSkill(pool *state.SessionPool) func(c *fiber.Ctx) error {
	return a.withReconciler(pool, func(c *fiber.Ctx, r *skills.Reconciler) error {
		payload := struct {
			SkillID string `json:"skill_id" form:"skill_id"`
		}{}
		if err := c.BodyParser(&payload); err != nil || payload.SkillID == "" {
			return skills.ErrInvalidSkill
		}
		return r.Toggle(payload.SkillID)
	})
}

func (a *App) CancelSkills(pool *state.SessionPool) func(c *fiber.Ctx) error {
	return a.withReconciler(pool, func(c *fiber.Ctx, r *skills.Reconciler) error {
		r.Cancel()
		return nil
	})
}

func (a *App) RefreshSkills(pool *state.SessionPool) func(c *fiber.Ctx) error {
	return a.withReconciler(pool, func(c *fiber.Ctx, r *skills.Reconciler) error {
		return r.Refresh(c.UserContext())
	})
}

func (a *App) CommitSkills(pool *state.SessionPool) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		ctx, cancel := a.requestContext()
		defer cancel()

		s, err := loadedSession(ctx, pool, c.Params("roleId"))
		if err != nil {
			return errorJSON(c, err)
		}

		res := s.Skills().Commit(ctx)
		status := http.StatusOK
		switch res.Outcome {
		case skills.Committed:
			s.Load(ctx)
		case skills.Uncertain:
			status = http.StatusAccepted
		case skills.Rejected:
			status = errorStatus(res.Err)
		}

		out := commitResponse{
			Outcome: res.Outcome,
			Digest:  res.Digest,
			Skills:  s.Skills().Snapshot(),
		}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		return c.Status(status).JSON(out)
	}
}

func (a *App) ListSkills() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		ctx, cancel := a.requestContext()
		defer cancel()

		list, err := a.config.Catalog.Load(ctx)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{
			"skills": list,
			"count":  len(list),
		})
	}
}

func (a *App) skillDetail(c *fiber.Ctx) (*skillDetailResponse, error) {
	ctx, cancel := a.requestContext()
	defer cancel()

	skill, err := a.config.Catalog.Get(ctx, c.Params("id"))
	if err != nil {
		return nil, err
	}
	out := &skillDetailResponse{Skill: skill}
	if skill.DockerImage != "" {
		out.DockerURL = utils.DockerHubURL(skill.DockerImage)
	}
	if skill.Doc != "" {
		out.DocURL = utils.DocURL(skill.Doc)
		md, err := utils.FetchDoc(ctx, a.config.DocClient, skill.Doc)
		if err != nil {
			xlog.Warn("Could not load skill document", "skill", skill.ObjectID, "error", err)
			out.DocError = err.Error()
		} else {
			out.DocHTML = utils.MarkdownToHTML(md)
		}
	}
	return out, nil
}

func (a *App) GetSkill() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		out, err := a.skillDetail(c)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(out)
	}
}

func (a *App) CreateSkill() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		payload := state.SkillConfig{}
		if err := c.BodyParser(&payload); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		params, err := payload.Params()
		if err != nil {
			return errorJSON(c, err)
		}

		ctx, cancel := a.requestContext()
		defer cancel()

		res, err := a.config.Publisher.Publish(ctx, params)
		switch {
		case errors.Is(err, skills.ErrNotRegistered):
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

func (a *App) DeleteSkill() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		ctx, cancel := a.requestContext()
		defer cancel()

		if err := a.config.Publisher.Unpublish(ctx, c.Params("id")); err != nil {
			return errorJSON(c, err)
		}
		return statusJSONMessage(c, "ok")
	}
}
