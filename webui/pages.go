package webui

import (
	"html/template"

	"github.com/anemonelab/agenthub/core/state"
	fiber "github.com/gofiber/fiber/v2"
)

func (a *App) HubPage(pool *state.SessionPool) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		ctx, cancel := a.requestContext()
		defer cancel()

		wallet := pool.Wallet()
		mine := c.QueryBool("mine", false)
		agents, err := a.config.Agents.ListAgents(ctx, wallet, mine)
		if err != nil {
			return c.Status(errorStatus(err)).Render("views/error", fiber.Map{"Error": err.Error()})
		}
		return c.Render("views/index", fiber.Map{
			"Agents": agents,
			"Wallet": wallet,
			"Mine":   mine,
		})
	}
}

func (a *App) AgentPage(pool *state.SessionPool) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		ctx, cancel := a.requestContext()
		defer cancel()

		roleID := c.Params("roleId")
		s := pool.Get(roleID)
		v := s.Load(ctx)
		if v.Detail == nil {
			err := v.Err
			if err == nil {
				err = state.ErrNotLoaded
			}
			pool.Remove(roleID)
			return c.Status(errorStatus(err)).Render("views/error", fiber.Map{"Error": err.Error()})
		}
		snapshot := s.Skills().Snapshot()
		return c.Render("views/agent", fiber.Map{
			"Agent":        newAgentResponse(v, s),
			"Detail":       v.Detail,
			"Skills":       snapshot,
			"SkillsHTML":   template.HTML(skillBadges(snapshot.Skills)),
			"Conversation": a.conversations.GetConversation(roleID),
		})
	}
}

func (a *App) SkillsPage() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		ctx, cancel := a.requestContext()
		defer cancel()

		list, err := a.config.Catalog.Load(ctx)
		if err != nil {
			return c.Status(errorStatus(err)).Render("views/error", fiber.Map{"Error": err.Error()})
		}
		return c.Render("views/skills", fiber.Map{
			"Skills": list,
			"Form":   state.NewSkillFormMeta(),
		})
	}
}

func (a *App) SkillPage() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		out, err := a.skillDetail(c)
		if err != nil {
			return c.Status(errorStatus(err)).Render("views/error", fiber.Map{"Error": err.Error()})
		}
		return c.Render("views/skill", fiber.Map{
			"Skill":     out.Skill,
			"DocURL":    out.DocURL,
			"DocHTML":   template.HTML(out.DocHTML),
			"DocError":  out.DocError,
			"DockerURL": out.DockerURL,
		})
	}
}
