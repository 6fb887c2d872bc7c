package webui

import (
	"crypto/subtle"
	"errors"

	"github.com/anemonelab/agenthub/core/sse"
	"github.com/anemonelab/agenthub/core/state"
	"github.com/dave-gray101/v2keyauth"
	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
)

func (app *App) registerRoutes(pool *state.SessionPool, webapp *fiber.App) {
	if len(app.config.ApiKeys) > 0 {
		kaConfig, err := GetKeyAuthConfig(app.config.ApiKeys)
		if err != nil || kaConfig == nil {
			panic(err)
		}
		webapp.Use(v2keyauth.New(*kaConfig))
	}

	webapp.Get("/", app.HubPage(pool))
	webapp.Get("/agent/:roleId", app.AgentPage(pool))
	webapp.Get("/skills", app.SkillsPage())
	webapp.Get("/skill/:id", app.SkillPage())
	webapp.Post("/agent/:roleId/chat", app.ChatFragment())

	webapp.Get("/sse/balance/:roleId", func(c *fiber.Ctx) error {
		m := pool.GetManager(c.Params("roleId"))
		if m == nil {
			return c.SendStatus(404)
		}

		m.Handle(c, sse.NewClient())
		return nil
	})

	webapp.Get("/api/agents", app.ListAgents(pool))
	webapp.Post("/api/agent/mint", app.Mint())
	webapp.Get("/api/agent/:roleId", app.GetAgent(pool))
	webapp.Post("/api/agent/:roleId/refresh", app.GetAgent(pool))
	webapp.Post("/api/agent/:roleId/deposit", app.Deposit(pool))
	webapp.Post("/api/agent/:roleId/withdraw", app.Withdraw(pool))

	webapp.Get("/api/agent/:roleId/skills", app.AgentSkills(pool))
	webapp.Post("/api/agent/:roleId/skills/edit", app.EditSkills(pool))
	webapp.Post("/api/agent/:roleId/skills/toggle", app.ToggleSkill(pool))
	webapp.Post("/api/agent/:roleId/skills/cancel", app.CancelSkills(pool))
	webapp.Post("/api/agent/:roleId/skills/commit", app.CommitSkills(pool))
	webapp.Post("/api/agent/:roleId/skills/refresh", app.RefreshSkills(pool))

	webapp.Get("/api/agent/:roleId/cvm/:section", app.CvmSection(pool))
	webapp.Post("/api/agent/:roleId/cvm/refresh", app.CvmRefresh(pool))
	webapp.Post("/api/agent/:roleId/cvm/start", app.CvmStart(pool))
	webapp.Post("/api/agent/:roleId/cvm/stop", app.CvmStop(pool))

	webapp.Post("/api/chat/:roleId", app.Chat())
	webapp.Get("/api/chat/:roleId", app.Conversation())

	webapp.Get("/api/skills", app.ListSkills())
	webapp.Post("/api/skill", app.CreateSkill())
	webapp.Get("/api/skill/:id", app.GetSkill())
	webapp.Delete("/api/skill/:id", app.DeleteSkill())

	webapp.Get("/api/meta/agent", func(c *fiber.Ctx) error {
		return c.JSON(state.NewMintFormMeta())
	})
	webapp.Get("/api/meta/skill", func(c *fiber.Ctx) error {
		return c.JSON(state.NewSkillFormMeta())
	})
}

func GetKeyAuthConfig(apiKeys []string) (*v2keyauth.Config, error) {
	customLookup, err := v2keyauth.MultipleKeySourceLookup([]string{"header:Authorization", "header:x-api-key", "cookie:token"}, keyauth.ConfigDefault.AuthScheme)
	if err != nil {
		return nil, err
	}

	return &v2keyauth.Config{
		CustomKeyLookup: customLookup,
		Next:            func(c *fiber.Ctx) bool { return false },
		Validator:       getApiKeyValidationFunction(apiKeys),
		ErrorHandler:    getApiKeyErrorHandler(false, apiKeys),
		AuthScheme:      "Bearer",
	}, nil
}

func getApiKeyErrorHandler(opaqueErrors bool, apiKeys []string) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		if errors.Is(err, v2keyauth.ErrMissingOrMalformedAPIKey) {
			if len(apiKeys) == 0 {
				return ctx.Next() // if no keys are set up, any error we get here is not an error.
			}
			ctx.Set("WWW-Authenticate", "Bearer")
			if opaqueErrors {
				return ctx.SendStatus(401)
			}
			return ctx.Status(401).Render("views/login", fiber.Map{})
		}
		if opaqueErrors {
			return ctx.SendStatus(500)
		}
		return err
	}
}

func getApiKeyValidationFunction(apiKeys []string) func(*fiber.Ctx, string) (bool, error) {
	return func(ctx *fiber.Ctx, apiKey string) (bool, error) {
		if len(apiKeys) == 0 {
			return true, nil // If no keys are setup, accept everything
		}
		for _, validKey := range apiKeys {
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(validKey)) == 1 {
				return true, nil
			}
		}
		return false, v2keyauth.ErrMissingOrMalformedAPIKey
	}
}
