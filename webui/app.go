package webui

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/Masterminds/sprig/v3"
	"github.com/anemonelab/agenthub/core/agent"
	"github.com/anemonelab/agenthub/core/chain"
	"github.com/anemonelab/agenthub/core/conversations"
	"github.com/anemonelab/agenthub/core/cvm"
	"github.com/anemonelab/agenthub/core/skills"
	"github.com/anemonelab/agenthub/core/state"
	"github.com/anemonelab/agenthub/core/types"
	"github.com/anemonelab/agenthub/pkg/client"
	"github.com/anemonelab/agenthub/pkg/mist"
	"github.com/anemonelab/agenthub/pkg/utils"
	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/mudler/xlog"
)

//go:embed views/*.html views/partials/*.html
var viewsfs embed.FS

// AgentLister lists the agent hub.
type AgentLister interface {
	ListAgents(ctx context.Context, wallet string, mine bool) ([]types.AgentSummary, error)
}

// ChatBackend relays chat messages to agents.
type ChatBackend interface {
	SendMessage(ctx context.Context, roleID, message string) (*client.ChatResponse, error)
}

type (
	App struct {
		config        *Config
		conversations *conversations.ConversationTracker[string]
		*fiber.App
	}
)

func NewApp(opts ...Option) *App {
	config := NewConfig(opts...)
	engine := html.NewFileSystem(http.FS(viewsfs), ".html")
	engine.AddFuncMap(sprig.FuncMap())
	engine.AddFuncMap(viewFuncs)

	webapp := fiber.New(fiber.Config{
		Views:                 engine,
		DisableStartupMessage: true,
	})

	a := &App{
		config:        config,
		conversations: conversations.NewConversationTracker[string](config.ConversationDuration),
		App:           webapp,
	}

	a.registerRoutes(config.Pool, webapp)

	return a
}

var viewFuncs = map[string]any{
	"sui":        mist.FormatBalance,
	"fee":        mist.FormatFee,
	"shortID":    utils.ShortID,
	"docURL":     utils.DocURL,
	"dockerURL":  utils.DockerHubURL,
	"htmlify":    func(s string) template.HTML { return template.HTML(utils.HTMLify(template.HTMLEscapeString(s))) },
	"uptime":     types.FormatUptime,
	"bytesToGB":  types.BytesToGB,
	"healthPct":  func(r *types.RoleData) int { return r.HealthPercentage() },
	"percentage": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
}

// requestContext bounds the work of a handler. Closing the connection does
// not cancel it: chain submissions must be awaited once sent.
func (a *App) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.config.RequestTimeout)
}

func errorJSONMessage(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusInternalServerError).JSON(struct {
		Error string `json:"error"`
	}{Error: message})
}

func statusJSONMessage(c *fiber.Ctx, message string) error {
	return c.JSON(struct {
		Status string `json:"status"`
	}{Status: message})
}

// errorJSON responds with the status errorStatus picks for err.
func errorJSON(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		xlog.Error("Request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(struct {
		Error string `json:"error"`
	}{Error: err.Error()})
}

func errorStatus(err error) int {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, agent.ErrRoleNotFound),
		errors.Is(err, client.ErrNotFound),
		errors.Is(err, chain.ErrMalformed):
		return http.StatusNotFound
	case errors.Is(err, cvm.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, chain.ErrWalletNotConnected),
		errors.Is(err, skills.ErrMissingNFT),
		errors.Is(err, skills.ErrNotEditing),
		errors.Is(err, skills.ErrSubmitting),
		errors.Is(err, cvm.ErrNoAppID),
		errors.Is(err, state.ErrNotLoaded):
		return http.StatusConflict
	case errors.Is(err, mist.ErrInvalidAmount),
		errors.Is(err, mist.ErrTooPrecise),
		errors.Is(err, agent.ErrInvalidMint),
		errors.Is(err, skills.ErrInvalidSkill),
		errors.Is(err, cvm.ErrUnknownSection):
		return http.StatusBadRequest
	case errors.Is(err, chain.ErrTransactionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, chain.ErrUncertainOutcome),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
