package webui

import (
	"context"
	"net/http"
	"strings"

	"github.com/anemonelab/agenthub/core/conversations"
	fiber "github.com/gofiber/fiber/v2"
)

type chatRequest struct {
	Message string `json:"message" form:"message"`
}

// relay records the user message, asks the agent and records its reply or
// the failure.
func (a *App) relay(ctx context.Context, roleID, message string) (conversations.Message, conversations.Message, error) {
	question := a.conversations.AddMessage(roleID, conversations.RoleUser, message)
	resp, err := a.config.Chat.SendMessage(ctx, roleID, message)
	if err != nil {
		return question, a.conversations.AddError(roleID, err), err
	}
	return question, a.conversations.AddMessage(roleID, conversations.RoleAssistant, resp.Text), nil
}

func (a *App) Chat() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		payload := chatRequest{}
		if err := c.BodyParser(&payload); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		message := strings.TrimSpace(payload.Message)
		if message == "" {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Message cannot be empty"})
		}

		ctx, cancel := a.requestContext()
		defer cancel()

		roleID := c.Params("roleId")
		_, reply, err := a.relay(ctx, roleID, message)
		if err != nil {
			return c.Status(errorStatus(err)).JSON(fiber.Map{
				"error": err.Error(),
				"reply": reply,
			})
		}
		return c.JSON(fiber.Map{
			"reply":        reply,
			"conversation": a.conversations.GetConversation(roleID),
		})
	}
}

func (a *App) Conversation() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		roleID := c.Params("roleId")
		return c.JSON(fiber.Map{
			"role_id":      roleID,
			"conversation": a.conversations.GetConversation(roleID),
		})
	}
}

// ChatFragment answers the chat form of the agent page with the HTML of
// the exchanged messages.
func (a *App) ChatFragment() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		payload := chatRequest{}
		if err := c.BodyParser(&payload); err != nil {
			return c.Status(http.StatusBadRequest).SendString("invalid request")
		}
		message := strings.TrimSpace(payload.Message)
		if message == "" {
			_, _ = c.Write([]byte("Please enter a message."))
			return nil
		}

		ctx, cancel := a.requestContext()
		defer cancel()

		question, reply, _ := a.relay(ctx, c.Params("roleId"), message)
		c.Set("Content-Type", "text/html")
		return c.SendString(chatDiv(question) + chatDiv(reply))
	}
}
