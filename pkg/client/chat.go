package client

import (
	"context"
	"net/http"
)

// Message is a chat message addressed to a role
type Message struct {
	RoleID  string `json:"roleId"`
	Message string `json:"message"`
}

// ChatResponse represents a response from the agent
type ChatResponse struct {
	Text string `json:"text"`
}

// SendMessage relays a message to the agent of a role and returns its
// reply.
func (c *Client) SendMessage(ctx context.Context, roleID, message string) (*ChatResponse, error) {
	var out struct {
		Response *ChatResponse `json:"response"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/chat", Message{RoleID: roleID, Message: message}, &out); err != nil {
		return nil, err
	}
	if out.Response == nil {
		return &ChatResponse{}, nil
	}
	return out.Response, nil
}
