package apiclient

import (
	"context"
	"net/http"
)

type chatRequest struct {
	Message string `json:"message" validate:"required"`
}

type wireChatReply struct {
	Reply string `json:"reply" validate:"required"`
}

// Chat sends one message to the school assistant and returns its reply
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	req := chatRequest{Message: message}
	if err := checkPayload("chat", req); err != nil {
		return "", err
	}
	var w wireChatReply
	if err := c.sendJSON(ctx, http.MethodPost, "/api/chat", "/api/chat", req, &w); err != nil {
		return "", err
	}
	if err := checkPayload("chat reply", w); err != nil {
		return "", err
	}
	return w.Reply, nil
}
