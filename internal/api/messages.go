package api

import (
	"context"
	"fmt"
)

// CreateMessage persists a message in a dialog.
func (c *Client) CreateMessage(ctx context.Context, req MessageCreate) (*Message, error) {
	var msg Message
	if err := c.post(ctx, "/messages/", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListDialogMessages returns all messages of a dialog in server order.
func (c *Client) ListDialogMessages(ctx context.Context, dialogID int) ([]Message, error) {
	var msgs []Message
	if err := c.get(ctx, fmt.Sprintf("/messages/dialog/%d", dialogID), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
