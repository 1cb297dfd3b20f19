package api

import (
	"context"
	"fmt"
)

// CreateDialog opens a new dialog for the user.
func (c *Client) CreateDialog(ctx context.Context, req DialogCreate) (*Dialog, error) {
	var dialog Dialog
	if err := c.post(ctx, "/dialogs/", req, &dialog); err != nil {
		return nil, err
	}
	return &dialog, nil
}

// GetDialog fetches a dialog by id.
func (c *Client) GetDialog(ctx context.Context, dialogID int) (*Dialog, error) {
	var dialog Dialog
	if err := c.get(ctx, fmt.Sprintf("/dialogs/%d", dialogID), &dialog); err != nil {
		return nil, err
	}
	return &dialog, nil
}

// EndDialog marks the dialog as ended and returns it with ended_at set.
func (c *Client) EndDialog(ctx context.Context, dialogID int) (*Dialog, error) {
	var dialog Dialog
	if err := c.patch(ctx, fmt.Sprintf("/dialogs/%d/end", dialogID), nil, &dialog); err != nil {
		return nil, err
	}
	return &dialog, nil
}
