package api

import (
	"context"
	"fmt"
)

// CreateUser registers a new user.
func (c *Client) CreateUser(ctx context.Context, req UserCreate) (*User, error) {
	var user User
	if err := c.post(ctx, "/users/", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser fetches a user by id.
func (c *Client) GetUser(ctx context.Context, userID int) (*User, error) {
	var user User
	if err := c.get(ctx, fmt.Sprintf("/users/%d", userID), &user); err != nil {
		return nil, err
	}
	return &user, nil
}
