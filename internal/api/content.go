package api

import (
	"context"
	"fmt"
)

// GetContent fetches a full content record by id.
func (c *Client) GetContent(ctx context.Context, contentID int) (*ContentItem, error) {
	var item ContentItem
	if err := c.get(ctx, fmt.Sprintf("/content/%d", contentID), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListTopics returns the available content topics.
func (c *Client) ListTopics(ctx context.Context) ([]string, error) {
	var topics []string
	if err := c.get(ctx, "/content/topics", &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

// RandomContent fetches a random content item, optionally filtered by topic.
func (c *Client) RandomContent(ctx context.Context, topic string) (*ContentItem, error) {
	path := "/content/random"
	if topic != "" {
		path += "?topic=" + topic
	}
	var item ContentItem
	if err := c.get(ctx, path, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
