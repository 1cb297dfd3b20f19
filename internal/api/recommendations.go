package api

import (
	"context"
	"fmt"
)

// NextRecommendation asks the adaptive engine for the next content to
// present. This is a mutation: every call reflects fresh server-side
// user state and must not be cached.
func (c *Client) NextRecommendation(ctx context.Context, req RecommendationRequest) (*Recommendation, error) {
	var rec Recommendation
	if err := c.post(ctx, "/recommendations/next", req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetRecommendationHistory returns past recommendations for a user.
func (c *Client) GetRecommendationHistory(ctx context.Context, userID int) (*RecommendationHistory, error) {
	var hist RecommendationHistory
	if err := c.get(ctx, fmt.Sprintf("/recommendations/history?user_id=%d", userID), &hist); err != nil {
		return nil, err
	}
	return &hist, nil
}
