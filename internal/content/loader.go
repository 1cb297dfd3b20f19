// Package content fetches recommendations and content records from the
// backend. Recommendations are never cached (they depend on mutable
// server-side user state); content records are near-immutable and are
// cached aggressively by id.
package content

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/adaptlearn/termtutor/internal/api"
)

// Backend is the slice of the gateway the loader needs.
type Backend interface {
	NextRecommendation(ctx context.Context, req api.RecommendationRequest) (*api.Recommendation, error)
	GetContent(ctx context.Context, contentID int) (*api.ContentItem, error)
	ListTopics(ctx context.Context) ([]string, error)
	GetRecommendationHistory(ctx context.Context, userID int) (*api.RecommendationHistory, error)
}

// ErrNoContentID indicates a recommendation arrived without a content id.
var ErrNoContentID = fmt.Errorf("recommendation carries no content id")

// RecommendOptions are the optional knobs on a recommendation request.
type RecommendOptions struct {
	Topic              string
	OverrideDifficulty string // easy, normal, hard, challenge
	OverrideFormat     string // text, visual, video, interactive
}

// Loader wraps the backend with recommendation and content access.
type Loader struct {
	backend Backend

	// clientSessionID correlates recommendation requests from one client
	// run in the backend's session context.
	clientSessionID string

	mu    sync.Mutex
	cache map[int]*api.ContentItem
}

// NewLoader creates a Loader over the given backend.
func NewLoader(backend Backend) *Loader {
	return &Loader{
		backend:         backend,
		clientSessionID: uuid.NewString(),
		cache:           make(map[int]*api.ContentItem),
	}
}

// Recommend requests the next content recommendation for the user.
// Always a fresh network call; a failure here is fatal to the current
// step and propagates unchanged.
func (l *Loader) Recommend(ctx context.Context, userID int, dialogID *int, opts RecommendOptions) (*api.Recommendation, error) {
	sessionContext := map[string]any{
		"client_session_id": l.clientSessionID,
	}
	if dialogID != nil {
		sessionContext["dialog_id"] = *dialogID
	}
	if opts.OverrideDifficulty != "" {
		sessionContext["override_difficulty"] = opts.OverrideDifficulty
	}
	if opts.OverrideFormat != "" {
		sessionContext["override_format"] = opts.OverrideFormat
	}

	rec, err := l.backend.NextRecommendation(ctx, api.RecommendationRequest{
		UserID:         userID,
		CurrentTopic:   opts.Topic,
		SessionContext: sessionContext,
	})
	if err != nil {
		return nil, err
	}
	if rec.Content.ContentID == 0 {
		return nil, ErrNoContentID
	}
	return rec, nil
}

// Load fetches the full content record for contentID, from cache when
// possible. Load failures never poison the cache: a retry after a
// transient error hits the network again.
func (l *Loader) Load(ctx context.Context, contentID int) (*api.ContentItem, error) {
	l.mu.Lock()
	if item, ok := l.cache[contentID]; ok {
		l.mu.Unlock()
		return item, nil
	}
	l.mu.Unlock()

	item, err := l.backend.GetContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if err := validatePayload(item); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[contentID] = item
	l.mu.Unlock()
	return item, nil
}

// Topics lists the available content topics.
func (l *Loader) Topics(ctx context.Context) ([]string, error) {
	return l.backend.ListTopics(ctx)
}

// History returns past recommendations for the user.
func (l *Loader) History(ctx context.Context, userID int) (*api.RecommendationHistory, error) {
	return l.backend.GetRecommendationHistory(ctx, userID)
}

// HintText renders one entry of a content item's hints list. Hints are
// authored loosely: bare strings or objects with a text/hint field.
func HintText(hint any) string {
	switch v := hint.(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"text", "hint", "description"} {
			if s, ok := v[key].(string); ok {
				return s
			}
		}
	}
	return fmt.Sprintf("%v", hint)
}
