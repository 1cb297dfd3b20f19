package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Timestamp unmarshals both RFC 3339 and the backend's naive
// "2006-01-02T15:04:05" datetimes (FastAPI omits the zone on
// naive columns). Naive values are taken as UTC.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339))
}

// User mirrors the backend UserResponse schema.
type User struct {
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// UserCreate is the POST /users request body.
type UserCreate struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Dialog is one learning-session conversation container.
type Dialog struct {
	DialogID   int            `json:"dialog_id"`
	UserID     int            `json:"user_id"`
	DialogType string         `json:"dialog_type"`
	Topic      string         `json:"topic,omitempty"`
	StartedAt  Timestamp      `json:"started_at"`
	EndedAt    *Timestamp     `json:"ended_at"`
	ExtraData  map[string]any `json:"extra_data,omitempty"`
}

// Dialog types accepted by the backend.
const (
	DialogTypeEducational = "educational"
	DialogTypeTest        = "test"
	DialogTypeAssessment  = "assessment"
	DialogTypeReflective  = "reflective"
)

// DialogCreate is the POST /dialogs request body.
type DialogCreate struct {
	UserID     int    `json:"user_id"`
	DialogType string `json:"dialog_type"`
	Topic      string `json:"topic,omitempty"`
}

// Sender types for dialog messages.
const (
	SenderUser   = "user"
	SenderSystem = "system"
)

// Message mirrors the backend MessageResponse schema.
type Message struct {
	MessageID  int64          `json:"message_id"`
	DialogID   int            `json:"dialog_id"`
	SenderType string         `json:"sender_type"`
	Content    string         `json:"content"`
	IsQuestion bool           `json:"is_question"`
	Timestamp  Timestamp      `json:"timestamp"`
	ExtraData  map[string]any `json:"extra_data,omitempty"`
}

// MessageCreate is the POST /messages request body.
type MessageCreate struct {
	DialogID   int            `json:"dialog_id"`
	SenderType string         `json:"sender_type"`
	Content    string         `json:"content"`
	IsQuestion bool           `json:"is_question"`
	ExtraData  map[string]any `json:"extra_data,omitempty"`
}

// ContentItem is a full content record. ContentData's schema varies by
// ContentType/Format; ReferenceAnswer's shape varies per item (string,
// keyed object or list) and is classified at evaluation time.
type ContentItem struct {
	ContentID       int            `json:"content_id"`
	Title           string         `json:"title"`
	Topic           string         `json:"topic"`
	Subtopic        string         `json:"subtopic,omitempty"`
	DifficultyLevel string         `json:"difficulty_level"`
	Format          string         `json:"format"`
	ContentType     string         `json:"content_type"`
	ContentData     map[string]any `json:"content_data"`
	ReferenceAnswer any            `json:"reference_answer"`
	Hints           []any          `json:"hints"`
	Explanations    []any          `json:"explanations"`
	Skills          []string       `json:"skills"`
	Prerequisites   []string       `json:"prerequisites"`
	ExtraData       map[string]any `json:"extra_data,omitempty"`
}

// Content type and format enums (backend-validated).
const (
	ContentTypeLesson      = "lesson"
	ContentTypeExercise    = "exercise"
	ContentTypeQuiz        = "quiz"
	ContentTypeExplanation = "explanation"
)

// ContentSummary is the content envelope inside a recommendation.
type ContentSummary struct {
	ContentID       int    `json:"content_id"`
	Title           string `json:"title"`
	Topic           string `json:"topic"`
	Subtopic        string `json:"subtopic,omitempty"`
	DifficultyLevel string `json:"difficulty_level"`
	Format          string `json:"format"`
	ContentType     string `json:"content_type"`
}

// RecommendationRequest is the POST /recommendations/next request body.
// SessionContext carries optional override knobs (override_difficulty,
// override_format) and a client-generated correlation id.
type RecommendationRequest struct {
	UserID         int            `json:"user_id"`
	CurrentTopic   string         `json:"current_topic,omitempty"`
	SessionContext map[string]any `json:"session_context,omitempty"`
}

// Recommendation is the adaptive engine's answer: which content to show
// next and why. Transient by contract — never cached client-side.
type Recommendation struct {
	Content      ContentSummary `json:"content"`
	Reasoning    string         `json:"reasoning"`
	Confidence   float64        `json:"confidence"`
	StrategyUsed string         `json:"strategy_used"`
	Metadata     map[string]any `json:"recommendation_metadata,omitempty"`
	Timestamp    Timestamp      `json:"timestamp"`
}

// RecommendationHistory is the GET /recommendations/history response.
type RecommendationHistory struct {
	UserID          int              `json:"user_id"`
	Recommendations []Recommendation `json:"recommendations"`
	Total           int              `json:"total"`
}
