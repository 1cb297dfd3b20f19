package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/adaptlearn/termtutor/internal/api"
	"github.com/adaptlearn/termtutor/internal/content"
	"github.com/adaptlearn/termtutor/internal/identity"
	sess "github.com/adaptlearn/termtutor/internal/session"
)

// fakeBackend implements both the orchestrator and loader backends with
// one in-memory quiz item.
type fakeBackend struct {
	recErr   error
	ended    bool
	messages []api.Message
}

func (f *fakeBackend) GetUser(_ context.Context, id int) (*api.User, error) {
	return &api.User{UserID: id, Username: "learner"}, nil
}

func (f *fakeBackend) CreateUser(_ context.Context, req api.UserCreate) (*api.User, error) {
	return &api.User{UserID: 1, Username: req.Username}, nil
}

func (f *fakeBackend) CreateDialog(_ context.Context, req api.DialogCreate) (*api.Dialog, error) {
	return &api.Dialog{DialogID: 7, UserID: req.UserID, DialogType: req.DialogType}, nil
}

func (f *fakeBackend) GetDialog(_ context.Context, id int) (*api.Dialog, error) {
	return &api.Dialog{DialogID: id}, nil
}

func (f *fakeBackend) EndDialog(_ context.Context, id int) (*api.Dialog, error) {
	f.ended = true
	return &api.Dialog{DialogID: id}, nil
}

func (f *fakeBackend) CreateMessage(_ context.Context, req api.MessageCreate) (*api.Message, error) {
	m := api.Message{
		MessageID:  int64(len(f.messages) + 1),
		DialogID:   req.DialogID,
		SenderType: req.SenderType,
		Content:    req.Content,
	}
	f.messages = append(f.messages, m)
	return &m, nil
}

func (f *fakeBackend) ListDialogMessages(_ context.Context, _ int) ([]api.Message, error) {
	return f.messages, nil
}

func (f *fakeBackend) NextRecommendation(_ context.Context, req api.RecommendationRequest) (*api.Recommendation, error) {
	if f.recErr != nil {
		return nil, f.recErr
	}
	return &api.Recommendation{
		Content:    api.ContentSummary{ContentID: 42, Title: "Capitals of Europe"},
		Reasoning:  "you are doing well on geography",
		Confidence: 0.9,
	}, nil
}

func (f *fakeBackend) GetContent(_ context.Context, id int) (*api.ContentItem, error) {
	return &api.ContentItem{
		ContentID:       id,
		Title:           "Capitals of Europe",
		Topic:           "geography",
		DifficultyLevel: "easy",
		ContentType:     api.ContentTypeQuiz,
		ContentData: map[string]any{
			"question": "What is the capital of France?",
			"options":  []any{"Paris", "London", "Berlin"},
		},
		ReferenceAnswer: "Paris",
		Hints:           []any{"It hosts the Eiffel Tower."},
	}, nil
}

func (f *fakeBackend) ListTopics(_ context.Context) ([]string, error) {
	return []string{"geography"}, nil
}

func (f *fakeBackend) GetRecommendationHistory(_ context.Context, userID int) (*api.RecommendationHistory, error) {
	return &api.RecommendationHistory{UserID: userID}, nil
}

func newTestScreen(t *testing.T, backend *fakeBackend) *SessionScreen {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	orch := sess.New(identity.Noop(), backend, content.NewLoader(backend), sess.Options{})
	return New(ctx, orch)
}

func letterKey(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

// initScreen runs the initialization command synchronously and feeds the
// result back into the screen.
func initScreen(t *testing.T, s *SessionScreen) {
	t.Helper()
	msg := s.initSession()()
	done, ok := msg.(initDoneMsg)
	if !ok {
		t.Fatalf("expected initDoneMsg, got %T", msg)
	}
	s.Update(done)
}

func TestInitEntersActiveWithChoices(t *testing.T) {
	s := newTestScreen(t, &fakeBackend{})
	initScreen(t, s)

	if s.orch.Phase() != sess.PhaseActive {
		t.Fatalf("phase = %v, want active", s.orch.Phase())
	}
	if !s.mcActive {
		t.Error("quiz with options should use the choice selector")
	}
	if len(s.choice.Options) != 3 {
		t.Errorf("options = %d, want 3", len(s.choice.Options))
	}

	view := s.View(100, 40)
	if !strings.Contains(view, "capital of France") {
		t.Errorf("view missing question text:\n%s", view)
	}
}

func TestInitFailureShowsRetry(t *testing.T) {
	s := newTestScreen(t, &fakeBackend{recErr: errors.New("engine offline")})
	initScreen(t, s)

	if s.orch.Phase() != sess.PhaseInitializationFailed {
		t.Fatalf("phase = %v, want initialization-failed", s.orch.Phase())
	}

	view := s.View(100, 40)
	if !strings.Contains(view, "Try again") {
		t.Errorf("failed view missing retry affordance:\n%s", view)
	}

	// R triggers the retry command.
	_, cmd := s.handleKey(letterKey('r'))
	if cmd == nil {
		t.Fatal("expected retry command")
	}
}

func TestRetryRecovers(t *testing.T) {
	backend := &fakeBackend{recErr: errors.New("engine offline")}
	s := newTestScreen(t, backend)
	initScreen(t, s)

	backend.recErr = nil
	_, cmd := s.handleKey(letterKey('r'))
	msg := cmd()
	s.Update(msg)

	if s.orch.Phase() != sess.PhaseActive {
		t.Fatalf("phase after retry = %v, want active", s.orch.Phase())
	}
}

func TestSubmitAnswerShowsVerdict(t *testing.T) {
	backend := &fakeBackend{}
	s := newTestScreen(t, backend)
	initScreen(t, s)

	// Option 1 is "Paris" — quick-select submits it.
	_, cmd := s.handleKey(letterKey('1'))
	if cmd == nil {
		t.Fatal("expected submit command")
	}
	msg := cmd()
	graded, ok := msg.(gradedMsg)
	if !ok {
		t.Fatalf("expected gradedMsg, got %T", msg)
	}
	if !graded.Correct {
		t.Error("Paris should grade correct")
	}
	if graded.PersistErr != nil {
		t.Errorf("persist err = %v", graded.PersistErr)
	}
	s.Update(msg)

	view := s.View(100, 40)
	if !strings.Contains(view, "Correct!") {
		t.Errorf("view missing verdict:\n%s", view)
	}
	if len(backend.messages) != 1 {
		t.Errorf("persisted messages = %d, want 1", len(backend.messages))
	}
}

func TestHintRevealBounded(t *testing.T) {
	s := newTestScreen(t, &fakeBackend{})
	initScreen(t, s)

	s.handleKey(letterKey('h'))
	if len(s.hints) != 1 {
		t.Fatalf("hints revealed = %d, want 1", len(s.hints))
	}

	// Only one hint exists; a second press reveals nothing.
	s.handleKey(letterKey('h'))
	if len(s.hints) != 1 {
		t.Errorf("hints revealed = %d, want 1", len(s.hints))
	}

	view := s.View(100, 40)
	if !strings.Contains(view, "Eiffel Tower") {
		t.Errorf("view missing hint text:\n%s", view)
	}
}

func TestQuitConfirmFlow(t *testing.T) {
	backend := &fakeBackend{}
	s := newTestScreen(t, backend)
	initScreen(t, s)

	s.handleKey(tea.KeyPressMsg{Code: tea.KeyEscape})
	if !s.confirmQuit {
		t.Fatal("esc should open the quit confirmation")
	}

	// N keeps the session going.
	s.handleKey(letterKey('n'))
	if s.confirmQuit {
		t.Fatal("n should dismiss the confirmation")
	}
	if s.orch.Phase() != sess.PhaseActive {
		t.Fatalf("phase = %v, want active", s.orch.Phase())
	}

	// Y ends the session.
	s.handleKey(tea.KeyPressMsg{Code: tea.KeyEscape})
	_, cmd := s.handleKey(letterKey('y'))
	if cmd == nil {
		t.Fatal("expected end command")
	}
	s.Update(cmd())

	if s.orch.Phase() != sess.PhaseEnded {
		t.Fatalf("phase = %v, want ended", s.orch.Phase())
	}
	if !backend.ended {
		t.Error("dialog was not ended on the backend")
	}
}

func TestNextAdvancesAndResetsHints(t *testing.T) {
	s := newTestScreen(t, &fakeBackend{})
	initScreen(t, s)

	s.handleKey(letterKey('h'))
	if len(s.hints) != 1 {
		t.Fatal("hint not revealed")
	}

	// Grade an answer so feedback is visible, then ask for the next item.
	_, cmd := s.handleKey(letterKey('1'))
	s.Update(cmd())

	_, cmd = s.handleKey(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected next command")
	}
	s.Update(cmd())

	if len(s.hints) != 0 {
		t.Errorf("hints not reset, got %d", len(s.hints))
	}
	if s.orch.Interaction().FeedbackVisible {
		t.Error("feedback should reset with new content")
	}
}
