// Package session (screens/session) is the interactive learning view: it
// drives the session orchestrator from key events and renders content,
// answers, hints, and the dialog transcript.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/adaptlearn/termtutor/internal/api"
	"github.com/adaptlearn/termtutor/internal/screen"
	sess "github.com/adaptlearn/termtutor/internal/session"
	"github.com/adaptlearn/termtutor/internal/ui/components"
	"github.com/adaptlearn/termtutor/internal/ui/layout"
)

// SessionScreen implements screen.Screen for the active learning session.
type SessionScreen struct {
	orch *sess.Orchestrator

	// ctx bounds every backend call and the transcript poller; the app
	// cancels it on teardown.
	ctx context.Context

	input       components.TextInput
	choice      components.MultiChoice
	mcActive    bool
	hints       []string
	statusMsg   string
	confirmQuit bool
	pollStarted bool
}

var _ screen.Screen = (*SessionScreen)(nil)
var _ screen.KeyHintProvider = (*SessionScreen)(nil)

// New creates a SessionScreen around an orchestrator that has not been
// initialized yet.
func New(ctx context.Context, orch *sess.Orchestrator) *SessionScreen {
	return &SessionScreen{
		orch:  orch,
		ctx:   ctx,
		input: components.NewTextInput("Type your answer...", 200),
	}
}

func (s *SessionScreen) Init() tea.Cmd {
	return tea.Batch(
		s.initSession(),
		s.input.Init(),
	)
}

func (s *SessionScreen) Title() string {
	return "Learning Session"
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	switch s.orch.Phase() {
	case sess.PhaseInitializationFailed:
		return []layout.KeyHint{
			{Key: "R", Description: "Try again"},
			{Key: "Esc", Description: "Quit"},
		}
	case sess.PhaseEnded:
		return []layout.KeyHint{
			{Key: "any key", Description: "Exit"},
		}
	case sess.PhaseActive:
	default:
		return nil
	}

	if s.confirmQuit {
		return []layout.KeyHint{
			{Key: "Y", Description: "End session"},
			{Key: "N", Description: "Keep going"},
		}
	}
	if s.orch.Interaction().FeedbackVisible {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Next"},
			{Key: "Esc", Description: "Quit"},
		}
	}
	if !s.answerable() {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Next"},
			{Key: "Esc", Description: "Quit"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Submit"},
	}
	if s.hintAvailable() {
		if s.mcActive {
			hints = append(hints, layout.KeyHint{Key: "H", Description: "Hint"})
		} else {
			hints = append(hints, layout.KeyHint{Key: "Ctrl+H", Description: "Hint"})
		}
	}
	if s.mcActive {
		hints = append(hints, layout.KeyHint{Key: "↑↓", Description: "Select"})
	}
	hints = append(hints, layout.KeyHint{Key: "Esc", Description: "Quit"})
	return hints
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case initDoneMsg:
		return s.handleInitDone(msg)

	case nextDoneMsg:
		return s.handleNextDone(msg)

	case gradedMsg:
		return s.handleGraded(msg)

	case endDoneMsg:
		return s.handleEndDone(msg)

	case transcriptTickMsg:
		return s.handleTranscriptTick()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	// Forward everything else to the focused answer input.
	if s.textInputActive() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}

	return s, nil
}

// initSession runs the full initialization sequence off the UI loop.
func (s *SessionScreen) initSession() tea.Cmd {
	return func() tea.Msg {
		return initDoneMsg{Err: s.orch.Initialize(s.ctx)}
	}
}

func (s *SessionScreen) retrySession() tea.Cmd {
	return func() tea.Msg {
		return initDoneMsg{Err: s.orch.Retry(s.ctx)}
	}
}

func (s *SessionScreen) requestNext() tea.Cmd {
	return func() tea.Msg {
		return nextDoneMsg{Err: s.orch.RequestNext(s.ctx)}
	}
}

func (s *SessionScreen) submitCmd(answer string) tea.Cmd {
	return func() tea.Msg {
		correct, err := s.orch.SubmitAnswer(s.ctx, answer)
		return gradedMsg{Correct: correct, PersistErr: err}
	}
}

func (s *SessionScreen) endSession() tea.Cmd {
	return func() tea.Msg {
		return endDoneMsg{Err: s.orch.EndSession(s.ctx)}
	}
}

func (s *SessionScreen) handleInitDone(msg initDoneMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		// The orchestrator holds the failure; the view reads it directly.
		return s, nil
	}
	if !s.pollStarted {
		// The poller lives for the rest of the session; the app cancels
		// the context on teardown.
		s.orch.Synchronizer().Start(s.ctx)
		s.pollStarted = true
	}
	s.setupAnswerUI()
	return s, tea.Batch(s.input.Init(), transcriptTick())
}

func (s *SessionScreen) handleNextDone(msg nextDoneMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		// The previous content stays on screen.
		if errors.Is(msg.Err, sess.ErrBusy) {
			s.statusMsg = "Still working on the previous request..."
		} else {
			s.statusMsg = "Couldn't fetch the next item: " + errorText(msg.Err)
		}
		return s, nil
	}
	s.setupAnswerUI()
	return s, s.input.Init()
}

func (s *SessionScreen) handleGraded(msg gradedMsg) (screen.Screen, tea.Cmd) {
	if errors.Is(msg.PersistErr, sess.ErrBusy) || errors.Is(msg.PersistErr, sess.ErrNotActive) {
		// Rejected before grading; re-arm the answer input.
		wasMC := s.mcActive
		s.setupAnswerUI()
		s.statusMsg = "Another request is in flight, try again"
		if !wasMC {
			return s, s.input.Init()
		}
		return s, nil
	}

	if s.mcActive {
		s.choice.Grade(msg.Correct)
	} else {
		s.input.Submit(msg.Correct)
	}
	if msg.PersistErr != nil {
		// The verdict stands; only the transcript write failed.
		s.statusMsg = "Couldn't save your answer: " + errorText(msg.PersistErr)
	}
	return s, nil
}

func (s *SessionScreen) handleEndDone(msg endDoneMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		if errors.Is(msg.Err, sess.ErrBusy) {
			s.statusMsg = "Still working, try again in a moment"
		} else {
			s.statusMsg = "Couldn't end the session: " + errorText(msg.Err)
		}
		return s, nil
	}
	return s, nil
}

func (s *SessionScreen) handleTranscriptTick() (screen.Screen, tea.Cmd) {
	// The tick only exists to redraw; the poller mutates the transcript
	// in the background.
	if s.orch.Phase() == sess.PhaseActive || s.orch.Phase() == sess.PhaseEnding {
		return s, transcriptTick()
	}
	return s, nil
}

func (s *SessionScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	switch s.orch.Phase() {
	case sess.PhaseUninitialized, sess.PhaseInitializing, sess.PhaseEnding:
		if key == "esc" {
			return s, tea.Quit
		}
		return s, nil

	case sess.PhaseInitializationFailed:
		switch key {
		case "r", "R":
			return s, s.retrySession()
		case "esc", "q":
			return s, tea.Quit
		}
		return s, nil

	case sess.PhaseEnded:
		return s, tea.Quit
	}

	// Active phase from here on.
	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.confirmQuit = false
			return s, s.endSession()
		case "n", "N", "esc":
			s.confirmQuit = false
			return s, nil
		}
		return s, nil
	}

	if key == "esc" {
		s.confirmQuit = true
		return s, nil
	}

	if s.orch.Interaction().FeedbackVisible || !s.answerable() {
		switch key {
		case "enter", "n":
			s.statusMsg = ""
			return s, s.requestNext()
		}
		return s, nil
	}

	// Awaiting an answer.
	switch key {
	case "enter":
		return s.submitAnswer()
	case "ctrl+h":
		s.revealHint()
		return s, nil
	}

	if s.mcActive {
		switch key {
		case "h", "H":
			s.revealHint()
			return s, nil
		case "up", "k":
			var cmd tea.Cmd
			s.choice, cmd = s.choice.Update(msg)
			return s, cmd
		case "down", "j":
			var cmd tea.Cmd
			s.choice, cmd = s.choice.Update(msg)
			return s, cmd
		case "1", "2", "3", "4":
			idx := int(key[0] - '1')
			if idx < len(s.choice.Options) {
				s.choice.Selected = idx
				return s.submitAnswer()
			}
			return s, nil
		}
		return s, nil
	}

	// Forward to the text input.
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// submitAnswer grades the current answer asynchronously.
func (s *SessionScreen) submitAnswer() (screen.Screen, tea.Cmd) {
	var answer string
	if s.mcActive {
		answer = s.choice.Choose()
	} else {
		answer = strings.TrimSpace(s.input.Value())
	}
	if answer == "" {
		return s, nil
	}
	s.statusMsg = ""
	return s, s.submitCmd(answer)
}

// revealHint uncovers the next hint, if any remain.
func (s *SessionScreen) revealHint() {
	if hint, ok := s.orch.RequestHint(); ok {
		s.hints = append(s.hints, hint)
	}
}

// setupAnswerUI rebuilds the answer components for the current content.
func (s *SessionScreen) setupAnswerUI() {
	s.hints = nil
	s.statusMsg = ""
	s.mcActive = false

	item := s.orch.Content()
	if item == nil || !s.answerable() {
		return
	}
	if opts := contentOptions(item); len(opts) > 0 {
		s.mcActive = true
		s.choice = components.NewMultiChoice("", opts)
		return
	}
	s.input = components.NewTextInput("Type your answer...", 200)
}

// answerable reports whether the current content expects an answer.
func (s *SessionScreen) answerable() bool {
	item := s.orch.Content()
	if item == nil {
		return false
	}
	switch item.ContentType {
	case api.ContentTypeExercise, api.ContentTypeQuiz:
		return true
	}
	return false
}

func (s *SessionScreen) hintAvailable() bool {
	item := s.orch.Content()
	if item == nil {
		return false
	}
	return len(s.hints) < len(item.Hints)
}

func (s *SessionScreen) textInputActive() bool {
	return s.orch.Phase() == sess.PhaseActive &&
		!s.confirmQuit &&
		!s.mcActive &&
		s.answerable() &&
		!s.orch.Interaction().FeedbackVisible
}

// contentOptions extracts selectable options from the content payload.
func contentOptions(item *api.ContentItem) []string {
	raw, ok := item.ContentData["options"].([]any)
	if !ok {
		return nil
	}
	opts := make([]string, 0, len(raw))
	for _, o := range raw {
		if s, ok := o.(string); ok {
			opts = append(opts, s)
		}
	}
	return opts
}

func errorText(err error) string {
	if apiErr := api.AsAPIError(err); apiErr != nil {
		return apiErr.Message
	}
	return err.Error()
}

// transcriptTick returns a 1-second redraw command.
func transcriptTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return transcriptTickMsg(t)
	})
}
