// Package session sequences one learning session: identity, dialog,
// recommendation, content, answers, and session end. It owns the phase
// state machine and the single-flight discipline for network steps.
package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adaptlearn/termtutor/internal/api"
	"github.com/adaptlearn/termtutor/internal/content"
	"github.com/adaptlearn/termtutor/internal/dialog"
	"github.com/adaptlearn/termtutor/internal/evaluate"
	"github.com/adaptlearn/termtutor/internal/identity"
)

// Backend is the slice of the gateway the orchestrator drives directly.
// The content loader and message synchronizer hold their own slices.
type Backend interface {
	GetUser(ctx context.Context, userID int) (*api.User, error)
	CreateUser(ctx context.Context, req api.UserCreate) (*api.User, error)
	CreateDialog(ctx context.Context, req api.DialogCreate) (*api.Dialog, error)
	GetDialog(ctx context.Context, dialogID int) (*api.Dialog, error)
	EndDialog(ctx context.Context, dialogID int) (*api.Dialog, error)
	dialog.Backend
}

// Options configure a session.
type Options struct {
	// Topic seeds recommendation requests (optional).
	Topic string

	// OverrideDifficulty / OverrideFormat pin the recommendation knobs
	// (optional; the adaptive engine decides when unset).
	OverrideDifficulty string
	OverrideFormat     string

	// PollInterval overrides the transcript refresh cadence (optional).
	PollInterval time.Duration
}

// Orchestrator drives one learning session end to end.
type Orchestrator struct {
	store   *identity.Store
	backend Backend
	loader  *content.Loader
	opts    Options

	mu          sync.Mutex
	phase       Phase
	busy        bool
	userID      int
	dialog      *api.Dialog
	rec         *api.Recommendation
	item        *api.ContentItem
	interaction InteractionState
	sync        *dialog.Synchronizer
	initErr     error
}

// New creates an Orchestrator. store may be a no-op identity store; the
// session then simply cannot be restored after a restart.
func New(store *identity.Store, backend Backend, loader *content.Loader, opts Options) *Orchestrator {
	return &Orchestrator{
		store:   store,
		backend: backend,
		loader:  loader,
		opts:    opts,
		phase:   PhaseUninitialized,
	}
}

// Phase returns the current lifecycle phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// InitError returns the error that moved the session into
// InitializationFailed, or nil.
func (o *Orchestrator) InitError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.initErr
}

// Content returns the currently loaded content item (nil before Active).
func (o *Orchestrator) Content() *api.ContentItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.item
}

// Recommendation returns the recommendation behind the current content.
func (o *Orchestrator) Recommendation() *api.Recommendation {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rec
}

// Interaction returns a copy of the current interaction state.
func (o *Orchestrator) Interaction() InteractionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.interaction
}

// Synchronizer returns the message synchronizer for the active dialog,
// nil before initialization completes.
func (o *Orchestrator) Synchronizer() *dialog.Synchronizer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sync
}

// DialogID returns the active dialog id, or 0.
func (o *Orchestrator) DialogID() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.dialog == nil {
		return 0
	}
	return o.dialog.DialogID
}

// acquire takes the single-flight slot if the phase matches.
func (o *Orchestrator) acquire(want Phase, wantErr error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != want {
		return wantErr
	}
	if o.busy {
		return ErrBusy
	}
	o.busy = true
	return nil
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	o.busy = false
	o.mu.Unlock()
}

// Initialize establishes the session: restores or creates identity and
// dialog, requests the first recommendation and loads its content.
// Uninitialized → Initializing → Active, or → InitializationFailed on
// any step failure (terminal until Retry).
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.mu.Lock()
	if o.phase != PhaseUninitialized {
		o.mu.Unlock()
		return ErrAlreadyInitialized
	}
	if o.busy {
		o.mu.Unlock()
		return ErrBusy
	}
	o.busy = true
	o.phase = PhaseInitializing
	o.initErr = nil
	o.mu.Unlock()
	defer o.release()

	if err := o.initialize(ctx); err != nil {
		o.mu.Lock()
		o.phase = PhaseInitializationFailed
		o.initErr = err
		o.mu.Unlock()
		return err
	}

	o.mu.Lock()
	o.phase = PhaseActive
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) initialize(ctx context.Context) error {
	ident := o.store.Identity()

	userID, err := o.ensureUser(ctx, ident.UserID)
	if err != nil {
		return fmt.Errorf("establish user: %w", err)
	}

	var dlg *api.Dialog
	if ident.DialogID != nil {
		dlg, err = o.backend.GetDialog(ctx, *ident.DialogID)
		if err != nil {
			return fmt.Errorf("restore dialog %d: %w", *ident.DialogID, err)
		}
	} else {
		dlg, err = o.backend.CreateDialog(ctx, api.DialogCreate{
			UserID:     userID,
			DialogType: api.DialogTypeEducational,
			Topic:      o.opts.Topic,
		})
		if err != nil {
			return fmt.Errorf("create dialog: %w", err)
		}
		// Persistence failures degrade to a non-restorable session.
		_ = o.store.SaveDialog(dlg.DialogID)
		_ = o.store.SaveSessionStart(dlg.StartedAt.Time)
	}

	rec, err := o.loader.Recommend(ctx, userID, &dlg.DialogID, o.recommendOptions())
	if err != nil {
		return fmt.Errorf("first recommendation: %w", err)
	}
	item, err := o.loader.Load(ctx, rec.Content.ContentID)
	if err != nil {
		return fmt.Errorf("load content %d: %w", rec.Content.ContentID, err)
	}

	syncer := dialog.NewSynchronizer(o.backend, dlg.DialogID)
	if o.opts.PollInterval > 0 {
		syncer.SetPollInterval(o.opts.PollInterval)
	}
	// Transcript load is best-effort; the poller reconciles later.
	_ = syncer.Refresh(ctx)

	o.mu.Lock()
	o.userID = userID
	o.dialog = dlg
	o.rec = rec
	o.item = item
	o.sync = syncer
	o.interaction = InteractionState{}
	o.mu.Unlock()
	return nil
}

// ensureUser verifies the stored user exists, creating one on first run.
func (o *Orchestrator) ensureUser(ctx context.Context, storedID int) (int, error) {
	user, err := o.backend.GetUser(ctx, storedID)
	if err == nil {
		_ = o.store.SaveUser(user.UserID)
		return user.UserID, nil
	}

	apiErr := api.AsAPIError(err)
	if apiErr == nil || apiErr.Status != http.StatusNotFound {
		return 0, err
	}

	suffix := uuid.NewString()[:8]
	created, err := o.backend.CreateUser(ctx, api.UserCreate{
		Username: "learner-" + suffix,
		Email:    fmt.Sprintf("learner-%s@termtutor.local", suffix),
		Password: uuid.NewString(),
	})
	if err != nil {
		return 0, err
	}
	_ = o.store.SaveUser(created.UserID)
	return created.UserID, nil
}

// Retry recovers from a failed initialization: clears local session
// state and restarts from Uninitialized.
func (o *Orchestrator) Retry(ctx context.Context) error {
	o.mu.Lock()
	if o.phase != PhaseInitializationFailed {
		o.mu.Unlock()
		return ErrNotFailed
	}
	o.phase = PhaseUninitialized
	o.initErr = nil
	o.dialog = nil
	o.rec = nil
	o.item = nil
	o.sync = nil
	o.mu.Unlock()

	if err := o.store.ClearSession(); err != nil {
		return err
	}
	return o.Initialize(ctx)
}

// SubmitAnswer grades text against the current content's reference
// answer, records the result in the interaction state, and persists the
// exchange as a dialog message. The local verdict stands even when
// persistence fails; the persistence error is surfaced to the caller.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, text string) (bool, error) {
	if err := o.acquire(PhaseActive, ErrNotActive); err != nil {
		return false, err
	}
	defer o.release()

	o.mu.Lock()
	item := o.item
	syncer := o.sync
	hintsUsed := o.interaction.RevealedHintCount
	o.mu.Unlock()

	correct := evaluate.Evaluate(text, item.ReferenceAnswer)

	o.mu.Lock()
	o.interaction.SubmittedAnswer = text
	o.interaction.IsCorrect = &correct
	o.interaction.FeedbackVisible = true
	o.mu.Unlock()

	extra := map[string]any{
		"content_id":    item.ContentID,
		"is_correct":    correct,
		"hints_used":    hintsUsed,
		"client_graded": true,
	}
	if _, err := syncer.Send(ctx, text, extra); err != nil {
		return correct, err
	}
	return correct, nil
}

// RequestNext fetches a fresh recommendation and its content, then
// resets the interaction state. The previous content stays current if
// any step fails.
func (o *Orchestrator) RequestNext(ctx context.Context) error {
	if err := o.acquire(PhaseActive, ErrNotActive); err != nil {
		return err
	}
	defer o.release()

	o.mu.Lock()
	userID := o.userID
	dlg := o.dialog
	o.mu.Unlock()
	if dlg == nil {
		return ErrNotActive
	}

	rec, err := o.loader.Recommend(ctx, userID, &dlg.DialogID, o.recommendOptions())
	if err != nil {
		return err
	}
	item, err := o.loader.Load(ctx, rec.Content.ContentID)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.rec = rec
	o.item = item
	o.interaction = InteractionState{}
	o.mu.Unlock()
	return nil
}

// RequestHint reveals the next hint of the current content. Purely
// local. Returns the hint text and false when none remain.
func (o *Orchestrator) RequestHint() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseActive || o.item == nil {
		return "", false
	}
	if o.interaction.RevealedHintCount >= len(o.item.Hints) {
		return "", false
	}
	hint := o.item.Hints[o.interaction.RevealedHintCount]
	o.interaction.RevealedHintCount++
	return content.HintText(hint), true
}

// EndSession ends the dialog on the backend and clears the local
// session state. Active → Ending → Ended; Ended is terminal. The caller
// is responsible for user confirmation before invoking it.
func (o *Orchestrator) EndSession(ctx context.Context) error {
	o.mu.Lock()
	if o.phase != PhaseActive {
		o.mu.Unlock()
		return ErrNotActive
	}
	if o.busy {
		o.mu.Unlock()
		return ErrBusy
	}
	o.busy = true
	o.phase = PhaseEnding
	dlg := o.dialog
	o.mu.Unlock()
	defer o.release()

	ended, err := o.backend.EndDialog(ctx, dlg.DialogID)
	if err != nil {
		apiErr := api.AsAPIError(err)
		// A dialog already ended server-side must not wedge teardown.
		if apiErr == nil || (apiErr.Status != http.StatusNotFound && apiErr.Status != http.StatusConflict) {
			o.mu.Lock()
			o.phase = PhaseActive
			o.mu.Unlock()
			return err
		}
	}

	// The dialog is ended server-side; the session is over regardless of
	// whether the local clear sticks, so the phase advances either way.
	clearErr := o.store.ClearSession()

	o.mu.Lock()
	o.phase = PhaseEnded
	if ended != nil {
		o.dialog = ended
	}
	o.mu.Unlock()
	return clearErr
}

func (o *Orchestrator) recommendOptions() content.RecommendOptions {
	return content.RecommendOptions{
		Topic:              o.opts.Topic,
		OverrideDifficulty: o.opts.OverrideDifficulty,
		OverrideFormat:     o.opts.OverrideFormat,
	}
}
