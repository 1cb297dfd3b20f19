package session

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adaptlearn/termtutor/internal/api"
	"github.com/adaptlearn/termtutor/internal/content"
	"github.com/adaptlearn/termtutor/internal/identity"
)

// fakeBackend implements Backend with scriptable behavior and an
// in-memory message store.
type fakeBackend struct {
	mu sync.Mutex

	users        map[int]*api.User
	nextUserID   int
	dialogs      map[int]*api.Dialog
	nextDialogID int
	messages     []api.Message
	nextMsgID    int64

	recommendations []api.Recommendation
	recIndex        int
	recErr          error
	contents        map[int]*api.ContentItem
	contentErr      error
	createMsgErr    error

	recommendCalls int
	contentCalls   int
	contentGate    chan struct{} // when set, content loads park here
	contentStarted chan struct{} // signalled when a load reaches the gate
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		users:        map[int]*api.User{},
		nextUserID:   1,
		dialogs:      map[int]*api.Dialog{},
		nextDialogID: 1,
		nextMsgID:    1,
		contents:     map[int]*api.ContentItem{},
	}
}

func (f *fakeBackend) GetUser(_ context.Context, id int) (*api.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, &api.APIError{Message: "User not found", Status: http.StatusNotFound, Code: api.CodeHTTPError}
}

func (f *fakeBackend) CreateUser(_ context.Context, req api.UserCreate) (*api.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &api.User{UserID: f.nextUserID, Username: req.Username, Email: req.Email}
	f.users[u.UserID] = u
	f.nextUserID++
	return u, nil
}

func (f *fakeBackend) CreateDialog(_ context.Context, req api.DialogCreate) (*api.Dialog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := &api.Dialog{
		DialogID:   f.nextDialogID,
		UserID:     req.UserID,
		DialogType: req.DialogType,
		Topic:      req.Topic,
		StartedAt:  api.Timestamp{Time: time.Now().UTC()},
	}
	f.dialogs[d.DialogID] = d
	f.nextDialogID++
	return d, nil
}

func (f *fakeBackend) GetDialog(_ context.Context, id int) (*api.Dialog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.dialogs[id]; ok {
		return d, nil
	}
	return nil, &api.APIError{Message: "Dialog not found", Status: http.StatusNotFound, Code: api.CodeHTTPError}
}

func (f *fakeBackend) EndDialog(_ context.Context, id int) (*api.Dialog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dialogs[id]
	if !ok {
		return nil, &api.APIError{Message: "Dialog not found", Status: http.StatusNotFound, Code: api.CodeHTTPError}
	}
	ended := api.Timestamp{Time: time.Now().UTC()}
	d.EndedAt = &ended
	return d, nil
}

func (f *fakeBackend) CreateMessage(_ context.Context, req api.MessageCreate) (*api.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createMsgErr != nil {
		return nil, f.createMsgErr
	}
	m := api.Message{
		MessageID:  f.nextMsgID,
		DialogID:   req.DialogID,
		SenderType: req.SenderType,
		Content:    req.Content,
		Timestamp:  api.Timestamp{Time: time.Now().UTC()},
		ExtraData:  req.ExtraData,
	}
	f.nextMsgID++
	f.messages = append(f.messages, m)
	return &m, nil
}

func (f *fakeBackend) ListDialogMessages(_ context.Context, dialogID int) ([]api.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []api.Message
	for _, m := range f.messages {
		if m.DialogID == dialogID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeBackend) NextRecommendation(_ context.Context, _ api.RecommendationRequest) (*api.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recommendCalls++
	if f.recErr != nil {
		return nil, f.recErr
	}
	rec := f.recommendations[f.recIndex%len(f.recommendations)]
	f.recIndex++
	return &rec, nil
}

func (f *fakeBackend) GetContent(_ context.Context, id int) (*api.ContentItem, error) {
	f.mu.Lock()
	gate := f.contentGate
	started := f.contentStarted
	f.mu.Unlock()
	if gate != nil {
		if started != nil {
			started <- struct{}{}
		}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.contentCalls++
	if f.contentErr != nil {
		return nil, f.contentErr
	}
	if item, ok := f.contents[id]; ok {
		return item, nil
	}
	return nil, &api.APIError{Message: "Content item not found", Status: http.StatusNotFound, Code: api.CodeHTTPError}
}

func (f *fakeBackend) ListTopics(context.Context) ([]string, error) { return nil, nil }

func (f *fakeBackend) GetRecommendationHistory(context.Context, int) (*api.RecommendationHistory, error) {
	return nil, nil
}

func exerciseItem(id int, ref any) *api.ContentItem {
	return &api.ContentItem{
		ContentID:       id,
		Title:           "Sum it up",
		Topic:           "arithmetic",
		DifficultyLevel: "easy",
		Format:          "text",
		ContentType:     api.ContentTypeExercise,
		ContentData:     map[string]any{"question": "2 + 2 = ?"},
		ReferenceAnswer: ref,
		Hints:           []any{"think in pairs", "count on your fingers"},
	}
}

func recommending(ids ...int) []api.Recommendation {
	recs := make([]api.Recommendation, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, api.Recommendation{
			Content:    api.ContentSummary{ContentID: id},
			Reasoning:  "warm-up",
			Confidence: 0.9,
		})
	}
	return recs
}

func newTestOrchestrator(t *testing.T, backend *fakeBackend) *Orchestrator {
	t.Helper()
	return New(identity.Noop(), backend, content.NewLoader(backend), Options{})
}

func TestInitialize_FreshIdentity(t *testing.T) {
	backend := newFakeBackend()
	backend.recommendations = recommending(42)
	backend.contents[42] = exerciseItem(42, "4")

	o := newTestOrchestrator(t, backend)
	require.Equal(t, PhaseUninitialized, o.Phase())

	require.NoError(t, o.Initialize(context.Background()))

	require.Equal(t, PhaseActive, o.Phase())
	require.NotZero(t, o.DialogID())
	require.NotNil(t, o.Content())
	require.Equal(t, 42, o.Content().ContentID)
	require.NotNil(t, o.Synchronizer())
}

func TestInitialize_RestoresStoredDialog(t *testing.T) {
	backend := newFakeBackend()
	backend.recommendations = recommending(42)
	backend.contents[42] = exerciseItem(42, "4")

	store, err := identity.Open(t.TempDir() + "/id.db")
	require.NoError(t, err)
	defer store.Close()

	// A previous run left a user and dialog behind.
	user, _ := backend.CreateUser(context.Background(), api.UserCreate{Username: "learner"})
	dlg, _ := backend.CreateDialog(context.Background(), api.DialogCreate{UserID: user.UserID, DialogType: api.DialogTypeEducational})
	require.NoError(t, store.SaveUser(user.UserID))
	require.NoError(t, store.SaveDialog(dlg.DialogID))

	o := New(store, backend, content.NewLoader(backend), Options{})
	require.NoError(t, o.Initialize(context.Background()))
	require.Equal(t, dlg.DialogID, o.DialogID())
	require.Len(t, backend.dialogs, 1, "no new dialog should be created")
}

func TestInitialize_RecommendationFailureIsTerminal(t *testing.T) {
	backend := newFakeBackend()
	backend.recErr = &api.APIError{Message: "engine down", Status: 500, Code: api.CodeHTTPError}

	o := newTestOrchestrator(t, backend)
	err := o.Initialize(context.Background())
	require.Error(t, err)
	require.Equal(t, PhaseInitializationFailed, o.Phase())
	require.Error(t, o.InitError())
	require.Nil(t, o.Content())

	// Active operations are invalid from the failed state.
	_, err = o.SubmitAnswer(context.Background(), "4")
	require.ErrorIs(t, err, ErrNotActive)
	require.ErrorIs(t, o.RequestNext(context.Background()), ErrNotActive)
}

func TestRetry_ClearsStateAndRestarts(t *testing.T) {
	backend := newFakeBackend()
	backend.recErr = &api.APIError{Message: "engine down", Status: 500, Code: api.CodeHTTPError}

	store, err := identity.Open(t.TempDir() + "/id.db")
	require.NoError(t, err)
	defer store.Close()

	o := New(store, backend, content.NewLoader(backend), Options{})
	require.Error(t, o.Initialize(context.Background()))
	require.Equal(t, PhaseInitializationFailed, o.Phase())

	// Backend recovers before the retry.
	backend.mu.Lock()
	backend.recErr = nil
	backend.recommendations = recommending(42)
	backend.contents[42] = exerciseItem(42, "4")
	backend.mu.Unlock()

	require.NoError(t, o.Retry(context.Background()))
	require.Equal(t, PhaseActive, o.Phase())

	ident := store.Identity()
	require.NotNil(t, ident.DialogID, "retry created a fresh dialog")
	require.Equal(t, o.DialogID(), *ident.DialogID)
}

func TestSubmitAnswer_GradesAndPersists(t *testing.T) {
	backend := newFakeBackend()
	backend.recommendations = recommending(42)
	backend.contents[42] = exerciseItem(42, map[string]any{"correct_answer": "4"})

	o := newTestOrchestrator(t, backend)
	require.NoError(t, o.Initialize(context.Background()))

	correct, err := o.SubmitAnswer(context.Background(), "4")
	require.NoError(t, err)
	require.True(t, correct)

	inter := o.Interaction()
	require.NotNil(t, inter.IsCorrect)
	require.True(t, *inter.IsCorrect)
	require.True(t, inter.FeedbackVisible)
	require.Equal(t, "4", inter.SubmittedAnswer)

	msgs := o.Synchronizer().Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "4", msgs[0].Content)
	require.Equal(t, true, msgs[0].Extra["is_correct"])
	require.Equal(t, true, msgs[0].Extra["client_graded"])
}

func TestSubmitAnswer_PersistFailureSurfacedButVerdictStands(t *testing.T) {
	backend := newFakeBackend()
	backend.recommendations = recommending(42)
	backend.contents[42] = exerciseItem(42, "4")

	o := newTestOrchestrator(t, backend)
	require.NoError(t, o.Initialize(context.Background()))

	backend.mu.Lock()
	backend.createMsgErr = &api.APIError{Message: "no response from server", Code: api.CodeNetworkError}
	backend.mu.Unlock()

	correct, err := o.SubmitAnswer(context.Background(), "4")
	require.True(t, correct)
	apiErr := api.AsAPIError(err)
	require.NotNil(t, apiErr)
	require.Equal(t, api.CodeNetworkError, apiErr.Code)

	inter := o.Interaction()
	require.NotNil(t, inter.IsCorrect)
	require.True(t, *inter.IsCorrect)
	require.Empty(t, o.Synchronizer().Messages(), "failed send must roll back")
}

func TestRequestNext_AdvancesAndResetsInteraction(t *testing.T) {
	backend := newFakeBackend()
	backend.recommendations = recommending(42, 43)
	backend.contents[42] = exerciseItem(42, "4")
	backend.contents[43] = exerciseItem(43, "9")

	o := newTestOrchestrator(t, backend)
	require.NoError(t, o.Initialize(context.Background()))

	_, err := o.SubmitAnswer(context.Background(), "4")
	require.NoError(t, err)
	o.RequestHint()
	require.NotEqual(t, InteractionState{}, o.Interaction())

	require.NoError(t, o.RequestNext(context.Background()))
	require.Equal(t, 43, o.Content().ContentID)
	require.Equal(t, InteractionState{}, o.Interaction())
}

func TestRequestNext_ConcurrentCallRejected(t *testing.T) {
	backend := newFakeBackend()
	backend.recommendations = recommending(42, 43)
	backend.contents[42] = exerciseItem(42, "4")
	backend.contents[43] = exerciseItem(43, "9")

	o := newTestOrchestrator(t, backend)
	require.NoError(t, o.Initialize(context.Background()))

	gate := make(chan struct{})
	started := make(chan struct{}, 1)
	backend.mu.Lock()
	backend.contentGate = gate
	backend.contentStarted = started
	backend.mu.Unlock()

	firstDone := make(chan error, 1)
	go func() { firstDone <- o.RequestNext(context.Background()) }()
	<-started // first call is parked in its content load

	require.ErrorIs(t, o.RequestNext(context.Background()), ErrBusy)

	backend.mu.Lock()
	backend.contentGate = nil
	backend.contentStarted = nil
	backend.mu.Unlock()
	close(gate)

	require.NoError(t, <-firstDone)
	require.Equal(t, 43, o.Content().ContentID)
	// One load during init, exactly one for the advance.
	require.Equal(t, 2, backend.contentCalls)
}

func TestRequestHint_BoundedByHintCount(t *testing.T) {
	backend := newFakeBackend()
	backend.recommendations = recommending(42)
	backend.contents[42] = exerciseItem(42, "4")

	o := newTestOrchestrator(t, backend)
	require.NoError(t, o.Initialize(context.Background()))

	hint, ok := o.RequestHint()
	require.True(t, ok)
	require.Equal(t, "think in pairs", hint)

	_, ok = o.RequestHint()
	require.True(t, ok)

	_, ok = o.RequestHint()
	require.False(t, ok, "no hints remain")
	require.Equal(t, 2, o.Interaction().RevealedHintCount)
}

func TestEndSession_Terminal(t *testing.T) {
	backend := newFakeBackend()
	backend.recommendations = recommending(42)
	backend.contents[42] = exerciseItem(42, "4")

	store, err := identity.Open(t.TempDir() + "/id.db")
	require.NoError(t, err)
	defer store.Close()

	o := New(store, backend, content.NewLoader(backend), Options{})
	require.NoError(t, o.Initialize(context.Background()))
	dialogID := o.DialogID()
	require.Nil(t, backend.dialogs[dialogID].EndedAt)

	require.NoError(t, o.EndSession(context.Background()))
	require.Equal(t, PhaseEnded, o.Phase())
	require.NotNil(t, backend.dialogs[dialogID].EndedAt)

	ident := store.Identity()
	require.Nil(t, ident.DialogID)
	require.Nil(t, ident.SessionStartedAt)

	require.ErrorIs(t, o.RequestNext(context.Background()), ErrNotActive)
	_, err = o.SubmitAnswer(context.Background(), "4")
	require.ErrorIs(t, err, ErrNotActive)
	require.ErrorIs(t, o.EndSession(context.Background()), ErrNotActive)
}

func TestEndSession_LocalClearFailureStillEnds(t *testing.T) {
	backend := newFakeBackend()
	backend.recommendations = recommending(42)
	backend.contents[42] = exerciseItem(42, "4")

	store, err := identity.Open(t.TempDir() + "/id.db")
	require.NoError(t, err)

	o := New(store, backend, content.NewLoader(backend), Options{})
	require.NoError(t, o.Initialize(context.Background()))
	dialogID := o.DialogID()

	// The local store becomes unwritable before teardown.
	require.NoError(t, store.Close())

	err = o.EndSession(context.Background())
	require.Error(t, err, "clear failure must be surfaced")

	// The dialog is ended server-side, so the session ends regardless.
	require.Equal(t, PhaseEnded, o.Phase())
	require.NotNil(t, backend.dialogs[dialogID].EndedAt)
	require.ErrorIs(t, o.EndSession(context.Background()), ErrNotActive)
}

func TestInitialize_OnlyFromUninitialized(t *testing.T) {
	backend := newFakeBackend()
	backend.recommendations = recommending(42)
	backend.contents[42] = exerciseItem(42, "4")

	o := newTestOrchestrator(t, backend)
	require.NoError(t, o.Initialize(context.Background()))
	require.ErrorIs(t, o.Initialize(context.Background()), ErrAlreadyInitialized)
	require.ErrorIs(t, o.Retry(context.Background()), ErrNotFailed)
}

func TestInitialize_NeverActiveWithoutContent(t *testing.T) {
	backend := newFakeBackend()
	backend.recommendations = []api.Recommendation{{Reasoning: "broken"}} // no content id

	o := newTestOrchestrator(t, backend)
	err := o.Initialize(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, content.ErrNoContentID)
	require.Equal(t, PhaseInitializationFailed, o.Phase())
	require.Nil(t, o.Content())
}
