// Package dialog maintains the ordered message list of one dialog:
// optimistic local writes, reconciliation with server truth, rollback on
// failure, and a polling refresh for asynchronously generated system
// messages.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/adaptlearn/termtutor/internal/api"
)

// MaxContentLen bounds user message length, mirroring the backend's
// validation so obviously invalid sends never hit the network.
const MaxContentLen = 4000

// DefaultPollInterval is the background refresh cadence.
const DefaultPollInterval = 5 * time.Second

// ErrSendInFlight is returned when a Send is attempted while another
// send is still unconfirmed. The UI assumes at most one optimistic
// message outstanding per dialog.
var ErrSendInFlight = errors.New("dialog: a send is already in flight")

// ValidationError reports a locally rejected message, before any
// network call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "dialog: " + e.Reason
}

// Backend is the slice of the gateway the synchronizer needs.
type Backend interface {
	CreateMessage(ctx context.Context, req api.MessageCreate) (*api.Message, error)
	ListDialogMessages(ctx context.Context, dialogID int) ([]api.Message, error)
}

// Synchronizer owns the in-memory message list for one dialog. All
// mutations go through its methods; the list is never written from
// outside.
type Synchronizer struct {
	backend      Backend
	dialogID     int
	pollInterval time.Duration
	now          func() time.Time

	mu          sync.Mutex
	messages    []Message
	nextLocalID int64
	sending     bool
	// generation fences refreshes against mutations: a refresh only
	// applies if no mutation happened since it started.
	generation uint64
}

// NewSynchronizer creates a Synchronizer for the given dialog.
func NewSynchronizer(backend Backend, dialogID int) *Synchronizer {
	s := &Synchronizer{
		backend:      backend,
		dialogID:     dialogID,
		pollInterval: DefaultPollInterval,
		now:          time.Now,
		nextLocalID:  -1,
	}
	return s
}

// SetPollInterval overrides the background refresh cadence. Must be
// called before Start.
func (s *Synchronizer) SetPollInterval(d time.Duration) {
	if d > 0 {
		s.pollInterval = d
	}
}

// Messages returns a copy of the current ordered list.
func (s *Synchronizer) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Pending reports whether an optimistic send is awaiting confirmation.
func (s *Synchronizer) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// Send appends an optimistic message immediately, then persists it. On
// success the authoritative list is refetched and replaces the
// optimistic entry. On failure the list is rolled back to the exact
// snapshot taken before the optimistic append and the error is returned.
func (s *Synchronizer) Send(ctx context.Context, content string, extra map[string]any) (Message, error) {
	if strings.TrimSpace(content) == "" {
		return Message{}, &ValidationError{Reason: "message content cannot be empty"}
	}
	if len(content) > MaxContentLen {
		return Message{}, &ValidationError{Reason: fmt.Sprintf("message exceeds %d characters", MaxContentLen)}
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return Message{}, ErrSendInFlight
	}
	s.sending = true
	// The mutation supersedes any refresh already in flight.
	s.generation++

	snapshot := make([]Message, len(s.messages))
	copy(snapshot, s.messages)

	optimistic := Message{
		ID:        s.nextLocalID,
		DialogID:  s.dialogID,
		Sender:    api.SenderUser,
		Content:   content,
		Timestamp: s.now(),
		Extra:     extra,
		Pending:   true,
	}
	s.nextLocalID--
	s.messages = append(s.messages, optimistic)
	sortByTimestamp(s.messages)
	s.mu.Unlock()

	confirmed, err := s.backend.CreateMessage(ctx, api.MessageCreate{
		DialogID:   s.dialogID,
		SenderType: api.SenderUser,
		Content:    content,
		ExtraData:  extra,
	})
	if err != nil {
		s.mu.Lock()
		s.messages = snapshot
		s.generation++
		s.sending = false
		s.mu.Unlock()
		return Message{}, err
	}

	// The refetched list, not the optimistic entry, is the source of
	// truth going forward.
	fresh, refetchErr := s.backend.ListDialogMessages(ctx, s.dialogID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.sending = false

	if refetchErr != nil {
		// Persist succeeded but the refetch did not: swap the optimistic
		// entry for the confirmed message and let the next refresh
		// reconcile the rest.
		for i := range s.messages {
			if s.messages[i].ID == optimistic.ID {
				s.messages[i] = fromWire(*confirmed)
			}
		}
		sortByTimestamp(s.messages)
		return fromWire(*confirmed), nil
	}

	s.messages = fromWireList(fresh)
	return fromWire(*confirmed), nil
}

// Refresh refetches the authoritative list. The result is discarded if
// a mutation began after the refresh started, or if a send is still in
// flight when the result arrives, so a fetch can never erase an
// optimistic append before its round-trip completes.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	started := s.generation
	s.mu.Unlock()

	fresh, err := s.backend.ListDialogMessages(ctx, s.dialogID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != started || s.sending {
		// Superseded by a send, or one is mid-flight; its refetch owns
		// the list now.
		return nil
	}
	s.messages = fromWireList(fresh)
	return nil
}

// Start launches the background poller. It stops when ctx is cancelled;
// the caller owns the context and must cancel it on teardown.
func (s *Synchronizer) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// Poll errors are transient by nature; the next tick
				// retries.
				_ = s.Refresh(ctx)
			}
		}
	}()
}
