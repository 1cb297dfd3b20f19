package session

import "time"

// initDoneMsg is sent when session initialization finishes, successfully
// or not. Also reused for the retry flow.
type initDoneMsg struct {
	Err error
}

// nextDoneMsg is sent when a next-content request finishes.
type nextDoneMsg struct {
	Err error
}

// gradedMsg is sent after an answer has been graded and its persistence
// attempt finished. The verdict is valid even when PersistErr is set.
type gradedMsg struct {
	Correct    bool
	PersistErr error
}

// endDoneMsg is sent when the end-session request finishes.
type endDoneMsg struct {
	Err error
}

// transcriptTickMsg redraws the transcript so background poller updates
// become visible.
type transcriptTickMsg time.Time
