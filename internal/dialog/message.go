package dialog

import (
	"sort"
	"time"

	"github.com/adaptlearn/termtutor/internal/api"
)

// Message is one entry of the dialog transcript. Two provenances exist:
// confirmed messages carry the server-assigned positive id; optimistic
// messages carry a client-local negative id and Pending=true until the
// server round-trip completes.
type Message struct {
	ID         int64
	DialogID   int
	Sender     string
	Content    string
	IsQuestion bool
	Timestamp  time.Time
	Extra      map[string]any
	Pending    bool
}

func fromWire(m api.Message) Message {
	return Message{
		ID:         m.MessageID,
		DialogID:   m.DialogID,
		Sender:     m.SenderType,
		Content:    m.Content,
		IsQuestion: m.IsQuestion,
		Timestamp:  m.Timestamp.Time,
		Extra:      m.ExtraData,
	}
}

func fromWireList(ms []api.Message) []Message {
	out := make([]Message, 0, len(ms))
	for _, m := range ms {
		out = append(out, fromWire(m))
	}
	sortByTimestamp(out)
	return out
}

// sortByTimestamp orders messages ascending by timestamp, stable for
// equal stamps so insertion order is preserved.
func sortByTimestamp(ms []Message) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].Timestamp.Before(ms[j].Timestamp)
	})
}
