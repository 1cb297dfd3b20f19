package session

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/adaptlearn/termtutor/internal/api"
	"github.com/adaptlearn/termtutor/internal/dialog"
	sess "github.com/adaptlearn/termtutor/internal/session"
	"github.com/adaptlearn/termtutor/internal/ui/components"
	"github.com/adaptlearn/termtutor/internal/ui/theme"
)

const transcriptTail = 4

func (s *SessionScreen) View(width, height int) string {
	switch s.orch.Phase() {
	case sess.PhaseUninitialized, sess.PhaseInitializing:
		return renderLoading(width)
	case sess.PhaseInitializationFailed:
		return renderInitFailed(width, s.orch.InitError())
	case sess.PhaseEnding:
		return centeredDim(width, "\n\n\n  Wrapping up your session...")
	case sess.PhaseEnded:
		return s.renderEnded(width)
	}

	if s.confirmQuit {
		return renderQuitConfirm(width)
	}
	return s.renderActive(width, height)
}

// renderActive renders the content card, answer area, and transcript.
func (s *SessionScreen) renderActive(width, height int) string {
	item := s.orch.Content()
	if item == nil {
		return centeredDim(width, "\n\n  Fetching your next item...")
	}

	var b strings.Builder

	// Info line: title left, topic / difficulty / format right.
	infoLeft := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render("  " + item.Title)

	meta := item.Topic
	if item.Subtopic != "" {
		meta += " / " + item.Subtopic
	}
	infoRight := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("%s  [%s · %s]", meta, item.DifficultyLevel, item.ContentType))

	infoLine := infoLeft
	rightPad := width - lipgloss.Width(infoLeft) - lipgloss.Width(infoRight) - 4
	if rightPad > 0 {
		infoLine += strings.Repeat(" ", rightPad) + infoRight
	}

	b.WriteString(infoLine)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	// Content body.
	bodyStyle := lipgloss.NewStyle().
		Width(min(width-8, 76)).
		Foreground(theme.Text)
	body := bodyStyle.Render(contentBody(item))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, body))
	b.WriteString("\n\n")

	// Answer area.
	interaction := s.orch.Interaction()
	if s.answerable() {
		if s.mcActive {
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.choice.View()))
		} else {
			answerLine := lipgloss.NewStyle().
				Width(width).
				Align(lipgloss.Center).
				Render("Answer: " + s.input.View())
			b.WriteString(answerLine)
		}
		b.WriteString("\n")
	}

	// Revealed hints.
	if len(s.hints) > 0 {
		b.WriteString("\n")
		for i, hint := range s.hints {
			line := theme.Hint.Render(fmt.Sprintf("Hint %d: %s", i+1, hint))
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, line))
			b.WriteString("\n")
		}
	}

	// Feedback after grading.
	if interaction.FeedbackVisible && interaction.IsCorrect != nil {
		b.WriteString("\n")
		if *interaction.IsCorrect {
			b.WriteString(centered(width, theme.Correct.Render("Correct!")))
		} else {
			b.WriteString(centered(width, theme.Incorrect.Render("Not quite")))
			if ref := referenceText(item.ReferenceAnswer); ref != "" {
				b.WriteString("\n")
				b.WriteString(centeredDim(width, "Expected: "+ref))
			}
		}
		b.WriteString("\n")
		b.WriteString(centeredDim(width, "Press Enter for the next item"))
		b.WriteString("\n")
	}

	// Transient status (persist failures and the like).
	if s.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Error).Render(s.statusMsg)))
		b.WriteString("\n")
	}

	// Why this item: confidence bar + reasoning.
	if rec := s.orch.Recommendation(); rec != nil {
		b.WriteString("\n")
		bar := components.NewProgressBar("Confidence", rec.Confidence, true, min(width-8, 48))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
		if rec.Reasoning != "" {
			b.WriteString("\n")
			reasoning := theme.Hint.Width(min(width-8, 76)).Render(rec.Reasoning)
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, reasoning))
		}
		b.WriteString("\n")
	}

	// Transcript tail.
	if syncer := s.orch.Synchronizer(); syncer != nil {
		if tail := renderTranscript(syncer.Messages(), width); tail != "" {
			b.WriteString("\n")
			b.WriteString(tail)
		}
	}

	return b.String()
}

// renderTranscript renders the last few dialog messages.
func renderTranscript(msgs []dialog.Message, width int) string {
	if len(msgs) == 0 {
		return ""
	}
	start := len(msgs) - transcriptTail
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	b.WriteString("  " + lipgloss.NewStyle().Foreground(theme.TextDim).Render("— conversation —"))
	b.WriteString("\n")
	for _, m := range msgs[start:] {
		who := "tutor"
		style := lipgloss.NewStyle().Foreground(theme.Secondary)
		if m.Sender == api.SenderUser {
			who = "you"
			style = lipgloss.NewStyle().Foreground(theme.Text)
		}
		line := fmt.Sprintf("  %s  %s",
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(who+":"),
			style.Render(truncate(m.Content, max(width-20, 10))),
		)
		if m.Pending {
			line += " " + theme.PendingMark.Render("…sending")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// contentBody extracts the display text from the content payload.
func contentBody(item *api.ContentItem) string {
	for _, key := range []string{"question", "prompt", "text", "body", "explanation"} {
		if v, ok := item.ContentData[key].(string); ok && v != "" {
			return v
		}
	}
	return item.Title
}

// referenceText flattens a reference answer for display.
func referenceText(ref any) string {
	switch v := ref.(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"correct_answer", "solution", "answer", "value"} {
			if s, ok := v[key].(string); ok {
				return s
			}
		}
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " | ")
	}
	return ""
}

// renderQuitConfirm renders the end-session confirmation dialog.
func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")

	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render("End this session?")))
	b.WriteString("\n")
	b.WriteString(centeredDim(width, "Your conversation is saved on the server."))
	b.WriteString("\n\n")

	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Success).Render("[Y] Yes, end session")))
	b.WriteString("\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Primary).Render("[N] No, keep going")))

	return b.String()
}

// renderEnded renders the farewell view.
func (s *SessionScreen) renderEnded(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Success).Bold(true).Render("Session complete!")))
	b.WriteString("\n\n")

	if syncer := s.orch.Synchronizer(); syncer != nil {
		answers := 0
		for _, m := range syncer.Messages() {
			if m.Sender == api.SenderUser {
				answers++
			}
		}
		if answers > 0 {
			b.WriteString(centeredDim(width, fmt.Sprintf("You sent %d answers this session.", answers)))
			b.WriteString("\n\n")
		}
	}

	b.WriteString(centeredDim(width, "Press any key to exit."))
	return b.String()
}

// renderInitFailed renders the initialization failure view.
func renderInitFailed(width int, err error) string {
	detail := "something went wrong"
	if err != nil {
		detail = errorText(err)
	}

	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render("Couldn't start your session")))
	b.WriteString("\n\n")
	b.WriteString(centeredDim(width, detail))
	b.WriteString("\n\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.Primary).Render("[R] Try again")))
	b.WriteString("\n")
	b.WriteString(centered(width, lipgloss.NewStyle().Foreground(theme.TextDim).Render("[Esc] Quit")))
	return b.String()
}

// renderLoading renders the startup state.
func renderLoading(width int) string {
	return centeredDim(width, "\n\n\n  Preparing your session...")
}

func centered(width int, s string) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(s)
}

func centeredDim(width int, s string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render(s)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
