package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/adaptlearn/termtutor/internal/ui/theme"
)

// MultiChoice is an option selector for quiz and exercise content. The
// correct option is not known client-side until the answer is graded, so
// the chosen option is colored only after Grade is called.
type MultiChoice struct {
	Prompt   string
	Options  []string
	Selected int
	Chosen   int
	chosen   bool
	graded   bool
	correct  bool
}

// NewMultiChoice creates a selector over the given options.
func NewMultiChoice(prompt string, options []string) MultiChoice {
	return MultiChoice{
		Prompt:  prompt,
		Options: options,
		Chosen:  -1,
	}
}

// Init returns nil.
func (m MultiChoice) Init() tea.Cmd {
	return nil
}

// Update handles keyboard navigation and selection.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.chosen {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter":
		m.chosen = true
		m.Chosen = m.Selected
	}

	return m, nil
}

// Choose commits the current selection and returns its text.
func (m *MultiChoice) Choose() string {
	m.chosen = true
	m.Chosen = m.Selected
	return m.Options[m.Chosen]
}

// Value returns the text of the committed option, or "" before choosing.
func (m MultiChoice) Value() string {
	if m.Chosen < 0 || m.Chosen >= len(m.Options) {
		return ""
	}
	return m.Options[m.Chosen]
}

// Grade records the verdict for the chosen option.
func (m *MultiChoice) Grade(correct bool) {
	m.graded = true
	m.correct = correct
}

// View renders the selector.
func (m MultiChoice) View() string {
	var s string
	if m.Prompt != "" {
		s = lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(m.Prompt) + "\n\n"
	}

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected && !m.chosen {
			prefix = "▸ "
		}

		line := fmt.Sprintf("%s%d) %s", prefix, i+1, opt)

		switch {
		case m.graded && i == m.Chosen && m.correct:
			s += theme.Correct.Render(line) + "\n"
		case m.graded && i == m.Chosen:
			s += theme.Incorrect.Render(line) + "\n"
		case m.chosen && i == m.Chosen:
			s += theme.Selected.Render(line) + "\n"
		case m.chosen:
			s += lipgloss.NewStyle().Foreground(theme.TextDim).Render(line) + "\n"
		case i == m.Selected:
			s += theme.Selected.Render(line) + "\n"
		default:
			s += theme.Unselected.Render(line) + "\n"
		}
	}

	return s
}
