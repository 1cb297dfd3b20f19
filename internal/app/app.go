// Package app wires the screens into the root Bubble Tea program.
package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/adaptlearn/termtutor/internal/router"
	"github.com/adaptlearn/termtutor/internal/screen"
	sessionscreen "github.com/adaptlearn/termtutor/internal/screens/session"
	"github.com/adaptlearn/termtutor/internal/screens/welcome"
	sess "github.com/adaptlearn/termtutor/internal/session"
	"github.com/adaptlearn/termtutor/internal/ui/layout"
)

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	orch   *sess.Orchestrator
	width  int
	height int
}

// newAppModel creates an AppModel that opens on the welcome splash and
// transitions into the learning session.
func newAppModel(ctx context.Context, orch *sess.Orchestrator) AppModel {
	welcomeScreen := welcome.New(func() screen.Screen {
		return sessionscreen.New(ctx, orch)
	})
	return AppModel{
		router: router.New(welcomeScreen),
		orch:   orch,
	}
}

func (m AppModel) Init() tea.Cmd {
	active := m.router.Active()
	if active == nil {
		return nil
	}
	return active.Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Esc is owned by the screens (quit confirmation); only ctrl+c
		// force-quits from the root.
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	var topic, status string
	if item := m.orch.Content(); item != nil {
		topic = item.Topic
	}
	if phase := m.orch.Phase(); phase != sess.PhaseUninitialized {
		status = phase.String()
	}

	header := layout.RenderHeader(title, topic, status, m.width)

	footerHints := []layout.KeyHint{
		{Key: "Ctrl+C", Description: "Quit"},
	}
	if provider, ok := active.(screen.KeyHintProvider); ok {
		if hints := provider.KeyHints(); len(hints) > 0 {
			footerHints = append(hints, footerHints...)
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program. ctx bounds every backend call and
// the transcript poller; cancel it after Run returns.
func Run(ctx context.Context, orch *sess.Orchestrator) error {
	p := tea.NewProgram(newAppModel(ctx, orch))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
