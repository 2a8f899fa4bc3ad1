package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/samaelod/usmu/types"
)

func (m Model) View() string {
	if m.width < minWindowWidth || m.height < minWindowHeight {
		return styleScreenTooSmall.
			Width(m.width).
			Height(m.height).
			Render(fmt.Sprintf("window too small (%dx%d)", m.width, m.height))
	}

	switch m.screen {
	case screenConnect:
		return m.viewConnect()
	default:
		return m.viewSession()
	}
}

func (m Model) header() string {
	title := styleAppTitle.Render("usmu " + m.version)
	return title + "\n"
}

func (m Model) viewConnect() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString(styleTitle.Render("New Session"))
	b.WriteString("\n\n")

	b.WriteString(styleLabel.Render("protocol"))
	b.WriteString(styleValue.Render(string(m.protocol)))
	b.WriteString(styleHelp.Render("  (ctrl+p toggles)"))
	b.WriteString("\n")

	labels := [fieldCount]string{"address", "port", "payload"}
	for i, in := range m.form {
		b.WriteString(styleLabel.Render(labels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}

	b.WriteString(styleLabel.Render("encoding"))
	b.WriteString(styleValue.Render(string(m.encoding)))
	b.WriteString(styleHelp.Render("  (ctrl+t toggles)"))
	b.WriteString("\n\n")

	if m.formErr != nil {
		b.WriteString(styleError.Render(m.formErr.Error()))
		b.WriteString("\n")
	}

	b.WriteString(styleHelp.Render("enter connect · tab next field · esc back · ctrl+c quit"))
	return b.String()
}

func (m Model) viewSession() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString(m.sessionTabs())
	b.WriteString("\n")
	b.WriteString(m.sessionStatusLine())
	b.WriteString("\n")

	if m.showDiag {
		b.WriteString(styleTitle.Render("diagnostics"))
		b.WriteString("\n")
	}
	b.WriteString(stylePanel.Width(m.width - 2).Render(m.logView.View()))
	b.WriteString("\n")

	if m.prompt != promptNone {
		b.WriteString(styleTitle.Render("path"))
		b.WriteString(" ")
		b.WriteString(m.promptInput.View())
	} else {
		b.WriteString(styleValue.Render(fmt.Sprintf("[%s] ", m.encoding)))
		b.WriteString(m.payloadInput.View())
	}
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(styleStatus.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(styleHelp.Render(
		"enter send · ctrl+t encoding · tab session · ctrl+n new · ctrl+d close · " +
			"ctrl+r replay · ctrl+s export script · ctrl+l export log · ctrl+g diagnostics · ctrl+c quit"))
	return b.String()
}

func (m Model) sessionTabs() string {
	sessions := m.engine.Sessions()
	if len(sessions) == 0 {
		return styleTab.Render("no sessions")
	}
	tabs := make([]string, 0, len(sessions))
	for _, s := range sessions {
		label := fmt.Sprintf("%d:%s", s.ID(), s.Endpoint().Addr())
		if s.ID() == m.active {
			tabs = append(tabs, styleTabActive.Render(label))
		} else {
			tabs = append(tabs, styleTab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) sessionStatusLine() string {
	s, err := m.engine.Session(m.active)
	if err != nil {
		return styleHelp.Render("ctrl+n to open a session")
	}
	state := s.State()
	rendered := styleStateDown.Render(state.String())
	if state == types.Open {
		rendered = styleStateOpen.Render(state.String())
	}
	return fmt.Sprintf("%s %s  %s",
		styleValue.Render(s.Endpoint().String()),
		rendered,
		styleHelp.Render(fmt.Sprintf("%d log entries", s.Log().Len())))
}

// resize recomputes the log viewport from the window size.
func (m *Model) resize() {
	w := m.width - 4
	if w < 10 {
		w = 10
	}
	h := m.height - headerHeight - footerHeight - 6
	if h < 3 {
		h = 3
	}
	m.logView.Width = w
	m.logView.Height = h
}

// refreshLog re-renders the viewport, pinned to the bottom: the active
// session's log, or the engine diagnostics when that pane is toggled on.
func (m *Model) refreshLog() {
	var content string
	if m.showDiag {
		content = m.engine.Log.ReadAll()
	} else {
		s, err := m.engine.Session(m.active)
		if err != nil {
			return
		}
		content = s.Log().ExportHuman()
	}
	if m.logView.Width > 0 {
		content = wordwrap.String(content, m.logView.Width)
	}
	m.logView.SetContent(content)
	m.logView.GotoBottom()
}
