package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/samaelod/usmu/engine"
	luascript "github.com/samaelod/usmu/lua"
	"github.com/samaelod/usmu/payload"
	"github.com/samaelod/usmu/pcapreader"
	"github.com/samaelod/usmu/sessionlog"
	"github.com/samaelod/usmu/types"
)

type engineEventMsg struct{ ev engine.Event }

type sessionOpenedMsg struct {
	id  int
	err error
}

type replayStartedMsg struct {
	id  int
	err error
}

type sentMsg struct{ err error }

type diagLineMsg struct{ line string }

// waitForEvent blocks on the engine's event surface and wakes the UI
// once per event. Re-armed after every delivery.
func waitForEvent(e *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-e.Events()
		if !ok {
			return nil
		}
		return engineEventMsg{ev}
	}
}

// waitForLog wakes the UI on new diagnostic output, re-armed per line.
func waitForLog(e *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-e.Log.Chan()
		if !ok {
			return nil
		}
		return diagLineMsg{line}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refreshLog()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case engineEventMsg:
		m.applyEvent(msg.ev)
		return m, waitForEvent(m.engine)

	case diagLineMsg:
		if m.showDiag {
			m.refreshLog()
		}
		return m, waitForLog(m.engine)

	case sessionOpenedMsg:
		if msg.err != nil {
			m.formErr = msg.err
			return m, nil
		}
		m.active = msg.id
		m.screen = screenSession
		m.formErr = nil
		m.payloadInput.Focus()
		m.status = fmt.Sprintf("session %d open", msg.id)
		m.refreshLog()
		return m, nil

	case replayStartedMsg:
		m.prompt = promptNone
		if msg.err != nil {
			m.status = styleError.Render(fmt.Sprintf("replay failed: %v", msg.err))
			return m, nil
		}
		if r, err := m.engine.Replay(msg.id); err == nil {
			m.active = r.SessionID()
		}
		m.status = fmt.Sprintf("replay %d running", msg.id)
		m.refreshLog()
		return m, nil

	case sentMsg:
		if msg.err != nil {
			m.status = styleError.Render(msg.err.Error())
		}
		m.refreshLog()
		return m, nil
	}

	switch m.screen {
	case screenConnect:
		return m.updateConnect(msg)
	case screenSession:
		return m.updateSession(msg)
	}
	return m, nil
}

func (m Model) updateConnect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			m.setFormFocus((m.formFocus + 1) % fieldCount)
			return m, nil
		case "shift+tab", "up":
			m.setFormFocus((m.formFocus + fieldCount - 1) % fieldCount)
			return m, nil
		case "ctrl+p":
			if m.protocol == types.TCP {
				m.protocol = types.UDP
			} else {
				m.protocol = types.TCP
			}
			return m, nil
		case "ctrl+t":
			m.encoding = toggleEncoding(m.encoding)
			return m, nil
		case "esc":
			if m.active != 0 {
				m.screen = screenSession
				m.payloadInput.Focus()
			}
			return m, nil
		case "enter":
			ep, initial, err := m.formEndpoint()
			if err != nil {
				m.formErr = err
				return m, nil
			}
			m.formErr = nil
			e := m.engine
			return m, func() tea.Msg {
				id, err := e.NewSession(ep, initial)
				return sessionOpenedMsg{id: id, err: err}
			}
		}
	}

	var cmd tea.Cmd
	m.form[m.formFocus], cmd = m.form[m.formFocus].Update(msg)
	return m, cmd
}

func (m *Model) setFormFocus(i int) {
	m.form[m.formFocus].Blur()
	m.formFocus = i
	m.form[m.formFocus].Focus()
}

func (m Model) formEndpoint() (types.Endpoint, *types.Payload, error) {
	host := strings.TrimSpace(m.form[fieldAddress].Value())
	port, err := strconv.Atoi(strings.TrimSpace(m.form[fieldPort].Value()))
	if err != nil {
		return types.Endpoint{}, nil, fmt.Errorf("invalid port %q", m.form[fieldPort].Value())
	}
	ep := types.Endpoint{Protocol: m.protocol, Host: host, Port: port}
	if err := ep.Validate(); err != nil {
		return types.Endpoint{}, nil, err
	}

	var initial *types.Payload
	if text := m.form[fieldInitial].Value(); text != "" {
		p, err := payload.Encode(text, m.encoding)
		if err != nil {
			return types.Endpoint{}, nil, err
		}
		initial = &p
	}
	return ep, initial, nil
}

func (m Model) updateSession(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.prompt != promptNone {
		return m.updatePrompt(msg)
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			text := m.payloadInput.Value()
			if strings.TrimSpace(text) == "" {
				return m, nil
			}
			p, err := payload.Encode(text, m.encoding)
			if err != nil {
				m.status = styleError.Render(err.Error())
				return m, nil
			}
			m.payloadInput.SetValue("")
			e, id := m.engine, m.active
			return m, func() tea.Msg {
				return sentMsg{err: e.Send(id, p)}
			}
		case "ctrl+t":
			m.encoding = toggleEncoding(m.encoding)
			return m, nil
		case "ctrl+n":
			m.screen = screenConnect
			m.formErr = nil
			m.setFormFocus(fieldAddress)
			return m, nil
		case "tab":
			m.cycleSession(1)
			return m, nil
		case "shift+tab":
			m.cycleSession(-1)
			return m, nil
		case "ctrl+d":
			if err := m.engine.CloseSession(m.active); err != nil {
				m.status = styleError.Render(err.Error())
			}
			m.refreshLog()
			return m, nil
		case "ctrl+r":
			m.openPrompt(promptReplay, "script path (.json, .lua, .pcap)")
			return m, nil
		case "ctrl+s":
			m.openPrompt(promptExportScript, "replay script export path")
			return m, nil
		case "ctrl+l":
			m.openPrompt(promptExportLog, "log export path")
			return m, nil
		case "ctrl+g":
			m.showDiag = !m.showDiag
			m.refreshLog()
			return m, nil
		case "pgup", "pgdown", "ctrl+u":
			var cmd tea.Cmd
			m.logView, cmd = m.logView.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.payloadInput, cmd = m.payloadInput.Update(msg)
	return m, cmd
}

func (m *Model) openPrompt(p prompt, placeholder string) {
	m.prompt = p
	m.promptInput.SetValue("")
	m.promptInput.Placeholder = placeholder
	m.promptInput.Focus()
	m.payloadInput.Blur()
}

func (m Model) updatePrompt(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.prompt = promptNone
			m.payloadInput.Focus()
			return m, nil
		case "enter":
			path := strings.TrimSpace(m.promptInput.Value())
			if path == "" {
				return m, nil
			}
			which := m.prompt
			m.prompt = promptNone
			m.payloadInput.Focus()
			return m.runPrompt(which, path)
		}
	}

	var cmd tea.Cmd
	m.promptInput, cmd = m.promptInput.Update(msg)
	return m, cmd
}

func (m Model) runPrompt(which prompt, path string) (tea.Model, tea.Cmd) {
	switch which {
	case promptReplay:
		script, capturedEP, err := loadScript(path)
		if err != nil {
			m.status = styleError.Render(err.Error())
			return m, nil
		}
		ep := capturedEP
		if ep.Host == "" {
			if s, err := m.engine.Session(m.active); err == nil {
				ep = s.Endpoint()
			} else if cfgEP, err := m.cfg.Endpoint(); err == nil {
				ep = cfgEP
			}
		}
		e := m.engine
		return m, func() tea.Msg {
			id, err := e.StartReplay(script, ep, 0)
			return replayStartedMsg{id: id, err: err}
		}

	case promptExportScript:
		data, err := m.engine.ExportLog(m.active, engine.ExportReplay)
		if err == nil {
			err = os.WriteFile(path, data, 0644)
		}
		if err != nil {
			m.status = styleError.Render(err.Error())
		} else {
			m.status = "replay script written to " + path
		}
		return m, nil

	case promptExportLog:
		data, err := m.engine.ExportLog(m.active, engine.ExportHuman)
		if err == nil {
			err = os.WriteFile(path, data, 0644)
		}
		if err != nil {
			m.status = styleError.Render(err.Error())
		} else {
			m.status = "log written to " + path
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) cycleSession(step int) {
	sessions := m.engine.Sessions()
	if len(sessions) == 0 {
		return
	}
	idx := 0
	for i, s := range sessions {
		if s.ID() == m.active {
			idx = i
			break
		}
	}
	idx = (idx + step + len(sessions)) % len(sessions)
	m.active = sessions[idx].ID()
	m.refreshLog()
}

func (m *Model) applyEvent(ev engine.Event) {
	switch ev := ev.(type) {
	case engine.PacketReceived:
		if ev.SessionID == m.active {
			m.refreshLog()
		}
	case engine.SessionStateChanged:
		if ev.State == types.Failed && ev.Cause != nil {
			m.status = styleError.Render(fmt.Sprintf("session %d: %v", ev.SessionID, ev.Cause))
		}
		if ev.SessionID == m.active {
			m.refreshLog()
		}
	case engine.ReplayProgress:
		m.status = fmt.Sprintf("replay %d: sent %d/%d", ev.ReplayID, ev.Sent, ev.Total)
		if ev.SessionID == m.active {
			m.refreshLog()
		}
	case engine.ReplayFinished:
		switch {
		case ev.Outcome == engine.ReplayCompleted:
			m.status = fmt.Sprintf("replay %d completed", ev.ReplayID)
		case ev.Cause != nil:
			m.status = styleError.Render(fmt.Sprintf("replay %d aborted at entry %d: %v", ev.ReplayID, ev.FailedIndex, ev.Cause))
		default:
			m.status = styleError.Render(fmt.Sprintf("replay %d aborted", ev.ReplayID))
		}
	}
}

// loadScript dispatches on extension like the replay CLI does.
func loadScript(path string) (types.ReplayScript, types.Endpoint, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lua":
		script, err := luascript.ReadScript(path)
		return script, types.Endpoint{}, err
	case ".pcap", ".pcapng", ".cap":
		return pcapreader.ReadScript(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return types.ReplayScript{}, types.Endpoint{}, err
		}
		defer f.Close()
		script, err := sessionlog.ReadReplay(f)
		return script, types.Endpoint{}, err
	}
}

func toggleEncoding(enc types.Encoding) types.Encoding {
	if enc == types.Hex {
		return types.Ascii
	}
	return types.Hex
}
