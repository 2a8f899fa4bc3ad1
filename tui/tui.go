// Package tui is the terminal frontend. It drives the engine purely
// through its command surface and repaints from its event surface; all
// session and replay state lives in the engine.
package tui

import (
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/samaelod/usmu/config"
	"github.com/samaelod/usmu/engine"
)

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.engine), waitForLog(m.engine))
}

func Run(cfg *config.Config, version string) error {
	logPath := ""
	if cfg.LogsDir != "" {
		logPath = filepath.Join(cfg.LogsDir, "usmu.log")
	}
	e := engine.New(logPath, cfg.LogLines)
	defer e.Shutdown()

	p := tea.NewProgram(New(cfg, e, version), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
