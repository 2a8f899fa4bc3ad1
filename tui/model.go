package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/samaelod/usmu/config"
	"github.com/samaelod/usmu/engine"
	"github.com/samaelod/usmu/types"
)

type screen int

const (
	screenConnect screen = iota
	screenSession
)

// prompt is a one-line input layered over the session screen for a
// file path (replay script, export target).
type prompt int

const (
	promptNone prompt = iota
	promptReplay
	promptExportScript
	promptExportLog
)

const (
	fieldAddress = iota
	fieldPort
	fieldInitial
	fieldCount
)

type Model struct {
	cfg    *config.Config
	engine *engine.Engine

	screen screen

	// connect form
	form      []textinput.Model
	formFocus int
	protocol  types.Protocol
	formErr   error

	// session view
	active       int // session id, 0 when none
	payloadInput textinput.Model
	encoding     types.Encoding
	logView      viewport.Model
	showDiag     bool // viewport shows engine diagnostics instead of the session log
	status       string

	prompt      prompt
	promptInput textinput.Model

	width   int
	height  int
	version string
}

const (
	minWindowWidth  = 60
	minWindowHeight = 16
	footerHeight    = 2
	headerHeight    = 2
)

func New(cfg *config.Config, e *engine.Engine, version string) Model {
	form := make([]textinput.Model, fieldCount)
	for i := range form {
		form[i] = textinput.New()
		form[i].CharLimit = 256
	}
	form[fieldAddress].Placeholder = "127.0.0.1"
	form[fieldAddress].SetValue(cfg.Address)
	form[fieldPort].Placeholder = "8080"
	if cfg.Port > 0 {
		form[fieldPort].SetValue(strconv.Itoa(cfg.Port))
	}
	form[fieldInitial].Placeholder = "initial payload (optional)"
	form[fieldInitial].SetValue(cfg.InitialPayload)
	form[fieldAddress].Focus()

	protocol := types.TCP
	if p, err := types.ParseProtocol(cfg.Protocol); err == nil {
		protocol = p
	}
	encoding := types.Hex
	if enc, err := types.ParseEncoding(cfg.InitialPayloadEncoding); err == nil {
		encoding = enc
	}

	payloadInput := textinput.New()
	payloadInput.Placeholder = "payload"
	payloadInput.CharLimit = 4096

	promptInput := textinput.New()
	promptInput.CharLimit = 512

	return Model{
		cfg:          cfg,
		engine:       e,
		screen:       screenConnect,
		form:         form,
		protocol:     protocol,
		encoding:     encoding,
		payloadInput: payloadInput,
		logView:      viewport.New(10, 10),
		promptInput:  promptInput,
		version:      version,
	}
}
