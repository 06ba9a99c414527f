// Package tui is the interactive terminal counterpart of the original web
// UI: a grid of ratio tiles plus an adjust screen with two offset sliders.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cgyc6688/aspect-ratio-automator/internal/controller"
	"github.com/cgyc6688/aspect-ratio-automator/internal/ratio"
)

type mode int

const (
	modeGrid mode = iota
	modeAdjust
)

type sliderFocus int

const (
	focusX sliderFocus = iota
	focusY
)

type saveDoneMsg struct {
	changed bool
	err     error
}

type resetDoneMsg struct {
	err error
}

type downloadDoneMsg struct {
	path string
	err  error
}

// Model is the bubbletea model for the interactive client.
type Model struct {
	ctrl   *controller.Controller
	ratios []ratio.Target

	mode   mode
	cursor int

	// adjust screen state
	active string
	x, y   int
	focus  sliderFocus

	busy      bool
	busyLabel string
	spin      spinner.Model

	status    string
	statusErr bool

	width    int
	height   int
	quitting bool
}

// Run starts the interactive UI over an already-restored controller.
func Run(ctrl *controller.Controller) error {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// NewModel builds the initial grid model.
func NewModel(ctrl *controller.Controller) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	return Model{
		ctrl:   ctrl,
		ratios: ratio.All(),
		spin:   sp,
		width:  100,
		height: 30,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case saveDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		if msg.changed {
			m.setStatus(fmt.Sprintf("Saved %s offsets (%+d, %+d)", m.active, m.x, m.y))
		} else {
			m.setStatus("Offsets unchanged, nothing saved")
		}
		m.mode = modeGrid
		return m, nil

	case resetDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Reset %s to center", m.active))
		m.mode = modeGrid
		return m, nil

	case downloadDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setStatus("Downloaded " + msg.path)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		// A hung request keeps the spinner going; only ctrl+c escapes.
		if m.busy {
			return m, nil
		}
		switch m.mode {
		case modeGrid:
			return m.updateGrid(msg)
		case modeAdjust:
			return m.updateAdjust(msg)
		}
	}
	return m, nil
}

func (m Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.ratios)-1 {
			m.cursor++
		}

	case "enter":
		if m.ctrl.SessionID() == "" {
			m.setError(controller.ErrNoSession)
			return m, nil
		}
		m.active = m.ratios[m.cursor].Key
		saved := m.ctrl.Offsets(m.active)
		m.x, m.y = saved.XOffset, saved.YOffset
		m.focus = focusX
		m.mode = modeAdjust
		m.status = ""

	case "d":
		if m.ctrl.SessionID() == "" {
			m.setError(controller.ErrNoSession)
			return m, nil
		}
		return m.startBusy("Packaging archive", m.downloadCmd())
	}
	return m, nil
}

func (m Model) updateAdjust(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	step := func(delta int) {
		v := &m.x
		if m.focus == focusY {
			v = &m.y
		}
		*v += delta
		if *v > ratio.MaxOffset {
			*v = ratio.MaxOffset
		}
		if *v < ratio.MinOffset {
			*v = ratio.MinOffset
		}
	}

	switch msg.String() {
	case "esc":
		m.mode = modeGrid

	case "tab", "up", "down", "k", "j":
		if m.focus == focusX {
			m.focus = focusY
		} else {
			m.focus = focusX
		}

	case "left", "h":
		step(-1)

	case "right", "l":
		step(1)

	case "pgdown", "shift+left", "H":
		step(-10)

	case "pgup", "shift+right", "L":
		step(10)

	case "0":
		if m.focus == focusX {
			m.x = 0
		} else {
			m.y = 0
		}

	case "enter":
		return m.startBusy("Saving adjustment", m.saveCmd())

	case "r":
		if !m.ctrl.Adjusted(m.active) {
			m.x, m.y = 0, 0
			m.setStatus("Already centered")
			return m, nil
		}
		return m.startBusy("Resetting adjustment", m.resetCmd())
	}
	return m, nil
}

func (m Model) startBusy(label string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.busy = true
	m.busyLabel = label
	m.status = ""
	return m, tea.Batch(m.spin.Tick, cmd)
}

func (m Model) saveCmd() tea.Cmd {
	ctrl, key, x, y := m.ctrl, m.active, m.x, m.y
	return func() tea.Msg {
		changed, err := ctrl.Save(context.Background(), key, x, y)
		return saveDoneMsg{changed: changed, err: err}
	}
}

func (m Model) resetCmd() tea.Cmd {
	ctrl, key := m.ctrl, m.active
	return func() tea.Msg {
		return resetDoneMsg{err: ctrl.Reset(context.Background(), key)}
	}
}

func (m Model) downloadCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		path, err := ctrl.Download(context.Background(), ".", true)
		return downloadDoneMsg{path: path, err: err}
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	title := titleStyle.Render("Aspect-Ratio Automator")
	session := "no session"
	if id := m.ctrl.SessionID(); id != "" {
		session = "session " + id
	}
	b.WriteString(title + dimStyle.Render("  "+session) + "\n\n")

	switch m.mode {
	case modeAdjust:
		b.WriteString(m.viewAdjust())
	default:
		b.WriteString(m.viewGrid())
	}

	b.WriteString("\n")
	switch {
	case m.busy:
		b.WriteString(statusBarStyle.Render(m.spin.View() + " " + m.busyLabel + "..."))
	case m.statusErr:
		b.WriteString(errorStyle.Render("✗ " + m.status))
	case m.status != "":
		b.WriteString(statusBarStyle.Render(m.status))
	default:
		b.WriteString(m.viewHelp())
	}
	return b.String()
}

func (m Model) viewGrid() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(pad("Ratio", 8)+pad("Output", 18)+pad("Offsets", 14)+"Preview") + "\n")

	for i, t := range m.ratios {
		var offsets string
		if m.ctrl.Adjusted(t.Key) {
			o := m.ctrl.Offsets(t.Key)
			offsets = adjustedTag.Render(pad(fmt.Sprintf("%+d, %+d", o.XOffset, o.YOffset), 14))
		} else {
			offsets = centeredTag.Render(pad("centered", 14))
		}

		preview := m.ctrl.PreviewPath(t.Key)
		if preview == "" {
			preview = dimStyle.Render("(preview unavailable)")
		}

		row := pad(t.Key, 8) + pad(t.Dimensions(), 18) + offsets + preview
		if i == m.cursor {
			plain := pad(t.Key, 8) + pad(t.Dimensions(), 18) + pad(m.plainOffsets(t.Key), 14) + m.ctrl.PreviewPath(t.Key)
			row = selectedStyle.Render(plain)
		} else {
			row = normalStyle.Render(row)
		}
		b.WriteString(row + "\n")
	}
	return b.String()
}

func (m Model) plainOffsets(key string) string {
	if !m.ctrl.Adjusted(key) {
		return "centered"
	}
	o := m.ctrl.Offsets(key)
	return fmt.Sprintf("%+d, %+d", o.XOffset, o.YOffset)
}

func (m Model) viewAdjust() string {
	t, _ := ratio.Lookup(m.active)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Adjust %s crop (%s)", m.active, t.Dimensions())) + "\n\n")
	b.WriteString(renderSlider("horizontal", m.x, m.focus == focusX) + "\n")
	b.WriteString(renderSlider("vertical  ", m.y, m.focus == focusY) + "\n")
	return b.String()
}

func (m Model) viewHelp() string {
	if m.mode == modeAdjust {
		return helpStyle.Render("  ←/→: ±1  PgUp/PgDn: ±10  Tab: switch slider  0: center  Enter: save  r: reset  Esc: back")
	}
	return helpStyle.Render("  ↑/↓: move  Enter: adjust  d: download  q: quit")
}

// renderSlider draws a -100..100 track with one cell per 5 percent.
func renderSlider(label string, value int, focused bool) string {
	const cells = 41
	idx := (value + 100) / 5

	var track strings.Builder
	for i := 0; i < cells; i++ {
		switch {
		case i == idx:
			track.WriteString("●")
		case i == cells/2:
			track.WriteString("┼")
		default:
			track.WriteString("─")
		}
	}

	line := fmt.Sprintf("%s  [%s]  %+4d", label, track.String(), value)
	if focused {
		return selectedStyle.Render(line)
	}
	return normalStyle.Render(line)
}

func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return string(runes[:width])
	}
	return s + strings.Repeat(" ", width-len(runes))
}
