package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/gridstream/internal/render"
	"github.com/san-kum/gridstream/internal/stream"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	metricStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const historyLen = 120

type frameMsg stream.GridUpdate
type eventMsg struct{ event any }

// Model is the live watch view: latest frame as a colored heatmap,
// metric history sparkline, and toggles for scheme and normalization.
type Model struct {
	client *Client
	simID  string

	schemeIdx int
	mode      render.Mode

	frame   *stream.GridUpdate
	history []float64

	room    string
	status  string
	errText string
	done    bool

	width  int
	height int
}

func NewModel(client *Client, simID, scheme string, fixed bool) Model {
	idx := 0
	for i, name := range render.SchemeNames {
		if name == scheme {
			idx = i
		}
	}
	mode := render.ModeDynamic
	if fixed {
		mode = render.ModeFixed
	}
	return Model{
		client:    client,
		simID:     simID,
		schemeIdx: idx,
		mode:      mode,
		status:    "connecting",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitFrame(m.client), waitEvent(m.client))
}

func waitFrame(c *Client) tea.Cmd {
	return func() tea.Msg {
		return frameMsg(<-c.Frames())
	}
}

func waitEvent(c *Client) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-c.Events()
		if !ok {
			return eventMsg{event: nil}
		}
		return eventMsg{event: ev}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case frameMsg:
		frame := stream.GridUpdate(msg)
		m.frame = &frame
		m.history = append(m.history, frame.Metric)
		if len(m.history) > historyLen {
			m.history = m.history[len(m.history)-historyLen:]
		}
		m.status = fmt.Sprintf("step %d/%d", frame.Step+1, frame.TotalSteps)
		return m, waitFrame(m.client)

	case eventMsg:
		switch ev := msg.event.(type) {
		case StartedEvent:
			m.room = ev.Room
			m.status = "running"
		case StoppedEvent:
			m.done = true
			m.status = "stopped"
			if ev.Reason != "" {
				m.status = "stopped: " + ev.Reason
			}
		case ErrorEvent:
			m.done = true
			m.errText = ev.Error
		case DisconnectedEvent:
			m.done = true
			m.errText = fmt.Sprintf("connection lost: %v", ev.Err)
		case nil:
			return m, nil
		}
		return m, waitEvent(m.client)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			_ = m.client.Stop()
			_ = m.client.Close()
			return m, tea.Quit
		case "n":
			if m.mode == render.ModeDynamic {
				m.mode = render.ModeFixed
			} else {
				m.mode = render.ModeDynamic
			}
		case "c":
			m.schemeIdx = (m.schemeIdx + 1) % len(render.SchemeNames)
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("gridstream watch"))
	b.WriteString(dimStyle.Render("  " + m.simID))
	b.WriteString("\n\n")

	switch {
	case m.errText != "":
		b.WriteString(errStyle.Render("error: " + m.errText))
	case m.done:
		b.WriteString(warnStyle.Render(m.status))
	default:
		b.WriteString(okStyle.Render(m.status))
	}
	b.WriteString("\n\n")

	if m.frame != nil {
		b.WriteString(m.heatmap())
		b.WriteString("\n")
		b.WriteString(metricStyle.Render(fmt.Sprintf("metric %.3f", m.frame.Metric)))
		b.WriteString("\n")
		if len(m.history) > 1 {
			b.WriteString(dimStyle.Render(asciigraph.Plot(m.history, asciigraph.Height(4))))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(dimStyle.Render("waiting for frames..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("[n] normalization: %s  [c] scheme: %s  [q] quit", m.mode, render.SchemeNames[m.schemeIdx])))
	return b.String()
}

// heatmap renders the current frame's interior as two-column colored
// blocks, cropped to the terminal.
func (m Model) heatmap() string {
	scheme := render.SchemeByName(render.SchemeNames[m.schemeIdx])
	colors := render.Colors(m.frame.Grid, scheme, m.mode)
	if len(colors) == 0 || len(colors[0]) == 0 {
		return ""
	}

	maxCols := len(colors[0])
	if m.width > 0 && m.width/2 < maxCols {
		maxCols = m.width / 2
	}
	maxRows := len(colors)
	if m.height > 12 && m.height-12 < maxRows {
		maxRows = m.height - 12
	}

	var b strings.Builder
	for y := 0; y < maxRows; y++ {
		for x := 0; x < maxCols; x++ {
			c := colors[y][x]
			hex := fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
			b.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Run starts the watch program, sending the start request once the
// event loop is live.
func Run(client *Client, req stream.StartRequest, scheme string, fixed bool) error {
	if err := client.Start(req); err != nil {
		return err
	}
	model := NewModel(client, req.SimID, scheme, fixed)
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
