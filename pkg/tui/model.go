// Package tui is the interactive terminal front end: a query box, a
// scrollable list of highlighted results and a status line.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rubiojr/hayao/pkg/highlight"
	"github.com/rubiojr/hayao/pkg/query"
	"github.com/rubiojr/hayao/pkg/search"
	"github.com/rubiojr/hayao/pkg/warehouse"
)

// Searcher is the TUI-facing subset of the search service.
type Searcher interface {
	Search(ctx context.Context, params search.SearchParams) (*search.SearchResults, error)
}

// Refresher rebuilds the index.
type Refresher interface {
	Refresh(ctx context.Context, reason string) error
}

type searchDoneMsg struct {
	query   string
	results *search.SearchResults
	err     error
}

type refreshDoneMsg struct {
	err error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	searcher  Searcher
	refresher Refresher
	input     textinput.Model
	viewport  viewport.Model
	results   *search.SearchResults
	summary   string
	status    string
	failed    bool
	busy      bool
	ready     bool
}

// New creates a new TUI model instance.
func New(searcher Searcher, refresher Refresher, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a query and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		searcher:  searcher,
		refresher: refresher,
		input:     ti,
		viewport:  vp,
		summary:   summary,
		status:    "Ready. Enter searches, ctrl+r rebuilds the index, esc quits.",
	}
}

// Terminal is the marker search results should be highlighted with.
func Terminal() highlight.Marker {
	return highlight.Terminal(highlightStyle)
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header+summary, status, spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderResults())
		return m, nil

	case searchDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.results = msg.results
		m.failed = false
		m.status = fmt.Sprintf("%d results for %q", msg.results.TotalCount, msg.query)
		if msg.results.TotalCount == 0 {
			m.status = fmt.Sprintf("Nothing found for %q", msg.query)
		}
		m.viewport.SetContent(m.renderResults())
		m.viewport.GotoTop()
		return m, nil

	case refreshDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.results = nil
		m.failed = false
		m.status = "Index rebuilt."
		m.viewport.SetContent(m.renderResults())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := query.Normalize(m.input.Value())
			if q == "" || m.busy {
				// Nothing to search for: leave results and status alone.
				return m, nil
			}
			m.busy = true
			m.failed = false
			m.status = fmt.Sprintf("Searching %q...", q)
			return m, m.searchCmd(q)
		case "ctrl+r":
			if m.busy || m.refresher == nil {
				return m, nil
			}
			m.busy = true
			m.failed = false
			m.status = "Rebuilding index..."
			return m, m.refreshCmd()
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) setError(err error) {
	m.failed = true
	var parseErr *query.ParseError
	switch {
	case errors.As(err, &parseErr):
		m.status = "Invalid query: " + parseErr.Error()
	case errors.Is(err, search.ErrEmptyQuery):
		m.status = "Nothing to search for."
	default:
		m.status = "Error: " + err.Error()
	}
}

func (m Model) searchCmd(q string) tea.Cmd {
	searcher := m.searcher
	return func() tea.Msg {
		res, err := searcher.Search(context.Background(), search.SearchParams{Query: q})
		return searchDoneMsg{query: q, results: res, err: err}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	refresher := m.refresher
	return func() tea.Msg {
		return refreshDoneMsg{err: refresher.Refresh(context.Background(), warehouse.ReasonRefresh)}
	}
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("hayao")
	summary := summaryStyle.Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	statusStyle := okStyle
	if m.failed {
		statusStyle = errorStyle
	}
	status := statusStyle.Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderResults() string {
	if m.results == nil {
		return "No results yet."
	}
	if len(m.results.Results) == 0 {
		return "No matching rows."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d results\n", m.results.TotalCount)
	for i, r := range m.results.Results {
		b.WriteString("\n")
		b.WriteString(sheetStyle.Render(fmt.Sprintf("%d. %s", i+1, r.SheetName)))
		b.WriteString("\n")
		for _, f := range r.Fields {
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(f.Key + ":"))
			b.WriteString(" ")
			b.WriteString(f.Value)
			b.WriteString("\n")
		}
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle    = lipgloss.NewStyle().Bold(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sheetStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	keyStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)
