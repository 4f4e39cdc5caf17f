package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rubiojr/hayao/pkg/search"
	"github.com/rubiojr/hayao/pkg/warehouse"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	sheetStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	// matchStyle marks highlighted substrings in terminal output.
	matchStyle = lipgloss.NewStyle().Reverse(true).Bold(true)
)

// formatNumber formats a number with K/M suffixes for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	} else if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// formatTime formats a time relative to now or as an absolute date
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	now := time.Now()
	diff := now.Sub(t)

	if diff < 24*time.Hour {
		if diff < time.Hour {
			minutes := int(diff.Minutes())
			if minutes < 1 {
				return "just now"
			}
			return fmt.Sprintf("%d minutes ago", minutes)
		}
		return fmt.Sprintf("%d hours ago", int(diff.Hours()))
	}

	if diff < 7*24*time.Hour {
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	}

	if t.Year() == now.Year() {
		return t.Format("Jan 2, 15:04")
	}
	return t.Format("Jan 2, 2006")
}

// formatResults prints search results, one block per row. Values are
// expected to be highlighted already.
func formatResults(w io.Writer, res *search.SearchResults) {
	if res.TotalCount == 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("No results found for %q", res.Query)))
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d results", res.TotalCount)))
	for i, r := range res.Results {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%d. %s\n", i+1, sheetStyle.Render(r.SheetName))
		for _, f := range r.Fields {
			fmt.Fprintf(w, "   %s %s\n", keyStyle.Render(f.Key+":"), f.Value)
		}
	}
	if res.TotalCount == res.Limit {
		fmt.Fprintln(w)
		fmt.Fprintln(w, keyStyle.Render(fmt.Sprintf("Showing the first %d matches; add terms to narrow the search.", res.Limit)))
	}
}

// formatStatus prints the warehouse status.
func formatStatus(w io.Writer, st warehouse.Status) {
	fmt.Fprintln(w, headerStyle.Render("Index status"))
	fmt.Fprintln(w, "════════════")

	state := st.State
	switch st.State {
	case warehouse.Ready.String():
		state = okStyle.Render(state)
	case warehouse.Absent.String():
		state = warnStyle.Render(state)
	}
	fmt.Fprintf(w, "%s %s\n", keyStyle.Render("State:      "), state)
	fmt.Fprintf(w, "%s %s\n", keyStyle.Render("Source:     "), st.Source)
	fmt.Fprintf(w, "%s %s\n", keyStyle.Render("Index:      "), st.IndexPath)

	if st.State == warehouse.Ready.String() {
		fmt.Fprintf(w, "%s %s\n", keyStyle.Render("Documents:  "), formatNumber(st.Meta.Documents))
		fmt.Fprintf(w, "%s %d\n", keyStyle.Render("Sheets:     "), st.Meta.Sheets)
		fmt.Fprintf(w, "%s %s\n", keyStyle.Render("Built:      "), formatTime(st.Meta.BuiltAt))
		if st.Meta.Source != "" {
			fmt.Fprintf(w, "%s %s\n", keyStyle.Render("Origin:     "), st.Meta.Source)
		}
		if st.Meta.Fingerprint != "" {
			fmt.Fprintf(w, "%s %s\n", keyStyle.Render("Fingerprint:"), st.Meta.Fingerprint)
		}
	}
	if st.LastError != "" {
		fmt.Fprintf(w, "%s %s\n", keyStyle.Render("Last error: "), errStyle.Render(st.LastError))
	}
}
