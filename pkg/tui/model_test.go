package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rubiojr/hayao/pkg/core"
	"github.com/rubiojr/hayao/pkg/highlight"
	"github.com/rubiojr/hayao/pkg/index"
	"github.com/rubiojr/hayao/pkg/query"
	"github.com/rubiojr/hayao/pkg/search"
)

type fakeIndex struct {
	calls    int
	hits     []index.Hit
	refresh  int
	failNext error
}

func (f *fakeIndex) Search(ctx context.Context, q query.Query, limit int) ([]index.Hit, error) {
	f.calls++
	return f.hits, nil
}

func (f *fakeIndex) Refresh(ctx context.Context, reason string) error {
	f.refresh++
	err := f.failNext
	f.failNext = nil
	return err
}

func newModel(f *fakeIndex) Model {
	svc := search.NewSearchService(f, highlight.Plain, 0)
	m := New(svc, f, "test data")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return updated.(Model)
}

func typeQuery(m Model, s string) Model {
	m.input.SetValue(s)
	return m
}

// press sends a key and runs the resulting command, if any, feeding its
// message back into the model.
func press(t *testing.T, m Model, key tea.KeyMsg) Model {
	t.Helper()
	updated, cmd := m.Update(key)
	m = updated.(Model)
	if cmd == nil {
		return m
	}
	msg := cmd()
	switch msg.(type) {
	case searchDoneMsg, refreshDoneMsg:
		updated, _ = m.Update(msg)
		return updated.(Model)
	}
	return m
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func TestEmptyQueryIsNoOp(t *testing.T) {
	f := &fakeIndex{hits: []index.Hit{{SheetName: "S", OriginalData: core.RowOf("v", "x")}}}
	m := newModel(f)

	m = press(t, typeQuery(m, "x"), enter)
	if m.results == nil || m.results.TotalCount != 1 {
		t.Fatalf("expected 1 result after a real search")
	}
	before := m.status
	calls := f.calls

	for _, q := range []string{"", "   ", "　"} {
		m = typeQuery(m, q)
		updated, cmd := m.Update(enter)
		m = updated.(Model)
		if cmd != nil {
			t.Errorf("empty query %q produced a command", q)
		}
	}
	if f.calls != calls {
		t.Errorf("empty queries reached the index")
	}
	if m.status != before || m.results.TotalCount != 1 {
		t.Errorf("empty query changed the result state: %q", m.status)
	}
}

func TestSearchShowsHighlightedResults(t *testing.T) {
	row := core.RowOf("name", "Alice Bankruptcy", "note", "lease dispute")
	f := &fakeIndex{hits: []index.Hit{{SheetName: "Sheet1", OriginalData: row}}}
	m := press(t, typeQuery(newModel(f), "Bankruptcy lease"), enter)

	if !strings.Contains(m.status, "1 results") {
		t.Errorf("unexpected status %q", m.status)
	}
	out := m.renderResults()
	for _, want := range []string{"Sheet1", "<mark>Bankruptcy</mark>", "<mark>lease</mark> dispute"} {
		if !strings.Contains(out, want) {
			t.Errorf("results missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(m.View(), "hayao") {
		t.Error("view missing header")
	}
}

func TestNothingFound(t *testing.T) {
	m := press(t, typeQuery(newModel(&fakeIndex{}), "zzz"), enter)
	if !strings.Contains(m.status, "Nothing found") {
		t.Errorf("unexpected status %q", m.status)
	}
	if m.renderResults() != "No matching rows." {
		t.Errorf("unexpected results view %q", m.renderResults())
	}
}

func TestParseErrorShownInStatus(t *testing.T) {
	f := &fakeIndex{}
	m := press(t, typeQuery(newModel(f), "lease*"), enter)
	if !m.failed || !strings.HasPrefix(m.status, "Invalid query") {
		t.Errorf("unexpected status %q", m.status)
	}
	if f.calls != 0 {
		t.Error("invalid query reached the index")
	}
}

func TestRefresh(t *testing.T) {
	f := &fakeIndex{hits: []index.Hit{{SheetName: "S", OriginalData: core.RowOf("v", "x")}}}
	m := press(t, typeQuery(newModel(f), "x"), enter)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if f.refresh != 1 {
		t.Fatalf("expected one refresh, got %d", f.refresh)
	}
	if m.results != nil || m.status != "Index rebuilt." {
		t.Errorf("unexpected state after refresh: %q", m.status)
	}

	f.failNext = errors.New("source down")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if !m.failed || !strings.Contains(m.status, "source down") {
		t.Errorf("refresh failure not shown: %q", m.status)
	}
}

func TestQuitKeys(t *testing.T) {
	m := newModel(&fakeIndex{})
	for _, k := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		_, cmd := m.Update(tea.KeyMsg{Type: k})
		if cmd == nil {
			t.Fatalf("key %v did not quit", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("key %v did not quit", k)
		}
	}
}
