package highlight

import (
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/rubiojr/hayao/pkg/core"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"lease", []string{"lease"}},
		{"lease lease", []string{"lease"}},
		{"Bankruptcy　lease", []string{"Bankruptcy", "lease"}},
		{"a AND bb AND c", []string{"bb", "a", "c"}},
		{"sheet:Sheet1 content:lease x", []string{"Sheet1", "lease", "x"}},
	}
	for _, tt := range tests {
		if got := Tokens(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokens(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		name  string
		query string
		in    string
		want  string
	}{
		{"no match", "zzz", "lease dispute", "lease dispute"},
		{"every occurrence", "ea", "lease area", "l<mark>ea</mark>se ar<mark>ea</mark>"},
		{"two tokens", "Bankruptcy lease", "Alice Bankruptcy lease", "Alice <mark>Bankruptcy</mark> <mark>lease</mark>"},
		{"case sensitive", "lease", "Lease lease", "Lease <mark>lease</mark>"},
		{"longest wins", "lea lease", "lease", "<mark>lease</mark>"},
		{"overlap leftmost", "ab bc", "abc", "<mark>ab</mark>c"},
		{"adjacent", "ab", "abab", "<mark>ab</mark><mark>ab</mark>"},
		{"multibyte", "手続", "破産手続開始", "破産<mark>手続</mark>開始"},
		{"field prefix stripped", "content:dispute", "lease dispute", "lease <mark>dispute</mark>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForQuery(tt.query, Plain).String(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNoNestedMarkers(t *testing.T) {
	h := ForQuery("mark ark rk a", Plain)
	out := h.String("mark a remark")
	if strings.Contains(out, "<mark><mark>") || strings.Count(out, "<mark>") != strings.Count(out, "</mark>") {
		t.Fatalf("malformed markers: %q", out)
	}
	if out != "<mark>mark</mark> <mark>a</mark> re<mark>mark</mark>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestHTMLEscapes(t *testing.T) {
	h := ForQuery("b&c", HTML)
	got := h.String(`<a> b&c "q"`)
	want := "&lt;a&gt; <mark>b&amp;c</mark> &#34;q&#34;"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// Markup in the query is matched literally, never injected.
	h = ForQuery("<b>", HTML)
	if got := h.String("x<b>y"); got != "x<mark>&lt;b&gt;</mark>y" {
		t.Errorf("got %q", got)
	}
}

func TestTerminal(t *testing.T) {
	style := lipgloss.NewStyle().Bold(true)
	h := ForQuery("lease", Terminal(style))
	if got, want := h.String("a lease"), "a "+style.Render("lease"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRow(t *testing.T) {
	row := core.RowOf("name", "Alice Bankruptcy", "note", "lease dispute", "year", 2021, "memo", nil)
	got := ForQuery("Bankruptcy lease 20", HTML).Row(row)
	want := []Field{
		{Key: "name", Value: "Alice <mark>Bankruptcy</mark>"},
		{Key: "note", Value: "<mark>lease</mark> dispute"},
		{Key: "year", Value: "<mark>20</mark>21"},
		{Key: "memo", Value: ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Row() = %+v, want %+v", got, want)
	}
}

func TestRowKeepsKeysVerbatim(t *testing.T) {
	row := core.RowOf("R&D <team>", "lease & co")
	got := ForQuery("lease", HTML).Row(row)
	want := []Field{{Key: "R&D <team>", Value: "<mark>lease</mark> &amp; co"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Row() = %+v, want %+v", got, want)
	}
}

func TestEmptyTokens(t *testing.T) {
	h := New([]string{"", ""}, HTML)
	if got := h.String("a<b"); got != "a&lt;b" {
		t.Errorf("got %q", got)
	}
	if len(h.Tokens()) != 0 {
		t.Errorf("empty tokens kept: %q", h.Tokens())
	}
}
