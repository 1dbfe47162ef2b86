package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/yllada/mullvad-rotate/relay"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	actionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	noteStyle   = lipgloss.NewStyle().Faint(true)
)

// Printer writes user-facing output. Styles are applied only when the
// destination is a terminal so piped output stays plain.
type Printer struct {
	out    io.Writer
	styled bool
}

// NewPrinter returns a printer for w.
func NewPrinter(w io.Writer) *Printer {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = term.IsTerminal(int(f.Fd()))
	}
	return &Printer{out: w, styled: styled}
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

// List prints "Available <label>:" followed by the items, one per line.
func (p *Printer) List(label string, items []string) {
	fmt.Fprintln(p.out, p.render(headerStyle, "Available "+label+":"))
	for _, item := range items {
		fmt.Fprintln(p.out, item)
	}
}

// inline prints a list on a single line.
func (p *Printer) inline(label string, items []string) {
	fmt.Fprintln(p.out, p.render(headerStyle, "Available "+label+":"))
	fmt.Fprintln(p.out, strings.Join(items, " "))
}

// Action prints the relay change.
func (p *Printer) Action(message string) {
	fmt.Fprintln(p.out, p.render(actionStyle, message))
}

// Candidates prints the candidates of each stage after a rotation.
func (p *Printer) Candidates(set *relay.CandidateSet) {
	countries := set.Stages.Countries
	cities := set.Stages.Cities
	switch set.Granularity {
	case relay.LocationCountry:
		countries = set.Items
	case relay.LocationCity:
		cities = set.Items
	}

	fmt.Fprintln(p.out)
	p.inline("countries given the current constraints", locationStrings(countries))
	if cities != nil {
		p.inline("cities given the current constraints", locationStrings(cities))
	}

	if set.Granularity == relay.LocationServer {
		p.inline("servers given the current constraints", locationStrings(set.Items))
		return
	}
	fmt.Fprintln(p.out, p.render(headerStyle, "Available servers given the current constraints:"))
	fmt.Fprintln(p.out, p.render(noteStyle, fmt.Sprintf("All servers in the available %s. No sequential switch", pluralKind(set.Granularity))))
}

// Summary prints a table of the rotation for verbose runs.
func (p *Printer) Summary(rows [][2]string) {
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	w.Flush()
}

func pluralKind(k relay.LocationKind) string {
	switch k {
	case relay.LocationCity:
		return "cities"
	case relay.LocationServer:
		return "servers"
	default:
		return "countries"
	}
}

func locationStrings(locs []relay.Location) []string {
	out := make([]string, len(locs))
	for i, l := range locs {
		out[i] = l.String()
	}
	return out
}
