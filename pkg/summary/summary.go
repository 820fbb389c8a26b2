package summary

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mpapenbr/pacelock/pkg/model"
)

const (
	Title = "PaceLock - iRacing Consistency Analytics"
	// number of finishers shown in the summary
	TopN = 5
)

type Printer struct {
	w       io.Writer
	heading lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
}

// NewPrinter creates a printer for w. Styles are only applied if w is a
// terminal supporting them.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		heading: r.NewStyle().Bold(true),
		ok:      r.NewStyle().Foreground(lipgloss.Color("2")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

func (p *Printer) Banner() {
	p.println(p.heading.Render(Title))
	p.println(strings.Repeat("=", 40))
}

func (p *Printer) Println(msg string) {
	p.println(msg)
}

func (p *Printer) Success(msg string) {
	p.println(p.ok.Render("✓ " + msg))
}

func (p *Printer) Warning(msg string) {
	p.println(p.warn.Render("⚠ Warning: " + msg))
}

// Subsession prints the top finishers and the session details.
func (p *Printer) Subsession(s *model.Subsession) {
	results := s.Results()
	if len(results) > 0 {
		p.println("")
		p.println(p.heading.Render(fmt.Sprintf("Top %d finishers:", TopN)))
		for _, r := range lo.Slice(results, 0, TopN) {
			p.printf("  %s. %s\n", r.FormatPosition(), r.DisplayName)
		}
	}

	p.println("")
	p.println(p.heading.Render("Session Details:"))
	p.printf("  Session Name: %s\n", s.SessionName())
	p.printf("  Track: %s\n", s.TrackName())
	p.printf("  Total Entries: %d\n", len(results))
	if start, ok := s.StartTime(); ok {
		p.printf("  Start Time: %s\n", start)
	}
	if end, ok := s.EndTime(); ok {
		p.printf("  End Time: %s\n", end)
	}
}

// Loaded prints the short overview shown right after a fetch.
func (p *Printer) Loaded(s *model.Subsession) {
	p.println("Successfully loaded subsession data:")
	p.printf("  Session: %s\n", s.SessionName())
	p.printf("  Track: %s\n", s.TrackName())
	p.printf("  Entries: %d\n", len(s.Results()))
}

func (p *Printer) List(items []*model.StoredSubsession) {
	if len(items) == 0 {
		p.println("No subsessions stored.")
		return
	}
	p.println(p.heading.Render("Stored subsessions:"))
	for _, item := range items {
		p.printf("  %d  %s  %s  %s\n",
			item.ID, item.SessionName, item.TrackName,
			item.CreatedAt.Local().Format(time.DateTime))
	}
}

// Laps prints the number of laps and the best valid lap per driver.
func (p *Printer) Laps(subsessionID int64, laps []*model.LapTime) {
	p.printf("Stored %d laps for subsession %d\n", len(laps), subsessionID)
	if len(laps) == 0 {
		return
	}
	byDriver := lo.GroupBy(laps, func(l *model.LapTime) int64 { return l.DriverID })
	drivers := lo.Uniq(lo.Map(laps, func(l *model.LapTime, _ int) int64 {
		return l.DriverID
	}))
	p.println(p.heading.Render("Best laps:"))
	for _, id := range drivers {
		driverLaps := byDriver[id]
		valid := lo.Filter(driverLaps, func(l *model.LapTime, _ int) bool {
			return l.Valid()
		})
		if len(valid) == 0 {
			p.printf("  %s: %d laps, no valid time\n", driverLaps[0].DriverName, len(driverLaps))
			continue
		}
		best := lo.MinBy(valid, func(a, b *model.LapTime) bool {
			return a.LapTime.LessThan(b.LapTime)
		})
		p.printf("  %s: %d laps, best %s\n",
			best.DriverName, len(driverLaps), FormatLapTime(best))
	}
}

// FormatLapTime renders a lap time as m:ss.ffff
func FormatLapTime(l *model.LapTime) string {
	if !l.Valid() {
		return "-"
	}
	minutes := l.LapTime.Div(lapMinute).Floor()
	seconds := l.LapTime.Sub(minutes.Mul(lapMinute))
	if minutes.IsZero() {
		return seconds.StringFixed(4)
	}
	sec := seconds.StringFixed(4)
	if seconds.LessThan(ten) {
		sec = "0" + sec
	}
	return fmt.Sprintf("%s:%s", minutes.String(), sec)
}

func (p *Printer) println(msg string) {
	fmt.Fprintln(p.w, msg)
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

var (
	lapMinute = decimal.NewFromInt(60)
	ten       = decimal.NewFromInt(10)
)
