package notifications

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Entry is one example line in a stage summary.
type Entry struct {
	VideoID string
	Title   string
	Detail  string
}

// Summary is the end-of-stage report.
type Summary struct {
	Heading     string
	Total       int
	Succeeded   []Entry
	Failed      []Entry
	Notes       []string
	CompletedAt time.Time
}

// Limits caps the rendered size of a Summary.
type Limits struct {
	MaxExamples int
	TitleWidth  int
	MaxRunes    int
}

// DefaultLimits keeps summaries inside a single Telegram message.
var DefaultLimits = Limits{MaxExamples: 10, TitleWidth: 50, MaxRunes: 3800}

type lineBuilder struct {
	lines []string
	runes int
	limit int
	full  bool
}

func (b *lineBuilder) fits(line string) bool {
	return b.limit <= 0 || b.runes+utf8.RuneCountInString(line)+1 <= b.limit
}

func (b *lineBuilder) add(line string) bool {
	if b.full || !b.fits(line) {
		b.full = true
		return false
	}
	b.lines = append(b.lines, line)
	b.runes += utf8.RuneCountInString(line) + 1
	return true
}

// force appends without checking the limit; used for trailers.
func (b *lineBuilder) force(line string) {
	b.lines = append(b.lines, line)
	b.runes += utf8.RuneCountInString(line) + 1
}

// Render formats s as HTML. Each list shows at most MaxExamples entries and
// the whole message stops near MaxRunes with an "... y N más" trailer.
func (s Summary) Render(l Limits) string {
	if l.MaxExamples < 0 {
		l.MaxExamples = 0
	}
	if l.TitleWidth <= 0 {
		l.TitleWidth = DefaultLimits.TitleWidth
	}
	// leave room for the trailer and completion line
	reserve := 80
	b := &lineBuilder{limit: l.MaxRunes - reserve}
	if l.MaxRunes <= 0 {
		b.limit = 0
	}

	b.force(fmt.Sprintf("📋 <b>%s</b>", Escape(s.Heading)))
	b.force(fmt.Sprintf("📊 <b>Total procesados:</b> %d", s.Total))
	b.force(fmt.Sprintf("✅ <b>Exitosos:</b> %d", len(s.Succeeded)))
	b.force(fmt.Sprintf("❌ <b>Fallidos:</b> %d", len(s.Failed)))

	dropped := 0
	dropped += s.renderList(b, "🎬 <b>Completados:</b>", s.Succeeded, l, "")
	dropped += s.renderList(b, "❌ <b>Con errores:</b>", s.Failed, l, "🚫 ")
	for _, note := range s.Notes {
		if !b.add(Escape(note)) {
			dropped++
		}
	}
	if b.full && dropped > 0 {
		b.force(fmt.Sprintf("... y %d más", dropped))
	}
	if !s.CompletedAt.IsZero() {
		b.force("")
		b.force(fmt.Sprintf("🕒 <b>Completado:</b> %s", s.CompletedAt.Format("2006-01-02 15:04:05")))
	}
	return strings.Join(b.lines, "\n")
}

// renderList writes one capped list and returns how many entries were cut by
// the overall size limit.
func (s Summary) renderList(b *lineBuilder, heading string, entries []Entry, l Limits, detailPrefix string) int {
	if len(entries) == 0 || l.MaxExamples == 0 {
		return 0
	}
	if !b.add("") || !b.add(heading) {
		return len(entries)
	}
	shown := min(len(entries), l.MaxExamples)
	for i := range shown {
		entry := entries[i]
		line := fmt.Sprintf("%d. %s", i+1, Escape(TruncateRunes(strings.TrimSpace(entry.Title), l.TitleWidth)))
		if entry.VideoID != "" {
			line += fmt.Sprintf(" (<code>%s</code>)", Escape(entry.VideoID))
		}
		if !b.add(line) {
			return len(entries) - i
		}
		if detail := strings.TrimSpace(entry.Detail); detail != "" {
			b.add("   " + detailPrefix + Escape(TruncateRunes(detail, l.TitleWidth*2)))
		}
	}
	if rest := len(entries) - shown; rest > 0 {
		b.add(fmt.Sprintf("... y %d más", rest))
	}
	return 0
}
