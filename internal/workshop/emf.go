package workshop

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/hfujimori/agenda-sync/internal/agenda"
)

var (
	emfDateRE     = regexp.MustCompile(`(?i)(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2}`)
	emfSpeakerRE  = regexp.MustCompile(`(?i)speaker\s*(?:&|and)\s*title`)
	emfLabelRE    = regexp.MustCompile(`(?i)^(date|venue|speaker)`)
	emfAbstractRE = regexp.MustCompile(`(?i)abstract`)
)

// parseEmpirical walks the Empirical Micro WS listing. The page has no
// per-event Date label; a date-looking line applies to every following
// "Speaker & Title" block until the next date line. 「以下本年度終了分」
// marks the finished-this-year section.
func parseEmpirical(ctx context.Context, f Fetcher, src Source, baseYear int, today time.Time) ([]agenda.Event, error) {
	body, err := f.Fetch(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	lines, err := textLines(body)
	if err != nil {
		return nil, err
	}

	var events []agenda.Event
	var lastDate string
	i, n := 0, len(lines)

	for i < n {
		txt := lines[i]

		if containsFold(txt, "past seminars") || strings.Contains(txt, "以下本年度終了分") {
			break
		}

		if emfDateRE.MatchString(txt) {
			lastDate = agenda.StripWeekday(txt)
			i++
			continue
		}

		if emfSpeakerRE.MatchString(txt) {
			var content []string
			j := i + 1
			for j < n && !emfLabelRE.MatchString(lines[j]) && !emfAbstractRE.MatchString(lines[j]) {
				content = append(content, trimQuotes(lines[j]))
				j++
			}

			if lastDate == "" || len(content) == 0 {
				i = j
				continue
			}

			if d, ok := agenda.NormalizeDate(lastDate, baseYear, today); ok && !d.Before(today) {
				events = append(events, agenda.Event{
					Date:     d,
					Workshop: src.Name,
					Info:     strings.Join(content, ", "),
				})
			}
			i = j
			continue
		}

		i++
	}
	return events, nil
}
