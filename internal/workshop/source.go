// Package workshop extracts upcoming seminar events from the CIRJE
// workshop pages. Each source has its own parser because the pages share
// no markup: some are label-driven text listings (partly in Japanese),
// one is a WordPress events calendar.
package workshop

import (
	"context"
	"time"

	"github.com/hfujimori/agenda-sync/internal/agenda"
)

// Fetcher returns the UTF-8 body of a page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// ParseFunc extracts the upcoming events of one source. today is the
// UTC-midnight cutoff; baseYear anchors dates written without a year.
type ParseFunc func(ctx context.Context, f Fetcher, src Source, baseYear int, today time.Time) ([]agenda.Event, error)

// Source is one workshop listing.
type Source struct {
	Key   string
	Name  string
	URL   string
	Parse ParseFunc
}

// Default source URLs. Overridable per source for tests.
const (
	urlMacro = "https://www.cirje.e.u-tokyo.ac.jp/research/workshops/macro/macro.html"
	urlUrban = "https://www.cirje.e.u-tokyo.ac.jp/research/workshops/urban/urban.html"
	urlStats = "https://www.cirje.e.u-tokyo.ac.jp/research/workshops/stateng/stateng.html"
	urlEmf   = "https://www.cirje.e.u-tokyo.ac.jp/research/workshops/emf/emf.html"
	urlMicro = "https://www.computer-services.e.u-tokyo.ac.jp/wp/events/list/?tribe_eventcategory%5B0%5D=7&tribe_eventcategory%5B1%5D=8"
)

// Sources returns the full registry in rendering order.
func Sources() []Source {
	return []Source{
		{Key: "macro", Name: "Macroeconomics WS", URL: urlMacro, Parse: parseMacro},
		{Key: "urban", Name: "Urban Economics WS", URL: urlUrban, Parse: parseUrban},
		{Key: "stats", Name: "Applied Statistics WS", URL: urlStats, Parse: parseStats},
		{Key: "emf", Name: "Empirical Micro WS", URL: urlEmf, Parse: parseEmpirical},
		{Key: "micro", Name: "Micro Theory WS", URL: urlMicro, Parse: parseMicro},
	}
}
