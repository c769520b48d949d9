// Package artifact renders the agenda into the two tracked output files
// and writes them without ever exposing a partial state.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"github.com/hfujimori/agenda-sync/internal/agenda"
)

// jst is used only for the human-readable footer; dates stay UTC.
var jst = time.FixedZone("JST", 9*60*60)

var pageTemplate = template.Must(template.New("agenda").Parse(`<!DOCTYPE html>
<html lang="ja">
<meta charset="utf-8">
<title>CIRJE Workshops – Upcoming</title>
<body>
  <h2>今後のセミナー予定（自動更新）</h2>
  <ul>
{{- range .Events}}
    <li>{{.Date.ISO}} – <strong>{{.Workshop}}</strong> – {{.Info}}</li>
{{- end}}
  </ul>
  <p style="font-size:smaller">Last updated: {{.Updated}}</p>
</body>
</html>
`))

type pageData struct {
	Events  []agenda.Event
	Updated string
}

// RenderHTML produces the docs page for the given events. The timestamp
// comes from the caller so a run has one consistent "now".
func RenderHTML(events []agenda.Event, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	data := pageData{
		Events:  events,
		Updated: now.In(jst).Format("2006-01-02 15:04 JST"),
	}
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderJSON produces the events.json payload: a two-space-indented array
// with non-ASCII text left unescaped.
func RenderJSON(events []agenda.Event) ([]byte, error) {
	if events == nil {
		events = []agenda.Event{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(events); err != nil {
		return nil, fmt.Errorf("render json: %w", err)
	}
	return buf.Bytes(), nil
}
