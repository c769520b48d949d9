package fetch

import "testing"

func TestHeuristicDetector(t *testing.T) {
	t.Parallel()

	d := NewHeuristicDetector(10, []string{"#content"}, []string{"tribe-events-view"})

	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "small body triggers", body: "hi", want: true},
		{name: "keyword triggers", body: "<html><div class=\"tribe-events-view\">x</div> padding padding</html>", want: true},
		{name: "missing selector triggers", body: "<html><body><div id=\"other\">long enough body here</div></body></html>", want: true},
		{name: "all conditions satisfied", body: "<div id=\"content\">ok</div> and enough bytes", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.NeedsJS([]byte(tt.body))
			if got != tt.want {
				t.Fatalf("expected %v got %v", tt.want, got)
			}
		})
	}
}

func TestHeuristicDetectorNoSignalsConfigured(t *testing.T) {
	t.Parallel()

	d := NewHeuristicDetector(0, nil, nil)
	if d.NeedsJS([]byte("<html></html>")) {
		t.Fatal("detector with no signals should never promote")
	}
}
