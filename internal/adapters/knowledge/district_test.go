package knowledge

import (
	"strings"
	"testing"
	"time"
)

func TestAnswer(t *testing.T) {
	d := NewBrushyCreek()

	tests := []struct {
		name    string
		query   string
		want    string // substring of the expected answer
		wantHit bool
	}{
		{"water emergency", "I have a water emergency at my house", "ext. 508", true},
		{"water rates", "how much are the water rates", "$20 base fee", true},
		{"cloudy water", "my water looks cloudy", "air bubbles", true},
		{"trash pickup", "when is trash picked up", "weekly", true},
		{"recycling", "what goes in recycling", "tan cart", true},
		{"pool", "are the pools open", "four pools", true},
		{"community center hours", "what are the community center hours", "5:30am", true},
		{"customer service hours", "customer service hours please", "8am-6pm", true},
		{"no match", "tell me a joke", "", false},
		{"partial keywords", "tell me about water", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, ok := d.Answer(tt.query)
			if ok != tt.wantHit {
				t.Fatalf("Answer(%q) hit = %v, want %v", tt.query, ok, tt.wantHit)
			}
			if tt.wantHit && !strings.Contains(answer, tt.want) {
				t.Fatalf("Answer(%q) = %q, want it to mention %q", tt.query, answer, tt.want)
			}
		})
	}
}

func TestAnswerEmergencyOutranksRates(t *testing.T) {
	d := NewBrushyCreek()

	answer, ok := d.Answer("water emergency, also what is the rate")
	if !ok {
		t.Fatal("expected an answer")
	}
	if !strings.Contains(answer, "immediately") {
		t.Fatalf("emergency must win over rates, got %q", answer)
	}
}

func TestAnswerIsCaseInsensitive(t *testing.T) {
	d := NewBrushyCreek()

	if _, ok := d.Answer("WHEN IS TRASH PICKED UP"); !ok {
		t.Fatal("uppercase query must still match")
	}
}

func TestSnapshot(t *testing.T) {
	d := NewBrushyCreek()

	snap := d.Snapshot()
	for _, want := range []string{"Brushy Creek", "(512) 255-7871", "ext. 508", "Known answers:"} {
		if !strings.Contains(snap, want) {
			t.Errorf("snapshot missing %q", want)
		}
	}
	if snap != d.Snapshot() {
		t.Error("snapshot must be stable across calls")
	}
}

func TestOpenNow(t *testing.T) {
	d := NewBrushyCreek()

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"weekday morning", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), true}, // Monday
		{"weekday before open", time.Date(2026, 3, 2, 7, 59, 0, 0, time.UTC), false},
		{"weekday evening", time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC), false},
		{"saturday midday", time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC), true},
		{"saturday late", time.Date(2026, 3, 7, 15, 30, 0, 0, time.UTC), false},
		{"sunday", time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.OpenNow(tt.t); got != tt.want {
				t.Errorf("OpenNow(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestGreetings(t *testing.T) {
	d := NewBrushyCreek()

	if g := d.Greeting("Casey"); !strings.Contains(g, "Casey") || !strings.Contains(g, d.Name) {
		t.Errorf("greeting = %q", g)
	}
	if g := d.AfterHoursGreeting(); !strings.Contains(g, "closed") || !strings.Contains(g, "ext. 508") {
		t.Errorf("after-hours greeting = %q", g)
	}
}

func TestInfo(t *testing.T) {
	d := NewBrushyCreek()

	info := d.Info()
	if info["name"] != d.Name || info["phone"] != d.Phone {
		t.Fatalf("info = %+v", info)
	}
	emergency, ok := info["emergency"].(map[string]string)
	if !ok || emergency["phone"] == "" {
		t.Fatalf("emergency block = %+v", info["emergency"])
	}
}

func TestReady(t *testing.T) {
	if !NewBrushyCreek().Ready() {
		t.Fatal("built-in knowledge base must be ready")
	}
}
