package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestVerdictRoundTrip(t *testing.T) {
	for v := VerdictPending; v <= VerdictSystemError; v++ {
		parsed, err := ParseVerdict(v.String())
		if err != nil {
			t.Fatalf("ParseVerdict(%s): %v", v, err)
		}
		if parsed != v {
			t.Errorf("ParseVerdict(%s) = %v", v, parsed)
		}
	}
	if _, err := ParseVerdict("NOPE"); err == nil {
		t.Error("expected error for unknown verdict")
	}
}

func TestVerdictJSON(t *testing.T) {
	data, err := json.Marshal(VerdictAccepted)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"AC"` {
		t.Errorf("marshal = %s", data)
	}

	var v Verdict
	if err := json.Unmarshal([]byte(`"TLE"`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v != VerdictTimeLimitExceeded {
		t.Errorf("unmarshal = %v", v)
	}
}

func TestVerdictTerminal(t *testing.T) {
	if VerdictPending.Terminal() {
		t.Error("PENDING should not be terminal")
	}
	for v := VerdictAccepted; v <= VerdictSystemError; v++ {
		if !v.Terminal() {
			t.Errorf("%s should be terminal", v)
		}
	}
}

func TestContestWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	contest := Contest{StartTime: start, EndTime: start.Add(time.Hour)}

	tests := []struct {
		name    string
		now     time.Time
		running bool
	}{
		{"before start", start.Add(-time.Second), false},
		{"at start", start, true},
		{"mid contest", start.Add(30 * time.Minute), true},
		{"at end", start.Add(time.Hour), true},
		{"after end", start.Add(time.Hour + time.Second), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contest.Running(tt.now); got != tt.running {
				t.Errorf("Running = %v, want %v", got, tt.running)
			}
		})
	}
}

func TestElapsedSeconds(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sub := Submission{SubmittedAt: start.Add(90*time.Second + 500*time.Millisecond)}
	if got := sub.ElapsedSeconds(start); got != 90 {
		t.Errorf("ElapsedSeconds = %d, want 90", got)
	}
}
