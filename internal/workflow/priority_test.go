package workflow

import (
	"testing"
	"time"
)

func TestClassifyBoundaries(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		days int
		want string
	}{
		{0, PriorityOnTrack},
		{1, PriorityOnTrack},
		{2, PriorityOnTrack},
		{3, PriorityAttention},
		{4, PriorityAttention},
		{5, PriorityAttention},
		{6, PriorityUrgent},
		{30, PriorityUrgent},
	}
	for _, tc := range cases {
		updated := now.AddDate(0, 0, -tc.days)
		p := Classify(updated, now)
		if p.Level != tc.want {
			t.Errorf("%d days: level %q, want %q", tc.days, p.Level, tc.want)
		}
		if p.DaysInStage != tc.days {
			t.Errorf("%d days: DaysInStage = %d", tc.days, p.DaysInStage)
		}
	}
}

func TestClassifyFloorsPartialDays(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	// 5 days 23 hours is still 5 whole days, so still attention.
	updated := now.Add(-(5*24 + 23) * time.Hour)
	if p := Classify(updated, now); p.Level != PriorityAttention {
		t.Fatalf("5d23h: level %q, want attention", p.Level)
	}

	// One more hour crosses into day 6 and turns urgent.
	updated = now.Add(-6 * 24 * time.Hour)
	if p := Classify(updated, now); p.Level != PriorityUrgent {
		t.Fatalf("6d: level %q, want urgent", p.Level)
	}
}

func TestClassifyFutureTimestamp(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	p := Classify(now.Add(2*time.Hour), now)
	if p.Level != PriorityOnTrack || p.DaysInStage != 0 {
		t.Fatalf("future timestamp: got %+v", p)
	}
}

func TestClassifyPresentation(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	urgent := Classify(now.AddDate(0, 0, -7), now)
	if urgent.Color != "#dc2626" || urgent.Label != "URGENT" || urgent.Icon != "🔴" {
		t.Fatalf("urgent presentation: %+v", urgent)
	}
	attention := Classify(now.AddDate(0, 0, -4), now)
	if attention.Color != "#ca8a04" || attention.Label != "ATTENTION" || attention.Icon != "🟡" {
		t.Fatalf("attention presentation: %+v", attention)
	}
	onTrack := Classify(now, now)
	if onTrack.Color != "#16a34a" || onTrack.Label != "ON TRACK" || onTrack.Icon != "🟢" {
		t.Fatalf("onTrack presentation: %+v", onTrack)
	}
}
