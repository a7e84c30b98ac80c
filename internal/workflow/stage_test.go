package workflow

import "testing"

func TestStagePercentSequence(t *testing.T) {
	want := []int{7, 14, 21, 28, 35, 42, 50, 57, 64, 71, 78, 85, 92, 100}
	for i, w := range want {
		stage := i + 1
		if got := StagePercent(stage); got != w {
			t.Fatalf("stage %d: percent %d, want %d", stage, got, w)
		}
	}
}

func TestStagePercentMonotonic(t *testing.T) {
	prev := 0
	for stage := 1; stage <= StageCount; stage++ {
		p := StagePercent(stage)
		if p <= prev {
			t.Fatalf("stage %d: percent %d not greater than previous %d", stage, p, prev)
		}
		prev = p
	}
	if prev != 100 {
		t.Fatalf("final stage percent = %d, want 100", prev)
	}
}

func TestStageOutOfRange(t *testing.T) {
	for _, stage := range []int{0, 15, -1, 100} {
		if got := StagePercent(stage); got != 0 {
			t.Errorf("stage %d: percent %d, want 0", stage, got)
		}
		if got := StageName(stage); got != "Unknown Stage" {
			t.Errorf("stage %d: name %q, want Unknown Stage", stage, got)
		}
		if ValidStage(stage) {
			t.Errorf("stage %d: valid, want invalid", stage)
		}
	}
}

func TestStageNames(t *testing.T) {
	if got := StageName(1); got != "Stage 1: Case Opened" {
		t.Fatalf("stage 1 name = %q", got)
	}
	if got := StageName(7); got != "Stage 7: R&D Phase" {
		t.Fatalf("stage 7 name = %q", got)
	}
	if got := StageName(14); got != "Stage 14: Case Closure" {
		t.Fatalf("stage 14 name = %q", got)
	}
}
