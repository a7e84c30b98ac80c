package workflow

import "time"

// Priority levels, ordered by urgency.
const (
	PriorityUrgent    = "urgent"
	PriorityAttention = "attention"
	PriorityOnTrack   = "onTrack"
)

// Thresholds in whole days since the last stage change.
const (
	urgentAfterDays    = 5
	attentionAfterDays = 3
)

// Priority describes how a case's time-in-stage should be surfaced in lists
// and dashboards.
type Priority struct {
	Level       string `json:"level" enum:"urgent,attention,onTrack"`
	DaysInStage int    `json:"days_in_stage"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Label       string `json:"label"`
}

// Classify buckets a case by whole days elapsed since stageUpdatedAt.
// Strictly more than 5 days is urgent, 3 to 5 days needs attention, anything
// younger is on track. Partial days are floored, so a case turns urgent at
// the start of day 6.
func Classify(stageUpdatedAt, now time.Time) Priority {
	days := int(now.Sub(stageUpdatedAt).Hours() / 24)
	if days < 0 {
		days = 0
	}
	switch {
	case days > urgentAfterDays:
		return Priority{Level: PriorityUrgent, DaysInStage: days, Color: "#dc2626", Icon: "🔴", Label: "URGENT"}
	case days >= attentionAfterDays:
		return Priority{Level: PriorityAttention, DaysInStage: days, Color: "#ca8a04", Icon: "🟡", Label: "ATTENTION"}
	default:
		return Priority{Level: PriorityOnTrack, DaysInStage: days, Color: "#16a34a", Icon: "🟢", Label: "ON TRACK"}
	}
}
