// Package workflow holds the pure case-progression rules: the 14-stage
// catalog and the time-based priority classifier. Nothing here touches the
// database; callers feed in case fields and a clock.
package workflow

// StageCount is the number of stages in the case lifecycle.
const StageCount = 14

type stageInfo struct {
	percent int
	name    string
}

// stages maps workflow stage numbers to their completion percentage and
// display name. Percentages are milestones agreed with the business, not a
// linear scale; stage 7 gets an extra point so R&D reads as "past half".
var stages = map[int]stageInfo{
	1:  {7, "Stage 1: Case Opened"},
	2:  {14, "Stage 2: Client Contacted"},
	3:  {21, "Stage 3: Consent Sent"},
	4:  {28, "Stage 4: Consent Received"},
	5:  {35, "Stage 5: INA Visit Scheduled"},
	6:  {42, "Stage 6: INA Visit Completed"},
	7:  {50, "Stage 7: R&D Phase"},
	8:  {57, "Stage 8: Report Writing"},
	9:  {64, "Stage 9: Internal Review"},
	10: {71, "Stage 10: 1st Reader Assigned"},
	11: {78, "Stage 11: 1st Reader Corrections"},
	12: {85, "Stage 12: 2nd Reader Assigned"},
	13: {92, "Stage 13: 2nd Reader Corrections"},
	14: {100, "Stage 14: Case Closure"},
}

// StagePercent returns the completion percentage for a stage, or 0 for any
// stage outside 1..14.
func StagePercent(stage int) int {
	return stages[stage].percent
}

// StageName returns the display name for a stage, or "Unknown Stage" for any
// stage outside 1..14.
func StageName(stage int) string {
	if s, ok := stages[stage]; ok {
		return s.name
	}
	return "Unknown Stage"
}

// ValidStage reports whether stage is within the catalog.
func ValidStage(stage int) bool {
	_, ok := stages[stage]
	return ok
}
