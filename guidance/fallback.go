// Package guidance turns a SituationRecord into Korean instructions for a
// person who is alone. A language model writes the text when one is
// configured; the canned strings in this file are the fallback.
package guidance

import "go-silversense/types"

const (
	resuscitationGuidance = "지금 즉시 119에 신고하고, 심폐소생술이 가능한 사람을 찾으세요."
	seekHelpGuidance      = "환자를 편안히 앉히고 통증이 심해지면 즉시 119에 신고하세요."
	observeGuidance       = "증상을 관찰하고 악화되면 바로 119에 신고하세요."
)

// GuidanceFor returns the canned instruction for a situation id. S2 gets the
// resuscitation instruction, S1/S3/S5/S6/S7 the seek-help instruction and
// everything else, S4 included, the observe instruction.
func GuidanceFor(id types.SituationID) string {
	switch id {
	case types.S2:
		return resuscitationGuidance
	case types.S1, types.S3, types.S5, types.S6, types.S7:
		return seekHelpGuidance
	default:
		return observeGuidance
	}
}
