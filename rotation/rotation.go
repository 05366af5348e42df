// Package rotation balances positional exposure bias by mirroring the order
// of document parts shown to annotators. Whether a judgement is rotated is
// decided once at creation time; the transforms here convert between the
// displayed (possibly rotated) part order and the stored one.
package rotation

import "fira-backend/models"

// Decide returns whether the next judgement should present rotated document
// text. With the feature disabled it is always false; otherwise rotation is
// assigned to whichever variant is currently under-represented, with exact
// ties broken toward not rotated.
func Decide(featureEnabled bool, counts models.RotationCounts) bool {
	if !featureEnabled {
		return false
	}
	return counts.Rotated < counts.NotRotated
}

// Parts returns the document parts in display order for a rotated
// judgement: the back half first, split at floor(len/2).
func Parts(parts []string) []string {
	idx := len(parts) / 2
	out := make([]string, 0, len(parts))
	out = append(out, parts[idx:]...)
	out = append(out, parts[:idx]...)
	return out
}

// UnrotatePosition maps an annotated position on rotated parts back to its
// index in the stored, unrotated order. The split point here is ceil(len/2),
// deliberately not the floor used by Parts: for odd lengths the display
// rotation moves ceil(len/2) parts to the front, so the inverse must shift
// by ceil going down and floor going up.
func UnrotatePosition(pos, length int) int {
	ceilHalf := (length + 1) / 2
	if pos >= ceilHalf {
		return pos - ceilHalf
	}
	return pos + length/2
}
