package rotation

import (
	"testing"

	"fira-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		enabled    bool
		rotated    int
		notRotated int
		want       bool
	}{
		{"feature disabled", false, 0, 10, false},
		{"rotated underrepresented", true, 2, 5, true},
		{"not rotated underrepresented", true, 5, 2, false},
		{"exact tie breaks toward not rotated", true, 3, 3, false},
		{"empty counts", true, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.enabled, models.RotationCounts{Rotated: tt.rotated, NotRotated: tt.notRotated})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParts(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  []string
	}{
		{"even length", []string{"a", "b", "c", "d"}, []string{"c", "d", "a", "b"}},
		{"odd length", []string{"a", "b", "c", "d", "e"}, []string{"c", "d", "e", "a", "b"}},
		{"single part", []string{"a"}, []string{"a"}},
		{"two parts", []string{"a", "b"}, []string{"b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parts(tt.parts))
		})
	}
}

// Every displayed position must map back to the part the annotator actually
// saw, for even and odd part counts alike.
func TestUnrotatePositionRoundTrip(t *testing.T) {
	for _, length := range []int{1, 2, 3, 4, 5, 6, 7, 10, 11} {
		parts := make([]string, length)
		for i := range parts {
			parts[i] = string(rune('a' + i))
		}
		displayed := Parts(parts)

		for pos := 0; pos < length; pos++ {
			orig := UnrotatePosition(pos, length)
			assert.GreaterOrEqual(t, orig, 0)
			assert.Less(t, orig, length)
			assert.Equal(t, displayed[pos], parts[orig],
				"length %d display position %d", length, pos)
		}
	}
}

func TestUnrotatePositionOddSplit(t *testing.T) {
	// length 5: display order is parts[2:5] + parts[0:2], so display
	// positions 0..2 come from originals 2..4 and 3..4 from 0..1.
	assert.Equal(t, 2, UnrotatePosition(0, 5))
	assert.Equal(t, 4, UnrotatePosition(2, 5))
	assert.Equal(t, 0, UnrotatePosition(3, 5))
	assert.Equal(t, 1, UnrotatePosition(4, 5))
}
