package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	s := NewScorer()

	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{name: "identical", a: "lodge", b: "lodge", expected: 0},
		{name: "single substitution", a: "lodge", b: "ledge", expected: 1},
		{name: "insertion", a: "lodge", b: "lodges", expected: 1},
		{name: "empty left", a: "", b: "abc", expected: 3},
		{name: "empty right", a: "abc", b: "", expected: 3},
		{name: "unrelated", a: "kitten", b: "sitting", expected: 3},
		{name: "accent is one edit", a: "château", b: "chateau", expected: 1},
		{name: "accents only differ", a: "éèê", b: "eee", expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.LevenshteinDistance(tt.a, tt.b))
			assert.Equal(t, tt.expected, s.LevenshteinDistance(tt.b, tt.a))
		})
	}
}

func TestHaversineMeters(t *testing.T) {
	s := NewScorer()

	// Same point
	assert.InDelta(t, 0, s.HaversineMeters(45.5, -73.5, 45.5, -73.5), 0.001)

	// Montreal to Quebec City is roughly 233km
	dist := s.HaversineMeters(45.5019, -73.5674, 46.8131, -71.2075)
	assert.InDelta(t, 233000, dist, 5000)

	// One thousandth of a degree of latitude is ~111m
	dist = s.HaversineMeters(45.0, -73.0, 45.001, -73.0)
	assert.InDelta(t, 111, dist, 2)
}
