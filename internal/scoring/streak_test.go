package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMissedLastWeek(t *testing.T) {
	today := time.Date(2025, 6, 20, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		date string
		want bool
	}{
		{"today", "2025-06-20", false},
		{"yesterday", "2025-06-19", false},
		{"exactly seven days", "2025-06-13", false},
		{"eight days", "2025-06-12", true},
		{"far past sentinel", "2000-01-01", true},
		{"future date", "2025-07-01", false},
		{"malformed date", "not-a-date", true},
		{"empty date", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MissedLastWeek(today, tt.date))
		})
	}
}

func TestBonusMultiplier(t *testing.T) {
	tests := []struct {
		streak int
		want   float64
	}{
		{0, 1.0},
		{1, 1.1},
		{2, 1.2},
		{4, 1.4},
		{10, 1.4}, // capped
		{-3, 1.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, BonusMultiplier(tt.streak), 1e-9, "streak %d", tt.streak)
	}
}

func TestWorksheetPoints(t *testing.T) {
	tests := []struct {
		streak int
		want   int
	}{
		{0, 20},
		{1, 22},
		{2, 24},
		{3, 26},
		{4, 28},
		{10, 28}, // capped at +40%
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WorksheetPoints(tt.streak), "streak %d", tt.streak)
	}
}
