package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		raw      string
		expected Role
	}{
		{"trained", RoleTrained},
		{"Trained", RoleTrained},
		{"shadow", RoleShadow},
		{"SHADOW", RoleShadow},
		{"reverse_shadow", RoleReverseShadow},
		{"reverse shadow", RoleReverseShadow},
		{"Reverse Shadow", RoleReverseShadow},
		{"reverseshadow", RoleReverseShadow},
		{"unknown_role", Role("unknown_role")},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeRole(tt.raw))
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 15, cfg.TimeStepMinutes)
	assert.Equal(t, 5, cfg.WeeklyLimit)
	assert.Equal(t, 30.0, cfg.MaxTimeSeconds)
	assert.False(t, cfg.RequireDistinctDays)
	assert.Equal(t, 50, cfg.TopKSolutions)
	assert.True(t, cfg.ScheduleOnSameDay)
	assert.Zero(t, cfg.MinGapBetweenStages)
}
