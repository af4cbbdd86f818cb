// AngelaMos | 2026
// entity_test.go

package okr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/northstarhq/northstar/internal/okr"
)

func TestKeyResultProgressPercent(t *testing.T) {
	tests := []struct {
		name    string
		start   float64
		target  float64
		current float64
		want    float64
	}{
		{name: "untouched", start: 0, target: 100, current: 0, want: 0},
		{name: "halfway", start: 0, target: 100, current: 50, want: 50},
		{name: "complete", start: 0, target: 100, current: 100, want: 100},
		{name: "overshoot clamps", start: 0, target: 100, current: 130, want: 100},
		{name: "regression clamps", start: 10, target: 100, current: 4, want: 0},
		{name: "nonzero start", start: 50, target: 150, current: 75, want: 25},
		{name: "decreasing target halfway", start: 40, target: 20, current: 30, want: 50},
		{name: "decreasing target done", start: 40, target: 20, current: 20, want: 100},
		{name: "decreasing target overshoot", start: 40, target: 20, current: 5, want: 100},
		{name: "decreasing target regression", start: 40, target: 20, current: 55, want: 0},
		{name: "zero span unmet", start: 10, target: 10, current: 3, want: 0},
		{name: "zero span met", start: 10, target: 10, current: 10, want: 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kr := okr.KeyResult{
				StartValue:   tc.start,
				TargetValue:  tc.target,
				CurrentValue: tc.current,
			}
			assert.InDelta(t, tc.want, kr.ProgressPercent(), 0.0001)
		})
	}
}

func TestObjectiveProgressAveragesKeyResults(t *testing.T) {
	o := okr.Objective{
		KeyResults: []okr.KeyResult{
			{StartValue: 0, TargetValue: 100, CurrentValue: 100},
			{StartValue: 0, TargetValue: 100, CurrentValue: 50},
			{StartValue: 0, TargetValue: 100, CurrentValue: 0},
		},
	}
	assert.InDelta(t, 50.0, o.ProgressPercent(), 0.0001)
}

func TestObjectiveWithoutKeyResultsReportsZero(t *testing.T) {
	o := okr.Objective{}
	assert.Zero(t, o.ProgressPercent())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, okr.StatusDraft.Valid())
	assert.True(t, okr.StatusArchived.Valid())
	assert.False(t, okr.Status("paused").Valid())
	assert.False(t, okr.Status("").Valid())
}
