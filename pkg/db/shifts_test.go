package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jakechorley/venue-rota/pkg/core/model"
)

func TestSortShifts_DateThenDisplayOrder(t *testing.T) {
	shifts := []Shift{
		{ID: "1", ShiftDate: "2025-03-04", LocationID: "loc-b"},
		{ID: "2", ShiftDate: "2025-03-03", LocationID: "loc-unknown"},
		{ID: "3", ShiftDate: "2025-03-03", LocationID: "loc-b"},
		{ID: "4", ShiftDate: "2025-03-03", LocationID: "loc-a"},
	}
	order := map[string]int{"loc-a": 0, "loc-b": 1}

	SortShifts(shifts, order)

	var ids []string
	for _, s := range shifts {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"4", "3", "2", "1"}, ids)
}

func TestFindDuplicateKeys(t *testing.T) {
	tests := []struct {
		name     string
		shifts   []Shift
		expected []ShiftKey
	}{
		{
			name: "same slot in different statuses is allowed",
			shifts: []Shift{
				{ShiftDate: "2025-03-03", LocationID: "loc-a", Status: model.StatusDraft},
				{ShiftDate: "2025-03-03", LocationID: "loc-a", Status: model.StatusPublished},
			},
			expected: nil,
		},
		{
			name: "same slot twice in one status is reported once",
			shifts: []Shift{
				{ShiftDate: "2025-03-03", LocationID: "loc-a", Status: model.StatusDraft},
				{ShiftDate: "2025-03-03", LocationID: "loc-a", Status: model.StatusDraft, WorkerID: "w1"},
				{ShiftDate: "2025-03-03", LocationID: "loc-a", Status: model.StatusDraft, WorkerID: "w2"},
			},
			expected: []ShiftKey{{ShiftDate: "2025-03-03", LocationID: "loc-a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FindDuplicateKeys(tt.shifts))
		})
	}
}

func TestShift_IsOpen(t *testing.T) {
	assert.True(t, Shift{}.IsOpen())
	assert.False(t, Shift{WorkerID: "w1"}.IsOpen())
}
