package commands

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/venue-rota/pkg/core/model"
	"github.com/jakechorley/venue-rota/pkg/core/services"
)

func TestFormatGrid(t *testing.T) {
	view := &services.ScheduleView{
		Status: model.StatusPublished,
		Dates: []time.Time{
			time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
		},
		Rows: []services.ScheduleRow{
			{LocationID: "hall-1", LocationName: "Main Hall", Cells: []string{"Alice", ""}},
			{LocationID: "foyer", LocationName: "Foyer", Cells: []string{"Bob", "Christopher"}},
		},
		ShiftCount: 4,
	}

	lines := strings.Split(strings.TrimRight(formatGrid(view, plainGrid), "\n"), "\n")
	require.Len(t, lines, 4)

	assert.Equal(t, "Location   Mon 03/03  Tue 04/03  ", lines[0])
	assert.Equal(t, "---------  ---------  -----------", lines[1])
	assert.Equal(t, "Main Hall  Alice      —          ", lines[2])
	assert.Equal(t, "Foyer      Bob        Christopher", lines[3])
}

func TestFormatGrid_StylesOpenCellsOnly(t *testing.T) {
	mark := func(s string) string { return "[" + s + "]" }
	view := &services.ScheduleView{
		Dates: []time.Time{time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)},
		Rows:  []services.ScheduleRow{{LocationName: "Hall", Cells: []string{""}}},
	}

	lines := strings.Split(strings.TrimRight(formatGrid(view, gridStyle{header: mark, separator: plain, open: mark}), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "[Location  Mon 03/03]", lines[0])
	assert.Equal(t, "Hall      [—]        ", lines[2])
}

func TestTermGrid_KeepsCellText(t *testing.T) {
	for name, decorate := range map[string]func(string) string{
		"header":    termGrid.header,
		"separator": termGrid.separator,
		"open":      termGrid.open,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Contains(t, decorate("Main Hall"), "Main Hall")
		})
	}
}

func TestFormatPreview(t *testing.T) {
	alice := "Alice"
	out := formatPreview([]services.PreviewItem{
		{Date: "2025-03-03", LocationID: "hall-1", WorkerName: &alice},
		{Date: "2025-03-03", LocationID: "foyer"},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Date"))
	assert.Equal(t, "2025-03-03    hall-1                Alice", lines[2])
	assert.Equal(t, "2025-03-03    foyer                 —", lines[3])
}

func TestRosterTags(t *testing.T) {
	tests := []struct {
		name  string
		entry services.RosterEntry
		want  string
	}{
		{"schedulable", services.RosterEntry{Worker: model.Worker{IsActive: true}, Schedulable: true}, ""},
		{"inactive", services.RosterEntry{Worker: model.Worker{IsActive: false, IsHelper: true}}, " [inactive]"},
		{"helper", services.RosterEntry{Worker: model.Worker{IsActive: true, IsHelper: true}}, " [helper]"},
		{"sick", services.RosterEntry{Worker: model.Worker{IsActive: true, OnSickLeave: true}}, " [sick leave]"},
		{"weekend", services.RosterEntry{Worker: model.Worker{IsActive: true}, WeekendOnly: true}, " [weekends only]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rosterTags(tt.entry))
		})
	}
}
