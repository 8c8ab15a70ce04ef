package sheetsclient

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jakechorley/venue-rota/internal/config"
	"github.com/jakechorley/venue-rota/pkg/core/model"
	"github.com/jakechorley/venue-rota/pkg/db"
)

var _ db.RosterStore = (*RosterSource)(nil)

// Expected column names in each roster tab
var (
	workerFields   = []string{"ID", "Name", "Helper", "Sick leave", "Active"}
	locationFields = []string{"ID", "Name", "Zone", "Order", "Active"}
	settingFields  = []string{"Worker ID", "Location ID", "Allowed", "Preferred"}
)

// ValuesReader reads a range of cells from a spreadsheet
type ValuesReader interface {
	GetValues(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error)
}

// RosterSource serves the roster from the workers, locations and settings tabs of one spreadsheet
type RosterSource struct {
	values ValuesReader
	cfg    config.RosterConfig
}

// NewRosterSource creates a roster source reading the tabs named in cfg
func NewRosterSource(values ValuesReader, cfg config.RosterConfig) *RosterSource {
	return &RosterSource{values: values, cfg: cfg}
}

// GetWorkers retrieves and parses the workers tab
func (s *RosterSource) GetWorkers(ctx context.Context) ([]model.Worker, error) {
	table, err := s.readTab(ctx, s.cfg.WorkersTab, workerFields)
	if err != nil {
		return nil, err
	}

	var workers []model.Worker
	seen := make(map[string]bool)
	for _, row := range table.rows {
		id := table.get(row, "ID")
		if id == "" {
			continue
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate worker ID %q in %s", id, s.cfg.WorkersTab)
		}
		seen[id] = true

		workers = append(workers, model.Worker{
			ID:          id,
			Name:        table.get(row, "Name"),
			IsHelper:    parseFlag(table.get(row, "Helper"), false),
			OnSickLeave: parseFlag(table.get(row, "Sick leave"), false),
			IsActive:    parseFlag(table.get(row, "Active"), true),
		})
	}

	sort.SliceStable(workers, func(i, j int) bool { return workers[i].Name < workers[j].Name })
	return workers, nil
}

// GetLocations retrieves the active locations from the locations tab in display order
func (s *RosterSource) GetLocations(ctx context.Context) ([]model.Location, error) {
	table, err := s.readTab(ctx, s.cfg.LocationsTab, locationFields)
	if err != nil {
		return nil, err
	}

	var locations []model.Location
	seen := make(map[string]bool)
	for i, row := range table.rows {
		id := table.get(row, "ID")
		if id == "" {
			continue
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate location ID %q in %s", id, s.cfg.LocationsTab)
		}
		seen[id] = true

		if !parseFlag(table.get(row, "Active"), true) {
			continue
		}

		order := 0
		if raw := table.get(row, "Order"); raw != "" {
			order, err = strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid order %q for location in row %d", raw, i+2)
			}
		}

		locations = append(locations, model.Location{
			ID:           id,
			Name:         table.get(row, "Name"),
			Zone:         table.get(row, "Zone"),
			DisplayOrder: order,
			IsActive:     true,
		})
	}

	sort.SliceStable(locations, func(i, j int) bool {
		if locations[i].DisplayOrder != locations[j].DisplayOrder {
			return locations[i].DisplayOrder < locations[j].DisplayOrder
		}
		return locations[i].ID < locations[j].ID
	})
	return locations, nil
}

// GetEligibilitySettings retrieves the settings tab. A row with an empty Allowed cell allows the pair.
func (s *RosterSource) GetEligibilitySettings(ctx context.Context) ([]model.EligibilitySetting, error) {
	table, err := s.readTab(ctx, s.cfg.SettingsTab, settingFields)
	if err != nil {
		return nil, err
	}

	var settings []model.EligibilitySetting
	for _, row := range table.rows {
		workerID := table.get(row, "Worker ID")
		locationID := table.get(row, "Location ID")
		if workerID == "" || locationID == "" {
			continue
		}

		settings = append(settings, model.EligibilitySetting{
			WorkerID:    workerID,
			LocationID:  locationID,
			IsAllowed:   parseFlag(table.get(row, "Allowed"), true),
			IsPreferred: parseFlag(table.get(row, "Preferred"), false),
		})
	}

	return settings, nil
}

func (s *RosterSource) readTab(ctx context.Context, tab string, fields []string) (*sheetTable, error) {
	values, err := s.values.GetValues(ctx, s.cfg.SheetID, tab)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", tab, err)
	}

	table, err := parseTable(values, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", tab, err)
	}
	return table, nil
}

// sheetTable is a tab split into a header index and data rows
type sheetTable struct {
	index map[string]int
	rows  [][]interface{}
}

// parseTable locates each required field in the header row
func parseTable(raw [][]interface{}, fields []string) (*sheetTable, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("no header row found")
	}

	index := make(map[string]int)
	for _, field := range fields {
		found := -1
		for i, cell := range raw[0] {
			if strings.EqualFold(strings.TrimSpace(cellString(cell)), field) {
				found = i
				break
			}
		}
		if found == -1 {
			return nil, fmt.Errorf("missing required field in header: %s", field)
		}
		index[field] = found
	}

	return &sheetTable{index: index, rows: raw[1:]}, nil
}

// get returns the trimmed cell for field, or "" when the row is short
func (t *sheetTable) get(row []interface{}, field string) string {
	i, ok := t.index[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(cellString(row[i]))
}

func cellString(cell interface{}) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// parseFlag reads a checkbox or yes/no cell. Empty or unrecognised cells take the default.
func parseFlag(s string, def bool) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1", "x":
		return true
	case "false", "no", "n", "0":
		return false
	default:
		return def
	}
}
