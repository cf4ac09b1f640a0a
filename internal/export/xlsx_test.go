package export

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/kwf-energie/energiemonitor/internal/logging"
	"github.com/kwf-energie/energiemonitor/internal/models"
)

// baseTs is 2025-06-15T00:00:00Z in epoch milliseconds
const baseTs int64 = 1749945600000

func reading(ts int64, sensorID, point string, values map[string]interface{}) models.Reading {
	return models.Reading{
		Timestamp:     ts,
		Values:        values,
		SensorID:      sensorID,
		MeteringPoint: point,
		DeviceID:      "emon01",
	}
}

func TestBuildWorkbook_SheetPerSensor(t *testing.T) {
	readings := []models.Reading{
		reading(baseTs, "shelly-3em-pro", "E1", map[string]interface{}{"act_power": 12.5}),
		reading(baseTs+1000, "victron", "E2", map[string]interface{}{"voltage": 231.2}),
	}

	f, err := BuildWorkbook(readings)
	if err != nil {
		t.Fatalf("BuildWorkbook failed: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 {
		t.Fatalf("Expected 2 sheets, got %v", sheets)
	}
	for _, want := range []string{"shelly-3em-pro", "victron"} {
		if idx, _ := f.GetSheetIndex(want); idx < 0 {
			t.Errorf("Expected sheet %q, got %v", want, sheets)
		}
	}
}

func TestBuildWorkbook_HeaderAndRows(t *testing.T) {
	readings := []models.Reading{
		reading(baseTs, "shelly-3em-pro", "E1", map[string]interface{}{"voltage": 231.2, "act_power": 12.5}),
		reading(baseTs+1000, "shelly-3em-pro", "E1", map[string]interface{}{"current": 0.4}),
	}

	f, err := BuildWorkbook(readings)
	if err != nil {
		t.Fatalf("BuildWorkbook failed: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("shelly-3em-pro")
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header + 2 data rows, got %d", len(rows))
	}

	// Fixed identity columns, then the sorted union of value fields
	wantHeader := []string{"Timestamp", "Date-Time", "Metering Point", "act_power", "current", "voltage"}
	for i, want := range wantHeader {
		if i >= len(rows[0]) || rows[0][i] != want {
			t.Fatalf("Expected header %v, got %v", wantHeader, rows[0])
		}
	}

	// General number formatting may render the timestamp in scientific
	// notation; compare numerically
	if ts, err := strconv.ParseFloat(rows[1][0], 64); err != nil || int64(ts) != baseTs {
		t.Errorf("Expected timestamp cell %d, got %q", baseTs, rows[1][0])
	}
	if rows[1][1] != "2025-06-15 00:00:00" {
		t.Errorf("Expected formatted date-time, got %q", rows[1][1])
	}
	if rows[1][2] != "E1" {
		t.Errorf("Expected metering point, got %q", rows[1][2])
	}

	// The second reading only reported current; voltage stays empty
	cell, err := f.GetCellValue("shelly-3em-pro", "E3")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if cell != "0.4" {
		t.Errorf("Expected current value in row 3, got %q", cell)
	}
	empty, _ := f.GetCellValue("shelly-3em-pro", "F3")
	if empty != "" {
		t.Errorf("Expected empty voltage cell, got %q", empty)
	}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		name   string
		sensor string
		want   string
	}{
		{
			name:   "plain",
			sensor: "shelly-3em-pro",
			want:   "shelly-3em-pro",
		},
		{
			name:   "forbidden_characters",
			sensor: "inverter/phase:1",
			want:   "inverter_phase_1",
		},
		{
			name:   "truncated",
			sensor: strings.Repeat("x", 40),
			want:   strings.Repeat("x", 31),
		},
		{
			name:   "empty",
			sensor: "",
			want:   "sensor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SheetName(tt.sensor); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, logging.NewDevelopment())

	readings := []models.Reading{
		reading(baseTs, "shelly-3em-pro", "E1", map[string]interface{}{"act_power": 12.5}),
	}

	path, err := w.WriteFile("emon01", "2025-06-15", "2025-06-16", readings)
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("Expected file under %s, got %s", dir, path)
	}
	if !strings.HasPrefix(filepath.Base(path), "emon01_2025-06-15_2025-06-16_") {
		t.Errorf("Unexpected file name %s", filepath.Base(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Expected workbook on disk: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Expected non-empty workbook")
	}
}

func TestBuildWorkbook_Empty(t *testing.T) {
	f, err := BuildWorkbook(nil)
	if err != nil {
		t.Fatalf("BuildWorkbook failed: %v", err)
	}
	defer f.Close()

	if len(f.GetSheetList()) != 1 {
		t.Errorf("Expected only the default sheet, got %v", f.GetSheetList())
	}
}
