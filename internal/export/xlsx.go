// Package export renders reconstructed readings as Excel workbooks for
// download by facility operators.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kwf-energie/energiemonitor/internal/logging"
	"github.com/kwf-energie/energiemonitor/internal/models"
	"github.com/kwf-energie/energiemonitor/internal/utils"
)

// fixedColumns precede the per-sensor value-field columns on every sheet
var fixedColumns = []string{"Timestamp", "Date-Time", "Metering Point"}

// Writer builds XLSX workbooks from flat reading slices
type Writer struct {
	downloadDir string
	logger      *logging.Logger
}

// NewWriter creates a workbook writer that saves into downloadDir
func NewWriter(downloadDir string, logger *logging.Logger) *Writer {
	return &Writer{
		downloadDir: downloadDir,
		logger:      logger,
	}
}

// BuildWorkbook renders the readings into one workbook with a sheet per
// sensor. Columns are the fixed identity columns followed by the sorted
// union of every value field the sensor reported in the range.
func BuildWorkbook(readings []models.Reading) (*excelize.File, error) {
	f := excelize.NewFile()

	bySensor := make(map[string][]models.Reading)
	var sensors []string
	for _, r := range readings {
		if _, ok := bySensor[r.SensorID]; !ok {
			sensors = append(sensors, r.SensorID)
		}
		bySensor[r.SensorID] = append(bySensor[r.SensorID], r)
	}
	sort.Strings(sensors)

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for _, sensor := range sensors {
		if err := writeSensorSheet(f, sensor, bySensor[sensor], headerStyle); err != nil {
			return nil, err
		}
	}

	// The default sheet only remains when there was nothing to export
	if len(sensors) > 0 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("remove default sheet: %w", err)
		}
	}

	return f, nil
}

func writeSensorSheet(f *excelize.File, sensor string, readings []models.Reading, headerStyle int) error {
	name := SheetName(sensor)
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %q: %w", name, err)
	}

	fields := valueFieldUnion(readings)
	header := append(append([]string(nil), fixedColumns...), fields...)

	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, title); err != nil {
			return err
		}
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for i, r := range readings {
		row := i + 2
		values := []interface{}{
			r.Timestamp,
			utils.TimeFromMillis(r.Timestamp).Format("2006-01-02 15:04:05"),
			r.MeteringPoint,
		}
		for _, field := range fields {
			values = append(values, r.Values[field])
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(name, cell, v); err != nil {
				return err
			}
		}
	}

	return nil
}

// valueFieldUnion returns the sorted union of value-field names across the
// readings. Readings of one sensor may report different field sets over time.
func valueFieldUnion(readings []models.Reading) []string {
	set := make(map[string]bool)
	for _, r := range readings {
		for field := range r.Values {
			set[field] = true
		}
	}
	fields := make([]string, 0, len(set))
	for field := range set {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// SheetName sanitizes a sensor identifier into a legal Excel sheet name:
// forbidden characters become underscores and the result is capped at the
// 31-character worksheet limit.
func SheetName(sensor string) string {
	replacer := strings.NewReplacer(
		"[", "_", "]", "_", ":", "_", "*", "_", "?", "_", "/", "_", "\\", "_",
	)
	name := replacer.Replace(sensor)
	if name == "" {
		name = "sensor"
	}
	if len(name) > utils.MaxSheetNameLength {
		name = name[:utils.MaxSheetNameLength]
	}
	return name
}

// WriteFile builds the workbook and saves it under the download directory.
// The file name carries the device and the covered dates.
func (w *Writer) WriteFile(deviceID string, startDate, endDate string, readings []models.Reading) (string, error) {
	if err := os.MkdirAll(w.downloadDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	f, err := BuildWorkbook(readings)
	if err != nil {
		return "", err
	}
	defer f.Close()

	name := fmt.Sprintf("%s_%s_%s_%d.xlsx", deviceID, startDate, endDate, time.Now().UTC().Unix())
	path := filepath.Join(w.downloadDir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	w.logger.Info("Export workbook written",
		"device_id", deviceID,
		"path", path,
		"readings", len(readings))

	return path, nil
}
