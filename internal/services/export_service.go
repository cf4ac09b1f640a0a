package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kwf-energie/energiemonitor/internal/export"
	"github.com/kwf-energie/energiemonitor/internal/logging"
	"github.com/kwf-energie/energiemonitor/internal/query"
	"github.com/kwf-energie/energiemonitor/internal/utils"
)

// ExportService reconstructs a date range and renders it as an XLSX workbook
type ExportService struct {
	reconstructor *query.Reconstructor
	writer        *export.Writer
	maxRangeDays  int
	logger        *logging.Logger
}

// ExportResult describes a generated workbook
type ExportResult struct {
	FilePath string
	Filename string
	Readings int
}

// NewExportService creates a new ExportService
func NewExportService(reconstructor *query.Reconstructor, writer *export.Writer, maxRangeDays int, logger *logging.Logger) *ExportService {
	if maxRangeDays < 1 {
		maxRangeDays = utils.DefaultMaxExportDays
	}
	return &ExportService{
		reconstructor: reconstructor,
		writer:        writer,
		maxRangeDays:  maxRangeDays,
		logger:        logger,
	}
}

// Export generates a workbook covering [startDate, endDate], both inclusive.
// Dates are YYYY-MM-DD or epoch milliseconds; the end date extends to the
// last millisecond of its day. Empty sensorID or meteringPoint match any.
func (s *ExportService) Export(ctx context.Context, deviceID, startDate, endDate, sensorID, meteringPoint string) (*ExportResult, error) {
	start, err := parseExportDate(startDate)
	if err != nil {
		return nil, NewServiceError("INVALID_DATE", fmt.Sprintf("invalid start_date: %s", err.Error()))
	}
	end, err := parseExportDate(endDate)
	if err != nil {
		return nil, NewServiceError("INVALID_DATE", fmt.Sprintf("invalid end_date: %s", err.Error()))
	}

	if end.Before(start) {
		return nil, NewServiceError("INVALID_RANGE", "end_date precedes start_date")
	}

	days := int(end.Sub(start).Hours()/24) + 1
	if days > s.maxRangeDays {
		return nil, NewServiceErrorWithDetails("RANGE_TOO_LARGE",
			fmt.Sprintf("export range exceeds %d days", s.maxRangeDays),
			map[string]interface{}{"days": days, "max_days": s.maxRangeDays})
	}

	startTs := start.UnixMilli()
	endTs := end.UnixMilli() + utils.MillisPerDay - 1

	readings, err := s.reconstructor.Query(ctx, deviceID, startTs, endTs, sensorID, meteringPoint)
	if err != nil {
		s.logger.Error("Export query failed",
			"device_id", deviceID,
			"start_date", startDate,
			"end_date", endDate,
			"error", err)
		return nil, NewServiceError("STORE_UNAVAILABLE", "failed to read telemetry documents")
	}

	if len(readings) == 0 {
		return nil, NewServiceError("NO_DATA", "no telemetry in the requested range")
	}

	path, err := s.writer.WriteFile(deviceID,
		start.Format(utils.DateFormat), end.Format(utils.DateFormat), readings)
	if err != nil {
		s.logger.Error("Export workbook generation failed",
			"device_id", deviceID,
			"error", err)
		return nil, NewServiceError("EXPORT_FAILED", "failed to generate workbook")
	}

	return &ExportResult{
		FilePath: path,
		Filename: fmt.Sprintf("energiemonitor_%s_%s_%s.xlsx", deviceID,
			start.Format(utils.DateFormat), end.Format(utils.DateFormat)),
		Readings: len(readings),
	}, nil
}

// parseExportDate accepts YYYY-MM-DD or an epoch-millisecond integer and
// returns the start of the covered UTC day
func parseExportDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	if t, err := utils.ParseDate(s); err == nil {
		return t, nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither YYYY-MM-DD nor epoch milliseconds", s)
	}
	t := utils.TimeFromMillis(ms)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
