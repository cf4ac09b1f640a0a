package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

const (
	// DefaultRequestTimeout is the default timeout for HTTP requests
	DefaultRequestTimeout = 30 * time.Second

	// FlushTimeout is the timeout for persisting a flush set to the store
	FlushTimeout = 20 * time.Second

	// MetadataUpdateTimeout is the timeout for metering-point metadata updates
	MetadataUpdateTimeout = 5 * time.Second

	// QueryTimeout is the timeout for a single day query against the store
	QueryTimeout = 15 * time.Second
)

// =============================================================================
// Buffer Constants
// =============================================================================

const (
	// DefaultMaxPointsPerBatch is the batch-size ceiling per partition.
	// 2000 points keeps a full document near 50% of Firestore's 1 MiB
	// document limit under worst-case value-field cardinality.
	DefaultMaxPointsPerBatch = 2000
)

// =============================================================================
// Timestamp Window
// =============================================================================

// Readings must carry timestamps inside this window; anything outside is
// treated as a device clock fault and rejected.
const (
	// MinTimestampMs is 2020-01-01T00:00:00Z in epoch milliseconds
	MinTimestampMs int64 = 1577836800000

	// MaxTimestampMs is 2050-01-01T00:00:00Z in epoch milliseconds
	MaxTimestampMs int64 = 2524608000000
)

// =============================================================================
// Export Constants
// =============================================================================

const (
	// DefaultMaxExportDays is the maximum allowed export span in days
	DefaultMaxExportDays = 31

	// MaxSheetNameLength is the Excel limit for worksheet names
	MaxSheetNameLength = 31
)

// MillisPerDay is the length of one UTC calendar day in milliseconds
const MillisPerDay int64 = 24 * 60 * 60 * 1000
