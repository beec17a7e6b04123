package constants

// DocumentStatus is the canonical outcome of processing one dropped document.
type DocumentStatus string

// Stable values (stored as-is in the journal and used as metric labels).
const (
	StatusProcessed DocumentStatus = "PROCESSED" // record appended, file moved to done
	StatusSkipped   DocumentStatus = "SKIPPED"   // unsupported insurer or file vanished
	StatusFailed    DocumentStatus = "FAILED"    // document-level failure, file moved to error
)

// UnsupportedPolicy decides where an unsupported document goes.
type UnsupportedPolicy string

const (
	UnsupportedLeave UnsupportedPolicy = "leave" // keep it in the watch folder for manual handling
	UnsupportedError UnsupportedPolicy = "error" // move it to the error folder
)

// Match flag literals written into the ledger.
const (
	Yes = "ANO"
	No  = "NE"
)
