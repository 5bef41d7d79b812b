package bundletype

// ProgressEvent represents a progress update during an unpack operation.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Path is the entry currently being processed, if applicable.
	Path string

	// Skipped is true when the entry was already extracted and no work was done.
	Skipped bool

	// BytesDone is the number of decompressed bytes written so far.
	BytesDone uint64

	// FilesDone is the number of entries completed (extracted or skipped).
	FilesDone int

	// FilesTotal is the total number of entries in the bundle.
	FilesTotal int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages for unpack and verify operations.
const (
	// StageValidating indicates the whole-file checksum is being computed.
	StageValidating ProgressStage = iota

	// StageDecoding indicates the header and table of contents are being decoded.
	StageDecoding

	// StageVerifyingEntries indicates per-entry checksums are being verified.
	StageVerifyingEntries

	// StageExtracting indicates sections are being decompressed to disk.
	StageExtracting
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageValidating:
		return "validating"
	case StageDecoding:
		return "decoding"
	case StageVerifyingEntries:
		return "verifying entries"
	case StageExtracting:
		return "extracting"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during operations.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)
