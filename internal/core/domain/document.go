package domain

import (
	"crypto/md5" //nolint:gosec // stable identity derivation, not security
	"encoding/hex"
	"fmt"
	"time"
)

// Document represents an ingested file and its parsed metadata.
// It is created on upload and is immutable once indexed, except for
// the explicit doc-type correction path.
type Document struct {
	// ID is the deterministic identity derived from the original filename.
	ID string

	// OriginalFilename is the filename as uploaded, before sanitisation.
	OriginalFilename string

	// StoredPath is where the original bytes live on disk.
	StoredPath string

	// Size is the file size in bytes.
	Size int64

	// Date, DocType, and DocTitle come from the filename pattern
	// DATE_DOCTYPE_TITLE.ext. Empty when the pattern does not match.
	Date     string
	DocType  string
	DocTitle string

	// CreatedAt is when the document was first indexed.
	CreatedAt time.Time
}

// UnitKind classifies the origin of an extraction unit.
type UnitKind string

const (
	// UnitText is plain sequential text.
	UnitText UnitKind = "text"

	// UnitTable is a normalised table representation.
	UnitTable UnitKind = "table"

	// UnitOCR is text recovered from an image by optical recognition.
	UnitOCR UnitKind = "ocr"
)

// Unit is the raw output of one extraction strategy for one page or sheet.
// Units exist only between decomposition and chunking.
type Unit struct {
	// Text is the extracted content.
	Text string

	// Page is the 1-based page or sheet index.
	Page int

	// Kind classifies the unit.
	Kind UnitKind
}

// Chunk is the unit of storage, retrieval, and deletion.
type Chunk struct {
	// Text is the chunk content.
	Text string

	// Page is the 1-based page or sheet the chunk came from.
	Page int

	// Kind is inherited from the source unit.
	Kind UnitKind

	// HasTable marks chunks carrying normalised table data.
	HasTable bool

	// TableContinued marks fragments of an oversized table after the first.
	// Every continued fragment repeats the table header block.
	TableContinued bool
}

// ChunkID builds the record identifier for a chunk of a document.
// Records in the vector store are keyed "{document_id}_chunk_{index}".
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// DocumentID derives the deterministic identity for an identifying input,
// normally the original filename. Re-ingesting the same logical document
// therefore reuses the same identity.
func DocumentID(input string) string {
	sum := md5.Sum([]byte(input)) //nolint:gosec // identity, not security
	return hex.EncodeToString(sum[:])
}
