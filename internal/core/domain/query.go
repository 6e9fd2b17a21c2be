package domain

// IntentClass separates corpus-wide aggregate questions from
// content-detail questions.
type IntentClass string

const (
	// IntentGlobal asks about the corpus as a whole (counts, listings).
	// Global queries never touch the similarity index.
	IntentGlobal IntentClass = "GLOBAL"

	// IntentDetail asks about specific document content and goes through
	// filtered nearest-neighbour retrieval.
	IntentDetail IntentClass = "DETAIL"
)

// QueryIntent is the per-query classification result. It is derived
// fresh for every query and never persisted.
type QueryIntent struct {
	// Class is the aggregate-vs-detail decision.
	Class IntentClass

	// MatchedDocType is a known doc-type value found in the query text.
	MatchedDocType string

	// MatchedDate is a six-digit date token found in the query text.
	MatchedDate string

	// MatchedFilename is a known filename the query refers to.
	MatchedFilename string

	// WholeDocument is set when the query asks for a document's entire
	// content rather than a snippet answer.
	WholeDocument bool
}

// RetrievalFilter is a conjunction of equality predicates over chunk
// metadata. The zero value matches everything.
type RetrievalFilter struct {
	Filename string
	Date     string
	DocType  string
}

// IsEmpty reports whether the filter has no predicates.
func (f RetrievalFilter) IsEmpty() bool {
	return f.Filename == "" && f.Date == "" && f.DocType == ""
}

// Matches reports whether the given chunk metadata satisfies the filter.
// Used as defence in depth on top of server-side filtering.
func (f RetrievalFilter) Matches(filename, date, docType string) bool {
	if f.Filename != "" && f.Filename != filename {
		return false
	}
	if f.Date != "" && f.Date != date {
		return false
	}
	if f.DocType != "" && f.DocType != docType {
		return false
	}
	return true
}

// Source is a citation attached to an answer.
type Source struct {
	Filename string `json:"filename"`
	Page     int    `json:"page"`
	Kind     string `json:"type"`
	Text     string `json:"text"`

	// ExtraPages lists pages of near-duplicate chunks that were collapsed
	// into this source, kept for citation completeness.
	ExtraPages []int `json:"extra_pages,omitempty"`
}

// Answer is the result of a query.
type Answer struct {
	Text      string   `json:"answer"`
	Sources   []Source `json:"sources"`
	HasAnswer bool     `json:"has_answer"`
}

// NotFoundAnswer is the canonical text used when the system decides it
// has no grounded answer.
const NotFoundAnswer = "지식 베이스에 없는 내용입니다"
