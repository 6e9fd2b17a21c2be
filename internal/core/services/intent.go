package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/nuri-labs/docrag/internal/core/domain"
	"github.com/nuri-labs/docrag/internal/core/ports/driven"
	"github.com/nuri-labs/docrag/internal/logger"
)

// Fast-path classification rules. Aggregate/listing phrasing forces
// GLOBAL; a date token or a content-request verb forces DETAIL. When no
// rule fires the LLM decides, defaulting to DETAIL on failure.
var (
	globalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`몇\s*개`),
		regexp.MustCompile(`총\s*몇`),
		regexp.MustCompile(`문서\s*(목록|리스트|현황)`),
		regexp.MustCompile(`(어떤|무슨)\s*(문서|파일|자료)`),
		regexp.MustCompile(`(문서|파일|자료)(가|는|들이)?\s*있`),
		regexp.MustCompile(`목록\s*(을|좀)?\s*(보여|알려)`),
	}

	detailPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{6}`),
		regexp.MustCompile(`(내용|요약|정리|설명)`),
		regexp.MustCompile(`(알려\s*줘|알려주|보여\s*줘|보여주)`),
	}

	dateTokenPattern = regexp.MustCompile(`\d{6}`)

	wholeDocKeywords = []string{"전체", "전부", "모든", "모두"}
)

// IntentClassifier decides how a query should be answered. It is
// state-free per call; the known corpus is passed in by the caller.
type IntentClassifier struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewIntentClassifier creates a classifier. The LLM is optional; without
// it, queries that match no rule are treated as DETAIL.
func NewIntentClassifier(llm driven.LLMService, prompts driven.PromptStore) *IntentClassifier {
	return &IntentClassifier{llm: llm, prompts: prompts}
}

// Classify labels the query GLOBAL or DETAIL and extracts any document
// type, date, or filename entities it mentions. Entity extraction is
// independent of the class decision.
func (c *IntentClassifier) Classify(ctx context.Context, query string, filenames, docTypes []string) *domain.QueryIntent {
	intent := &domain.QueryIntent{
		Class: c.classify(ctx, query),
	}

	intent.MatchedDate = matchDate(query)
	intent.MatchedDocType = matchDocType(query, docTypes)
	intent.MatchedFilename = matchFilename(query, filenames)
	intent.WholeDocument = intent.MatchedDate != "" &&
		(intent.MatchedDocType != "" || containsAny(query, wholeDocKeywords))

	logger.Debug("Intent: class=%s doc_type=%q date=%q filename=%q whole=%v",
		intent.Class, intent.MatchedDocType, intent.MatchedDate, intent.MatchedFilename, intent.WholeDocument)
	return intent
}

// classify runs the two-tier GLOBAL/DETAIL decision.
func (c *IntentClassifier) classify(ctx context.Context, query string) domain.IntentClass {
	for _, p := range globalPatterns {
		if p.MatchString(query) {
			return domain.IntentGlobal
		}
	}
	for _, p := range detailPatterns {
		if p.MatchString(query) {
			return domain.IntentDetail
		}
	}
	return c.classifyWithLLM(ctx, query)
}

// classifyWithLLM asks the model for one of the two labels at zero
// temperature. Any failure falls back to DETAIL.
func (c *IntentClassifier) classifyWithLLM(ctx context.Context, query string) domain.IntentClass {
	if c.llm == nil {
		return domain.IntentDetail
	}

	template, err := c.prompts.Load(driven.PromptIntentClassify)
	if err != nil {
		logger.Warn("Intent prompt unavailable: %v", err)
		return domain.IntentDetail
	}

	response, err := c.llm.Generate(ctx, fmt.Sprintf(template, query), driven.GenerateOptions{
		MaxTokens:   10,
		Temperature: 0,
	})
	if err != nil {
		logger.Warn("Intent classification LLM call failed, defaulting to DETAIL: %v", err)
		return domain.IntentDetail
	}

	if strings.Contains(strings.ToUpper(response), "GLOBAL") {
		return domain.IntentGlobal
	}
	return domain.IntentDetail
}

// matchDate returns the first 6-digit date token in the query.
func matchDate(query string) string {
	return dateTokenPattern.FindString(query)
}

// matchDocType returns the longest known document type mentioned in the
// query.
func matchDocType(query string, docTypes []string) string {
	best := ""
	for _, dt := range docTypes {
		if dt == "" {
			continue
		}
		if strings.Contains(query, dt) && len(dt) > len(best) {
			best = dt
		}
	}
	return best
}

// matchFilename resolves a filename mention. Preference order: exact
// full filename, filename without extension, a single underscore
// segment unique across the corpus, then a filename whose segments
// (two or more of them) are all present in the query.
func matchFilename(query string, filenames []string) string {
	for _, f := range filenames {
		if strings.Contains(query, f) {
			return f
		}
	}
	for _, f := range filenames {
		if stem := domain.Stem(f); stem != "" && strings.Contains(query, stem) {
			return f
		}
	}

	segmentOwners := make(map[string][]string)
	for _, f := range filenames {
		for _, seg := range filenameSegments(f) {
			segmentOwners[seg] = append(segmentOwners[seg], f)
		}
	}

	// Unique segments first, longest match wins.
	segments := make([]string, 0, len(segmentOwners))
	for seg := range segmentOwners {
		segments = append(segments, seg)
	}
	sort.Slice(segments, func(i, j int) bool { return len(segments[i]) > len(segments[j]) })

	for _, seg := range segments {
		owners := segmentOwners[seg]
		if len(owners) == 1 && strings.Contains(query, seg) {
			return owners[0]
		}
	}

	for _, f := range filenames {
		segs := filenameSegments(f)
		if len(segs) < 2 {
			continue
		}
		matched := 0
		for _, seg := range segs {
			if strings.Contains(query, seg) {
				matched++
			}
		}
		if matched == len(segs) {
			return f
		}
	}
	return ""
}

// filenameSegments splits a filename stem on underscores, dropping
// segments too short to be discriminating. All-digit segments are
// excluded so date tokens resolve as dates, not filenames.
func filenameSegments(filename string) []string {
	var out []string
	for _, seg := range strings.Split(domain.Stem(filename), "_") {
		if len([]rune(seg)) >= 2 && !allDigits(seg) {
			out = append(out, seg)
		}
	}
	return out
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
