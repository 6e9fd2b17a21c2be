package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// filenamePattern matches the naming convention DATE_DOCTYPE_TITLE where
// DATE is six digits (YYMMDD). The doc type is the shortest underscore
// segment after the date; everything remaining is the title.
var filenamePattern = regexp.MustCompile(`^(\d{6})_(.+?)_(.+)$`)

// ParsedFilename holds metadata recovered from a filename.
// Parsed is false when the filename does not follow the convention,
// in which case the other fields are empty.
type ParsedFilename struct {
	Date     string
	DocType  string
	DocTitle string
	Parsed   bool
}

// ParseFilename extracts date, doc type, and title from a filename of the
// form "250211_재직증명서_센싱플러스.pdf". The extension is stripped first.
func ParseFilename(filename string) ParsedFilename {
	name := filename
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}

	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return ParsedFilename{}
	}

	return ParsedFilename{
		Date:     m[1],
		DocType:  m[2],
		DocTitle: m[3],
		Parsed:   true,
	}
}

// FormatDate renders a six-digit YYMMDD date as readable Korean text,
// e.g. "250211" -> "2025년 02월 11일". Inputs that are not six digits
// are returned unchanged.
func FormatDate(date string) string {
	if len(date) != 6 {
		return date
	}
	for _, r := range date {
		if r < '0' || r > '9' {
			return date
		}
	}
	return fmt.Sprintf("20%s년 %s월 %s일", date[:2], date[2:4], date[4:6])
}

// Stem returns the filename without its extension.
func Stem(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx > 0 {
		return filename[:idx]
	}
	return filename
}
