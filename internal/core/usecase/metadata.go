package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
)

// Job numbers are six digits and year codes three, both opening with the
// current decade prefix ("2"). Year codes only count when the surrounding
// text talks about a project, so a bare measurement like "225mm" or
// "a 225 kg load" never becomes a scoping token.
var (
	jobNumberPattern    = regexp.MustCompile(`\b(2\d{5})\b`)
	yearCodePattern     = regexp.MustCompile(`\b(2\d{2})\b`)
	calendarYearPattern = regexp.MustCompile(`\b(20\d{2})\b`)

	pastYearsPattern    = regexp.MustCompile(`(?i)\b(?:past|last)\s+(\d{1,2})\s+years?\b`)
	yearsAgoPattern     = regexp.MustCompile(`(?i)\b(\d{1,2})\s+years?\s+ago\b`)
	sinceYearPattern    = regexp.MustCompile(`(?i)\b(?:from|since)\s+(20\d{2})\b`)
	betweenYearsPattern = regexp.MustCompile(`(?i)\bbetween\s+(20\d{2})\s+and\s+(20\d{2})\b`)

	clientHintPattern = regexp.MustCompile(`(?:client|for)\s+((?:[A-Z][\w&'-]*)(?:\s+(?:[A-Z][\w&'-]*|&|and)){0,3})`)
)

var projectContextWords = []string{
	"project", "projects", "job", "jobs",
	"what is", "what was", "what's", "tell me about",
}

// MetadataExtractor parses structural identifiers out of query text. It is
// pure and never fails; a pattern that does not match simply leaves its slot
// empty. Pattern attempts are ordered and the first match per slot wins.
type MetadataExtractor struct {
	now func() time.Time
}

func NewMetadataExtractor() *MetadataExtractor {
	return &MetadataExtractor{now: time.Now}
}

// Extract scans queryText for job numbers, year codes, time windows and
// client hints. Precedence: a job number beats a standalone year code, and a
// time window beats a single year code.
func (e *MetadataExtractor) Extract(queryText string) domain.ExtractedMetadata {
	var md domain.ExtractedMetadata

	if job := jobNumberPattern.FindString(queryText); job != "" {
		md.JobNumber = job
		// Convenience: the job's containing bucket is its first three digits.
		md.YearCode = job[:3]
	}

	if r := e.extractYearRange(queryText); r != nil {
		md.YearRange = r
		if md.JobNumber == "" {
			md.YearCode = ""
		}
	} else if md.JobNumber == "" {
		md.YearCode = extractYearCode(queryText)
	}

	md.ClientHint = extractClientHint(queryText)
	return md
}

func (e *MetadataExtractor) currentBucket() int {
	year := e.now().UTC().Year()
	return 200 + year%100
}

// extractYearRange resolves relative windows ("past 4 years", "3 years ago")
// and absolute phrasings ("since 2022", "between 2021 and 2023") to an
// inclusive bucket range. "Past N years" always includes the current bucket,
// so it spans N+1 buckets.
func (e *MetadataExtractor) extractYearRange(queryText string) *domain.YearRange {
	current := e.currentBucket()

	if m := pastYearsPattern.FindStringSubmatch(queryText); m != nil {
		if n := parseSmallInt(m[1]); n >= 1 && n <= 10 {
			return &domain.YearRange{From: current - n, To: current}
		}
	}
	if m := yearsAgoPattern.FindStringSubmatch(queryText); m != nil {
		if n := parseSmallInt(m[1]); n >= 1 && n <= 10 {
			bucket := current - n
			return &domain.YearRange{From: bucket, To: bucket}
		}
	}
	if m := betweenYearsPattern.FindStringSubmatch(queryText); m != nil {
		from, to := calendarYearToBucket(m[1]), calendarYearToBucket(m[2])
		if from > to {
			from, to = to, from
		}
		return &domain.YearRange{From: from, To: to}
	}
	if m := sinceYearPattern.FindStringSubmatch(queryText); m != nil {
		from := calendarYearToBucket(m[1])
		if from <= current {
			return &domain.YearRange{From: from, To: current}
		}
	}
	return nil
}

func extractYearCode(queryText string) string {
	if !hasProjectContext(queryText) {
		return ""
	}
	// Calendar years resolve directly to their bucket ("projects in 2024" -> 224).
	if m := calendarYearPattern.FindStringSubmatch(queryText); m != nil {
		return strconv.Itoa(calendarYearToBucket(m[1]))
	}
	if m := yearCodePattern.FindStringSubmatch(queryText); m != nil {
		return m[1]
	}
	return ""
}

func hasProjectContext(queryText string) bool {
	lower := strings.ToLower(queryText)
	for _, w := range projectContextWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func extractClientHint(queryText string) string {
	m := clientHintPattern.FindStringSubmatch(queryText)
	if m == nil {
		return ""
	}
	hint := strings.TrimSpace(m[1])
	// A capitalized sentence opener after "for" is noise, not a name.
	if len(hint) < 2 {
		return ""
	}
	return hint
}

func calendarYearToBucket(year string) int {
	n, err := strconv.Atoi(year)
	if err != nil {
		return 0
	}
	return 200 + n%100
}

func parseSmallInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
