// Package detect scans text for secret-shaped and PII-shaped values before
// they reach disk. Detection is pure pattern matching over precompiled
// expressions: no network calls, no state, linear in input length.
//
// Detection is best-effort mitigation, not a guarantee: new secret formats
// produce false negatives, and callers must not treat a clean scan as proof
// of absence.
package detect

import "sort"

// Finding is one detected span. Start and End are byte offsets into the
// scanned text; Masked is a preview safe to log.
type Finding struct {
	Type   FindingType `json:"type"`
	Start  int         `json:"start"`
	End    int         `json:"end"`
	Masked string      `json:"masked"`
}

// Scanner runs a fixed pattern table over text.
type Scanner struct {
	patterns []Pattern
}

// NewScanner builds a scanner over the given table, or the default table when
// none is given.
func NewScanner(patterns ...Pattern) *Scanner {
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}
	return &Scanner{patterns: patterns}
}

var defaultScanner = NewScanner()

// Detect scans with the default pattern table.
func Detect(text string) []Finding {
	return defaultScanner.Detect(text)
}

// Detect returns every match of every pattern, ordered by start offset.
// Overlapping matches from different patterns are all reported.
func (s *Scanner) Detect(text string) []Finding {
	if text == "" {
		return nil
	}
	var findings []Finding
	for _, pattern := range s.patterns {
		for _, span := range pattern.Expr.FindAllStringIndex(text, -1) {
			findings = append(findings, Finding{
				Type:   pattern.Type,
				Start:  span[0],
				End:    span[1],
				Masked: SmartMask(text[span[0]:span[1]]),
			})
		}
	}
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Start != findings[j].Start {
			return findings[i].Start < findings[j].Start
		}
		return findings[i].End > findings[j].End
	})
	return findings
}

// Redact replaces every detected span with its masked form and returns the
// findings that drove each replacement. Overlapping spans are merged before
// replacement; the merged span is masked as one value and attributed to the
// first finding that opened it.
func (s *Scanner) Redact(text string) (string, []Finding) {
	findings := s.Detect(text)
	if len(findings) == 0 {
		return text, nil
	}

	type span struct {
		start, end int
		kind       FindingType
	}
	merged := []span{{start: findings[0].Start, end: findings[0].End, kind: findings[0].Type}}
	for _, finding := range findings[1:] {
		last := &merged[len(merged)-1]
		if finding.Start < last.end {
			if finding.End > last.end {
				last.end = finding.End
			}
			continue
		}
		merged = append(merged, span{start: finding.Start, end: finding.End, kind: finding.Type})
	}

	var out []byte
	applied := make([]Finding, 0, len(merged))
	cursor := 0
	for _, m := range merged {
		masked := SmartMask(text[m.start:m.end])
		out = append(out, text[cursor:m.start]...)
		out = append(out, masked...)
		cursor = m.end
		applied = append(applied, Finding{Type: m.kind, Start: m.start, End: m.end, Masked: masked})
	}
	out = append(out, text[cursor:]...)
	return string(out), applied
}
