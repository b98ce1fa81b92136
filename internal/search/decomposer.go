package search

import (
	"regexp"
	"strings"
)

// SubQuery is one piece of a decomposed query, carrying its relative
// weight in the eventual consensus fusion.
type SubQuery struct {
	// Query is the sub-query text to search.
	Query string

	// Weight is the relative importance of this sub-query (default 1.0).
	// Higher weights give more influence in RRF fusion.
	Weight float64

	// Hint optionally suggests result filtering: "code", "docs", or "" (any).
	Hint string
}

// QueryDecomposer splits a single query into several sub-queries for
// better recall on vocabulary-mismatched phrasing, e.g. "Search function"
// failing to match a method actually named `func (e *Engine) Search`.
type QueryDecomposer interface {
	// ShouldDecompose reports whether query benefits from decomposition.
	// Conservative: only returns true for patterns known to need it.
	ShouldDecompose(query string) bool

	// Decompose returns sub-queries for query. When ShouldDecompose is
	// false, returns the original query wrapped in a single-element
	// slice.
	Decompose(query string) []SubQuery
}

// PatternDecomposer implements QueryDecomposer with regex pattern
// matching: deterministic, sub-millisecond, no external dependencies.
type PatternDecomposer struct {
	nounFunctionPattern *regexp.Regexp
	howDoesWorkPattern  *regexp.Regexp
	camelCasePattern    *regexp.Regexp
	pascalCasePattern   *regexp.Regexp
	snakeCasePattern    *regexp.Regexp
	filePathPattern     *regexp.Regexp
	quotedPattern       *regexp.Regexp
}

// NewPatternDecomposer builds a pattern-based query decomposer.
func NewPatternDecomposer() *PatternDecomposer {
	return &PatternDecomposer{
		// "Search function", "Index method", "Query func"
		nounFunctionPattern: regexp.MustCompile(`(?i)^(\w+)\s+(function|func|method)$`),

		// "How does RRF fusion work", "How does search work"
		howDoesWorkPattern: regexp.MustCompile(`(?i)^how\s+does\s+(.+?)\s+work$`),

		// Technical identifiers that should skip decomposition entirely.
		camelCasePattern:  regexp.MustCompile(`^[a-z]+([A-Z][a-z0-9]*)+$`),
		pascalCasePattern: regexp.MustCompile(`^([A-Z][a-z0-9]*){2,}$`),
		snakeCasePattern:  regexp.MustCompile(`^[a-z]+(_[a-z0-9]+)+$`),

		filePathPattern: regexp.MustCompile(`(?i)[\w\-.]*[/\\][\w\-./\\]*\.(go|ts|tsx|js|jsx|py|md|json|yaml|yml)$`),
		quotedPattern:   regexp.MustCompile(`^["'].*["']$`),
	}
}

// ShouldDecompose reports whether query matches a pattern known to benefit
// from decomposition. Conservative: queries that already work well
// (specific identifiers, file paths, quoted phrases, long natural-language
// questions other than "how does X work") are left alone.
func (d *PatternDecomposer) ShouldDecompose(query string) bool {
	query = strings.TrimSpace(query)
	if len(query) == 0 {
		return false
	}

	words := strings.Fields(query)
	if len(words) <= 1 {
		return false
	}

	if d.isSpecificIdentifier(query) {
		return false
	}
	if d.filePathPattern.MatchString(query) {
		return false
	}
	if d.quotedPattern.MatchString(query) {
		return false
	}

	if len(words) >= 4 && !d.howDoesWorkPattern.MatchString(query) {
		return false
	}

	if d.nounFunctionPattern.MatchString(query) {
		return true
	}
	if d.howDoesWorkPattern.MatchString(query) {
		return true
	}
	return false
}

func (d *PatternDecomposer) isSpecificIdentifier(query string) bool {
	if strings.Contains(query, " ") {
		return false
	}
	return d.camelCasePattern.MatchString(query) ||
		d.pascalCasePattern.MatchString(query) ||
		d.snakeCasePattern.MatchString(query)
}

// Decompose transforms query into sub-queries, falling back to the
// original query when no pattern applies.
func (d *PatternDecomposer) Decompose(query string) []SubQuery {
	query = strings.TrimSpace(query)

	if !d.ShouldDecompose(query) {
		return []SubQuery{{Query: query, Weight: 1.0}}
	}

	if matches := d.nounFunctionPattern.FindStringSubmatch(query); len(matches) >= 2 {
		return d.decomposeNounFunction(matches[1])
	}
	if matches := d.howDoesWorkPattern.FindStringSubmatch(query); len(matches) >= 2 {
		return d.decomposeHowDoesWork(matches[1])
	}

	return []SubQuery{{Query: query, Weight: 1.0}}
}

// decomposeNounFunction generates Go-idiom sub-queries for "{Noun}
// function" style queries. Example: "Search function" ->
//   - ") Search(" (method receiver call site)
//   - "Search(ctx" (context-taking method)
//   - "func Search" (function signature)
//   - "func (search" (receiver variable spelled from the noun)
//   - "Search method", "Search(", "Search"
func (d *PatternDecomposer) decomposeNounFunction(noun string) []SubQuery {
	capitalNoun := strings.Title(strings.ToLower(noun)) //nolint:staticcheck
	lowerNoun := strings.ToLower(noun)

	return []SubQuery{
		{Query: ") " + capitalNoun + "(", Weight: 1.5, Hint: "code"},
		{Query: capitalNoun + "(ctx", Weight: 1.4, Hint: "code"},
		{Query: "func " + capitalNoun, Weight: 1.2, Hint: "code"},
		{Query: "func (" + lowerNoun, Weight: 1.1, Hint: "code"},
		{Query: capitalNoun + " method", Weight: 1.0, Hint: "code"},
		{Query: capitalNoun + "(", Weight: 0.9, Hint: "code"},
		{Query: capitalNoun, Weight: 0.8, Hint: "code"},
	}
}

// decomposeHowDoesWork generates sub-queries for "How does {X} work"
// style queries: one sub-query per significant word in the topic, plus a
// file-name guess and a Go function-signature guess for the topic's last
// word.
func (d *PatternDecomposer) decomposeHowDoesWork(topic string) []SubQuery {
	words := strings.Fields(topic)
	subQueries := make([]SubQuery, 0, len(words)*2)

	for _, word := range words {
		word = strings.TrimSpace(word)
		if len(word) < 2 {
			continue
		}
		if isStopWord(strings.ToLower(word)) {
			continue
		}

		subQueries = append(subQueries, SubQuery{Query: word, Weight: 1.0})

		if len(word) >= 3 {
			subQueries = append(subQueries, SubQuery{
				Query:  strings.ToLower(word) + ".go",
				Weight: 1.1,
				Hint:   "code",
			})
		}
	}

	if len(words) > 0 {
		mainTerm := strings.Title(strings.ToLower(words[len(words)-1])) //nolint:staticcheck
		subQueries = append(subQueries, SubQuery{
			Query:  "func " + mainTerm,
			Weight: 1.0,
			Hint:   "code",
		})
	}

	if len(subQueries) == 0 {
		return []SubQuery{{Query: topic, Weight: 1.0}}
	}
	return subQueries
}

var _ QueryDecomposer = (*PatternDecomposer)(nil)
