package search

// stopWords is the built-in multilingual stop-word set query expansion
// strips before building a lexical keyword form.
// Covers English plus the handful of other languages likely to appear in
// comments and documentation across an indexed codebase: French, German,
// Spanish, Portuguese.
var stopWords = map[string]bool{
	// English
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "must": true, "shall": true,
	"and": true, "but": true, "or": true, "nor": true, "for": true,
	"yet": true, "so": true, "to": true, "of": true, "in": true,
	"on": true, "at": true, "by": true, "with": true, "from": true,
	"it": true, "its": true, "this": true, "that": true, "these": true,
	"those": true, "which": true, "what": true, "who": true, "whom": true,
	"how": true, "why": true, "when": true, "where": true, "i": true,
	"you": true, "he": true, "she": true, "we": true, "they": true,

	// French
	"le": true, "la": true, "les": true, "un": true, "une": true,
	"des": true, "et": true, "ou": true, "est": true, "sont": true,
	"dans": true, "pour": true, "avec": true, "sur": true, "que": true,

	// German
	"der": true, "die": true, "das": true, "und": true, "oder": true,
	"ist": true, "sind": true, "mit": true, "für": true, "von": true,
	"auf": true, "nicht": true, "ein": true, "eine": true,

	// Spanish
	"el": true, "los": true, "las": true, "y": true, "es": true,
	"son": true, "para": true, "con": true, "por": true, "del": true,
	"una": true, "como": true,

	// Portuguese
	"os": true, "uma": true,
	"com": true, "são": true, "não": true, "mais": true,
}

// isStopWord reports whether word (already lowercased) carries no search
// value on its own.
func isStopWord(word string) bool {
	return stopWords[word]
}
