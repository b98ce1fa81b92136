package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandQuery_PreservesEmbedForm(t *testing.T) {
	tests := []struct {
		query    string
		wantTrim string
	}{
		{"  how does authentication work  ", "how does authentication work"},
		{"Search function", "Search function"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := ExpandQuery(tt.query)
			assert.Equal(t, tt.wantTrim, got.Embed)
		})
	}
}

func TestExpandQuery_StripsStopWords(t *testing.T) {
	got := ExpandQuery("how does the authentication work")
	assert.NotContains(t, got.Keyword, "the")
	assert.NotContains(t, got.Keyword, "how")
	assert.NotContains(t, got.Keyword, "does")
	assert.Contains(t, got.Keyword, "authentication")
	assert.Contains(t, got.Keyword, "work")
}

func TestExpandQuery_ORJoinsKeywordForm(t *testing.T) {
	got := ExpandQuery("retry backoff")
	assert.Equal(t, "retry OR backoff", got.Keyword)
}

func TestExpandQuery_AllStopWordsYieldsEmptyKeyword(t *testing.T) {
	got := ExpandQuery("the a an")
	assert.Empty(t, got.Keyword)
}

func TestExpandQuery_DeduplicatesTerms(t *testing.T) {
	got := ExpandQuery("error error handling")
	count := strings.Count(got.Keyword, "error")
	assert.Equal(t, 1, count)
}

func TestExpandQuery_LowercasesKeywordForm(t *testing.T) {
	got := ExpandQuery("Search Engine")
	assert.Equal(t, "search OR engine", got.Keyword)
}

func TestExpandQuery_EmptyQuery(t *testing.T) {
	got := ExpandQuery("")
	assert.Equal(t, "", got.Embed)
	assert.Empty(t, got.Keyword)
}

func TestExpandQuery_ShortTokensDropped(t *testing.T) {
	// single-letter tokens carry no lexical value on their own
	got := ExpandQuery("a b database")
	assert.Equal(t, "database", got.Keyword)
}

// --- Tokenizer Tests ---

func TestTokenize_Whitespace(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"hello world", []string{"hello", "world"}},
		{"  hello   world  ", []string{"hello", "world"}},
		{"hello", []string{"hello"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := tokenize(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestTokenize_CamelCase(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"searchFunction", []string{"search", "Function"}},
		{"SearchEngine", []string{"Search", "Engine"}},
		{"simpleWord", []string{"simple", "Word"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := tokenize(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestTokenize_SnakeCase(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"search_function", []string{"search", "function"}},
		{"get_http_response", []string{"get", "http", "response"}},
		{"_leading", []string{"leading"}},
		{"trailing_", []string{"trailing"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := tokenize(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestTokenize_MixedPunctuation(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"func(ctx, query)", []string{"func", "ctx", "query"}},
		{"error: failed", []string{"error", "failed"}},
		{"path/to/file.go", []string{"path", "to", "file", "go"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := tokenize(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSplitCamelSnake(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"searchFunction", []string{"search", "Function"}},
		{"search_function", []string{"search", "function"}},
		{"PascalCase", []string{"Pascal", "Case"}},
		{"plain", []string{"plain"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := splitCamelSnake(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// --- Stopword Tests ---

func TestIsStopWord(t *testing.T) {
	assert.True(t, isStopWord("the"))
	assert.True(t, isStopWord("and"))
	assert.True(t, isStopWord("est")) // French
	assert.True(t, isStopWord("und")) // German
	assert.False(t, isStopWord("database"))
	assert.False(t, isStopWord("authentication"))
}

func BenchmarkExpandQuery(b *testing.B) {
	query := "how does the search function handle error backoff"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ExpandQuery(query)
	}
}

func BenchmarkTokenize(b *testing.B) {
	query := "searchFunction with error_handling and CamelCase"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tokenize(query)
	}
}
