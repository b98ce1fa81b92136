package mcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringArg(t *testing.T) {
	t.Run("required present", func(t *testing.T) {
		argsMap := map[string]interface{}{"name": "value"}
		result, err := parseStringArg(argsMap, "name", true)
		require.NoError(t, err)
		assert.Equal(t, "value", result)
	})

	t.Run("required missing", func(t *testing.T) {
		result, err := parseStringArg(map[string]interface{}{}, "name", true)
		require.Error(t, err)
		assert.Empty(t, result)
	})

	t.Run("required empty", func(t *testing.T) {
		argsMap := map[string]interface{}{"name": ""}
		_, err := parseStringArg(argsMap, "name", true)
		require.Error(t, err)
	})

	t.Run("optional missing returns zero value", func(t *testing.T) {
		result, err := parseStringArg(map[string]interface{}{}, "name", false)
		require.NoError(t, err)
		assert.Empty(t, result)
	})

	t.Run("wrong type", func(t *testing.T) {
		argsMap := map[string]interface{}{"name": 42}
		_, err := parseStringArg(argsMap, "name", true)
		require.Error(t, err)
	})
}

func TestParseIntArg(t *testing.T) {
	t.Run("present as float64", func(t *testing.T) {
		argsMap := map[string]interface{}{"top_k": float64(25)}
		assert.Equal(t, 25, parseIntArg(argsMap, "top_k", 10))
	})

	t.Run("missing returns default", func(t *testing.T) {
		assert.Equal(t, 10, parseIntArg(map[string]interface{}{}, "top_k", 10))
	})

	t.Run("wrong type returns default", func(t *testing.T) {
		argsMap := map[string]interface{}{"top_k": "nope"}
		assert.Equal(t, 10, parseIntArg(argsMap, "top_k", 10))
	})
}

func TestParseClampedInt(t *testing.T) {
	t.Run("clamps above max", func(t *testing.T) {
		argsMap := map[string]interface{}{"top_k": float64(500)}
		assert.Equal(t, 50, parseClampedInt(argsMap, "top_k", 10, 1, 50))
	})

	t.Run("clamps below min", func(t *testing.T) {
		argsMap := map[string]interface{}{"top_k": float64(-5)}
		assert.Equal(t, 1, parseClampedInt(argsMap, "top_k", 10, 1, 50))
	})

	t.Run("within range is unchanged", func(t *testing.T) {
		argsMap := map[string]interface{}{"top_k": float64(20)}
		assert.Equal(t, 20, parseClampedInt(argsMap, "top_k", 10, 1, 50))
	})
}

func TestParseFloatArg(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		argsMap := map[string]interface{}{"min_score": float64(42.5)}
		assert.Equal(t, 42.5, parseFloatArg(argsMap, "min_score", 0))
	})

	t.Run("missing returns default", func(t *testing.T) {
		assert.Equal(t, 0.0, parseFloatArg(map[string]interface{}{}, "min_score", 0))
	})
}

func TestParseArrayArg(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		argsMap := map[string]interface{}{
			"file_extensions": []interface{}{".go", ".md"},
		}
		assert.Equal(t, []string{".go", ".md"}, parseArrayArg(argsMap, "file_extensions"))
	})

	t.Run("missing returns nil", func(t *testing.T) {
		assert.Nil(t, parseArrayArg(map[string]interface{}{}, "file_extensions"))
	})

	t.Run("filters non-string elements", func(t *testing.T) {
		argsMap := map[string]interface{}{
			"file_extensions": []interface{}{".go", float64(1)},
		}
		assert.Equal(t, []string{".go"}, parseArrayArg(argsMap, "file_extensions"))
	})
}

func TestArgsMapFromRequest(t *testing.T) {
	t.Run("valid map", func(t *testing.T) {
		raw := map[string]interface{}{"a": "b"}
		m, err := argsMapFromRequest(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, m)
	})

	t.Run("invalid shape", func(t *testing.T) {
		_, err := argsMapFromRequest("not a map")
		require.Error(t, err)
	})

	t.Run("nil", func(t *testing.T) {
		_, err := argsMapFromRequest(nil)
		require.Error(t, err)
	})
}
