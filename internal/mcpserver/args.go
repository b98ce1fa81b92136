package mcpserver

import "fmt"

// parseStringArg extracts a string argument from an MCP arguments map.
// Returns an error if the argument is required but missing or invalid.
func parseStringArg(argsMap map[string]interface{}, key string, required bool) (string, error) {
	val, ok := argsMap[key]
	if !ok {
		if required {
			return "", fmt.Errorf("%s parameter is required", key)
		}
		return "", nil
	}

	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	if required && str == "" {
		return "", fmt.Errorf("%s cannot be empty", key)
	}
	return str, nil
}

// parseIntArg extracts an integer argument. MCP sends numbers as
// float64, so this handles the conversion. Returns defaultVal if the
// argument is missing or invalid.
func parseIntArg(argsMap map[string]interface{}, key string, defaultVal int) int {
	val, ok := argsMap[key]
	if !ok {
		return defaultVal
	}
	if f, ok := val.(float64); ok {
		return int(f)
	}
	return defaultVal
}

// parseClampedInt extracts an integer argument and clamps it to [min, max].
func parseClampedInt(argsMap map[string]interface{}, key string, defaultVal, min, max int) int {
	val := parseIntArg(argsMap, key, defaultVal)
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// parseFloatArg extracts a float argument, defaulting when absent or of
// the wrong type.
func parseFloatArg(argsMap map[string]interface{}, key string, defaultVal float64) float64 {
	val, ok := argsMap[key]
	if !ok {
		return defaultVal
	}
	if f, ok := val.(float64); ok {
		return f
	}
	return defaultVal
}

// parseArrayArg extracts a string array argument. Returns nil if the
// argument is missing, filtering out non-string elements.
func parseArrayArg(argsMap map[string]interface{}, key string) []string {
	val, ok := argsMap[key]
	if !ok {
		return nil
	}
	arr, ok := val.([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(arr))
	for _, item := range arr {
		if str, ok := item.(string); ok {
			result = append(result, str)
		}
	}
	return result
}

// argsMapFromRequest extracts the arguments map from a raw params value,
// the shape mark3labs/mcp-go hands handlers.
func argsMapFromRequest(raw interface{}) (map[string]interface{}, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid arguments format")
	}
	return m, nil
}
