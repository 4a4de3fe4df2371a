package flows

import "strings"

// GenerateSampleData synthesizes a seed value for compile-only runs, typed
// by the requested input type.
func GenerateSampleData(typeStr string) interface{} {
	switch strings.ToLower(typeStr) {
	case "", "string":
		return "sample_text"
	case "number":
		return 42
	case "boolean":
		return true
	case "array", "array<string>":
		return []interface{}{1, 2, 3}
	case "object":
		return map[string]interface{}{"key": "value"}
	case "url":
		return "https://example.com"
	case "email":
		return "user@example.com"
	case "domain":
		return "example.com"
	case "ip":
		return "192.168.1.1"
	default:
		return "sample_" + strings.ToLower(typeStr)
	}
}
