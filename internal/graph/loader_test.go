package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanNodeRecord(t *testing.T) {
	record := map[string]interface{}{
		"type":       "domain",
		"domain":     "example.com",
		"label":      "example.com",
		"sketch_id":  "should-be-removed",
		"created_at": "should-be-removed",
		"x":          100,
		"y":          200,
		"caption":    "should-be-removed",
		"color":      "should-be-removed",
	}

	cleaned := CleanNodeRecord(record)

	assert.Equal(t, "example.com", cleaned["domain"])
	assert.Equal(t, "example.com", cleaned["label"])
	for _, field := range []string{"type", "sketch_id", "created_at", "x", "y", "caption", "color"} {
		assert.NotContains(t, cleaned, field)
	}
}

func TestCleanNodeRecordDropsEmptyValues(t *testing.T) {
	record := map[string]interface{}{
		"address":   "192.168.1.1",
		"latitude":  "",
		"country":   nil,
		"tags":      []interface{}{},
		"meta":      map[string]interface{}{},
		"city":      "Paris",
		"zero":      0, // numeric zero is a value, not an empty marker
		"falsehood": false,
	}

	cleaned := CleanNodeRecord(record)

	assert.Equal(t, map[string]interface{}{
		"address":   "192.168.1.1",
		"city":      "Paris",
		"zero":      0,
		"falsehood": false,
	}, cleaned)
}
