package models

import (
	"encoding/gob"
	"encoding/json"
)

func init() {
	// Register composite types carried inside interface{} fields
	// (Scan.Results, FlowStep inputs/outputs, graph node properties) for
	// BadgerDB serialization.
	gob.Register(map[string]interface{}{})
	gob.Register([]interface{}{})
	gob.Register([]map[string]interface{}{})
	gob.Register([]string{})
	gob.Register(json.RawMessage{})
}
