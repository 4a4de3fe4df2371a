package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsint/flowsint/internal/interfaces"
)

func TestParseValidRecords(t *testing.T) {
	tests := []struct {
		name     string
		typeName string
		record   map[string]interface{}
		wantKey  string
	}{
		{
			name:     "domain",
			typeName: "Domain",
			record:   map[string]interface{}{"domain": "example.com"},
			wantKey:  "example.com",
		},
		{
			name:     "domain with label",
			typeName: "domain",
			record:   map[string]interface{}{"domain": "example.com", "label": "Example"},
			wantKey:  "example.com",
		},
		{
			name:     "ip",
			typeName: "Ip",
			record:   map[string]interface{}{"address": "192.168.1.1"},
			wantKey:  "192.168.1.1",
		},
		{
			name:     "asn",
			typeName: "ASN",
			record:   map[string]interface{}{"number": float64(16276), "name": "OVH"},
			wantKey:  "16276",
		},
		{
			name:     "email",
			typeName: "Email",
			record:   map[string]interface{}{"email": "user@example.com"},
			wantKey:  "user@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity, err := Parse(tt.typeName, tt.record)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, entity.KeyValue())
		})
	}
}

func TestParseInvalidRecords(t *testing.T) {
	tests := []struct {
		name     string
		typeName string
		record   map[string]interface{}
	}{
		{name: "malformed domain", typeName: "Domain", record: map[string]interface{}{"domain": "not a domain"}},
		{name: "missing domain", typeName: "Domain", record: map[string]interface{}{"label": "x"}},
		{name: "malformed ip", typeName: "Ip", record: map[string]interface{}{"address": "999.999.1.1"}},
		{name: "malformed email", typeName: "Email", record: map[string]interface{}{"email": "nope"}},
		{name: "zero asn", typeName: "ASN", record: map[string]interface{}{"number": float64(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.typeName, tt.record)
			require.Error(t, err)
			assert.True(t, interfaces.IsValidation(err), "expected a ValidationError, got %T", err)
		})
	}
}

func TestParseUnknownType(t *testing.T) {
	_, err := Parse("Spaceship", map[string]interface{}{"hull": "steel"})
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

// Round trip: parse -> serialize -> parse yields an equal entity
func TestEntityRoundTrip(t *testing.T) {
	records := []struct {
		typeName string
		record   map[string]interface{}
	}{
		{"Domain", map[string]interface{}{"domain": "sub.example.com", "root": "example.com", "label": "sub"}},
		{"Ip", map[string]interface{}{"address": "10.0.0.1", "country": "France", "city": "Paris"}},
		{"ASN", map[string]interface{}{"number": float64(16276), "name": "OVH", "country": "FR"}},
		{"Whois", map[string]interface{}{
			"domain":    map[string]interface{}{"domain": "example.com"},
			"registrar": "Example Registrar",
		}},
	}

	for _, tt := range records {
		t.Run(tt.typeName, func(t *testing.T) {
			first, err := Parse(tt.typeName, tt.record)
			require.NoError(t, err)

			serialized, err := ToRecord(first)
			require.NoError(t, err)

			second, err := Parse(tt.typeName, serialized)
			require.NoError(t, err)

			assert.Equal(t, first, second)
		})
	}
}

func TestDisplayLabel(t *testing.T) {
	domain := &Domain{Domain: "example.com"}
	assert.Equal(t, "example.com", domain.DisplayLabel())

	domain.Label = "My Target"
	assert.Equal(t, "My Target", domain.DisplayLabel())

	asn := &ASN{Number: 16276}
	assert.Equal(t, "AS16276", asn.DisplayLabel())
}

func TestValidateRejectsEmptyPrimaryKey(t *testing.T) {
	err := Validate(&Individual{})
	require.Error(t, err)
	assert.True(t, interfaces.IsValidation(err))
}
