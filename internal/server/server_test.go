package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/flowsint/flowsint/internal/app"
	"github.com/flowsint/flowsint/internal/common"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	config := common.NewDefaultConfig()
	config.Storage.Badger.Path = t.TempDir()
	config.Engine.LogDir = t.TempDir()

	application, err := app.New(config, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	return New(application)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/version", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "version")
}

func TestListEnrichers(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/enrichers", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var descriptors []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &descriptors))
	assert.NotEmpty(t, descriptors)

	names := map[string]bool{}
	for _, desc := range descriptors {
		names[desc["name"].(string)] = true
		assert.Equal(t, false, desc["wobblyType"])
	}
	assert.True(t, names["domain_to_ip"])
	assert.True(t, names["ip_to_asn"])
}

func TestListEnrichersByCustomCategory(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/enrichers?category=MyCustomType", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var descriptors []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &descriptors))
	require.NotEmpty(t, descriptors)
	assert.Equal(t, true, descriptors[0]["wobblyType"])
}

func TestLaunchUnknownEnricher(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/enrichers/no_such/launch", map[string]interface{}{
		"node_ids":  []string{"n1"},
		"sketch_id": "sketch-1",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "detail")
}

func TestLaunchWithMissingNodes(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/enrichers/domain_to_ip/launch", map[string]interface{}{
		"node_ids":  []string{"missing-node"},
		"sketch_id": "sketch-1",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFlowCRUDAndCompute(t *testing.T) {
	s := newTestServer(t)

	schema := map[string]interface{}{
		"nodes": []map[string]interface{}{
			{
				"id": "seed-1",
				"data": map[string]interface{}{
					"type": "type",
					"name": "Domain",
					"outputs": map[string]interface{}{
						"properties": []map[string]interface{}{{"name": "domain", "type": "string"}},
					},
				},
			},
			{
				"id": "domain_to_ip-1",
				"data": map[string]interface{}{
					"type": "enricher",
					"name": "domain_to_ip",
					"outputs": map[string]interface{}{
						"properties": []map[string]interface{}{{"name": "address", "type": "string"}},
					},
				},
			},
		},
		"edges": []map[string]interface{}{
			{"source": "seed-1", "sourceHandle": "domain", "target": "domain_to_ip-1", "targetHandle": "domain"},
		},
	}

	// Create
	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/flows/create", map[string]interface{}{
		"name":        "Domain recon",
		"description": "resolve seeds",
		"category":    []string{"Domain"},
		"flow_schema": schema,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	flowID := created["id"].(string)
	require.NotEmpty(t, flowID)

	// Get
	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/flows/"+flowID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Domain recon")

	// List
	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/flows", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), flowID)

	// Compute (compile-only)
	rec = doJSON(t, s.Handler(), http.MethodPost, "/api/flows/"+flowID+"/compute", map[string]interface{}{
		"nodes":     schema["nodes"],
		"edges":     schema["edges"],
		"inputType": "domain",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var computed struct {
		FlowBranches []struct {
			ID    string                   `json:"id"`
			Steps []map[string]interface{} `json:"steps"`
		} `json:"flowBranches"`
		InitialData interface{} `json:"initialData"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &computed))
	require.Len(t, computed.FlowBranches, 1)
	assert.Len(t, computed.FlowBranches[0].Steps, 2)
	assert.Equal(t, "example.com", computed.InitialData)

	// Delete
	rec = doJSON(t, s.Handler(), http.MethodDelete, "/api/flows/"+flowID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/flows/"+flowID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetUnknownScan(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/scans/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTypesEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/types", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Domain")
	assert.Contains(t, rec.Body.String(), "Infrastructure")
}

func TestRawMaterials(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/flows/raw_materials", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items map[string]interface{} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Items, "types")
	assert.Contains(t, body.Items, "Domain")
}

func TestInputTypeEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/flows/input_type/Ip", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []map[string]interface{} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Items)
	for _, item := range body.Items {
		assert.Contains(t, []interface{}{"Ip", "Any"}, item["input_type"])
	}
}

func TestUnmatchedAPIRoute(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "detail")
}
