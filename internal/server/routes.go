package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route - progress and log streaming
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Enrichers
	mux.HandleFunc("/api/enrichers", s.app.EnricherHandler.ListHandler)
	mux.HandleFunc("/api/enrichers/", s.handleEnricherRoutes) // /{name}/launch

	// API routes - Flows
	mux.HandleFunc("/api/flows", s.app.FlowHandler.ListHandler)
	mux.HandleFunc("/api/flows/raw_materials", s.app.FlowHandler.RawMaterialsHandler)
	mux.HandleFunc("/api/flows/create", s.app.FlowHandler.CreateHandler)
	mux.HandleFunc("/api/flows/input_type/", s.handleFlowInputTypeRoute)
	mux.HandleFunc("/api/flows/", s.handleFlowRoutes) // /{id}, /{id}/launch, /{id}/compute

	// API routes - Types
	mux.HandleFunc("/api/types", s.app.TypeHandler.ListHandler)

	// API routes - Scans
	mux.HandleFunc("/api/scans/", s.handleScanRoutes) // /{id}, /{id}/log

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleEnricherRoutes routes /api/enrichers/{name}/launch
func (s *Server) handleEnricherRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/enrichers/")

	if name, ok := strings.CutSuffix(path, "/launch"); ok && name != "" {
		s.app.EnricherHandler.LaunchHandler(w, r, name)
		return
	}

	s.app.APIHandler.NotFoundHandler(w, r)
}

// handleFlowInputTypeRoute routes /api/flows/input_type/{t}
func (s *Server) handleFlowInputTypeRoute(w http.ResponseWriter, r *http.Request) {
	inputType := strings.TrimPrefix(r.URL.Path, "/api/flows/input_type/")
	if inputType == "" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}
	s.app.FlowHandler.InputTypeHandler(w, r, inputType)
}

// handleFlowRoutes routes /api/flows/{id} and its subpaths
func (s *Server) handleFlowRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/flows/")

	if id, ok := strings.CutSuffix(path, "/launch"); ok && id != "" {
		if r.Method == http.MethodPost {
			s.app.FlowHandler.LaunchHandler(w, r, id)
			return
		}
	}
	if _, ok := strings.CutSuffix(path, "/compute"); ok {
		if r.Method == http.MethodPost {
			s.app.FlowHandler.ComputeHandler(w, r)
			return
		}
	}

	if path == "" || strings.Contains(path, "/") {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.app.FlowHandler.GetHandler(w, r, path)
	case http.MethodPut:
		s.app.FlowHandler.UpdateHandler(w, r, path)
	case http.MethodDelete:
		s.app.FlowHandler.DeleteHandler(w, r, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleScanRoutes routes /api/scans/{id} and /api/scans/{id}/log
func (s *Server) handleScanRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/scans/")

	if id, ok := strings.CutSuffix(path, "/log"); ok && id != "" {
		s.app.ScanHandler.LogHandler(w, r, id)
		return
	}

	if path == "" || strings.Contains(path, "/") {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	s.app.ScanHandler.GetHandler(w, r, path)
}
