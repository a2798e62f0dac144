package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/service"
	"github.com/wricardo/memory-match-game/game/session"
	"github.com/wricardo/memory-match-game/game/storage"
	"github.com/wricardo/memory-match-game/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/select", s.handleSelect).Methods("POST")
	api.HandleFunc("/sessions/{id}/pause", s.handlePause).Methods("POST")
	api.HandleFunc("/sessions/{id}/resume", s.handleResume).Methods("POST")
	api.HandleFunc("/sessions/{id}/restart", s.handleRestart).Methods("POST")
	api.HandleFunc("/sessions/{id}/next-level", s.handleNextLevel).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")
	api.HandleFunc("/sessions/{id}/save", s.handleSave).Methods("POST")

	// Saved games (load must be before the {file} patterns)
	api.HandleFunc("/saves", s.handleListSaves).Methods("GET")
	api.HandleFunc("/saves/load", s.handleLoad).Methods("POST")
	api.HandleFunc("/saves/{file}", s.handleGetSave).Methods("GET")
	api.HandleFunc("/saves/{file}", s.handleDeleteSave).Methods("DELETE")
	api.HandleFunc("/saves/{file}/raw", s.handleReadSave).Methods("GET")
	api.HandleFunc("/saves/{file}/export", s.handleExportSave).Methods("POST")
	api.HandleFunc("/saves/{file}/convert", s.handleConvertSave).Methods("POST")

	// Preferences
	api.HandleFunc("/preferences", s.handleGetPreferences).Methods("GET")
	api.HandleFunc("/preferences", s.handleUpdatePreferences).Methods("PUT")
	api.HandleFunc("/profiles", s.handleListProfiles).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Static files
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir("./static/")))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors to HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrUnsupportedFormat), errors.Is(err, storage.ErrInvalidName),
		errors.Is(err, session.ErrInvalidSessionID):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrParse), errors.Is(err, engine.ErrInvalidSnapshot):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrNotCompleted), errors.Is(err, engine.ErrMaxLevelReached),
		errors.Is(err, session.ErrSessionAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, storage.ErrIO):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func (s *Server) broadcastState(sessionID string, state *engine.GameState) {
	if s.hub != nil && state != nil {
		s.hub.BroadcastToSession(sessionID, state)
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	info, err := s.service.CreateSession(r.Context(), &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Position *int `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Position == nil {
		respondError(w, http.StatusBadRequest, "Request body must contain a position")
		return
	}

	result, err := s.service.SelectCard(r.Context(), sessionID, *req.Position)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if result.Accepted {
		s.broadcastState(sessionID, result.GameState)
	}
	log.Printf("[SELECT] session=%s position=%d accepted=%v phase=%s score=%d",
		sessionID, *req.Position, result.Accepted, result.GameState.Phase, result.GameState.Score)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Pause(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastState(sessionID, state)
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Resume(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastState(sessionID, state)
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.Restart(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.RenameSession(sessionID, info.ID, info.GameState)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":             "Game restarted",
		"previous_session_id": sessionID,
		"session":             info,
	})
}

func (s *Server) handleNextLevel(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.NextLevel(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.RenameSession(sessionID, info.ID, info.GameState)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":             fmt.Sprintf("Level %d", info.GameState.Level),
		"previous_session_id": sessionID,
		"session":             info,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetMoveHistory(r.Context(), sessionID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	// An empty body saves in the game's own format
	var req struct {
		Format string `json:"format"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	result, err := s.service.SaveGame(r.Context(), sessionID, req.Format)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// Saved Game Handlers

func (s *Server) handleListSaves(w http.ResponseWriter, r *http.Request) {
	saves, err := s.service.ListSavedGames(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(saves),
		"saves": saves,
	})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileName string `json:"file_name"`
		Fallback bool   `json:"fallback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileName == "" {
		respondError(w, http.StatusBadRequest, "Request body must contain a file_name")
		return
	}

	info, err := s.service.LoadGame(r.Context(), req.FileName, req.Fallback)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastState(info.ID, info.GameState)
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleGetSave(w http.ResponseWriter, r *http.Request) {
	fileName := mux.Vars(r)["file"]

	save, err := s.service.GetSavedGame(r.Context(), fileName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, save)
}

func (s *Server) handleReadSave(w http.ResponseWriter, r *http.Request) {
	fileName := mux.Vars(r)["file"]

	raw, err := s.service.ReadSavedGame(r.Context(), fileName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(raw))
}

func (s *Server) handleExportSave(w http.ResponseWriter, r *http.Request) {
	fileName := mux.Vars(r)["file"]

	path, err := s.service.ExportSavedGame(r.Context(), fileName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Exported %s", fileName),
		"path":    path,
	})
}

func (s *Server) handleDeleteSave(w http.ResponseWriter, r *http.Request) {
	fileName := mux.Vars(r)["file"]

	deleted, err := s.service.DeleteSavedGame(r.Context(), fileName)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, fmt.Sprintf("Saved game %s not found", fileName))
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Saved game %s deleted", fileName),
	})
}

func (s *Server) handleConvertSave(w http.ResponseWriter, r *http.Request) {
	fileName := mux.Vars(r)["file"]

	var req struct {
		Format string `json:"format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Format == "" {
		respondError(w, http.StatusBadRequest, "Request body must contain a format")
		return
	}

	result, err := s.service.ConvertSavedGame(r.Context(), fileName, req.Format)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// Preference Handlers

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.service.GetPreferences(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs service.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := s.service.UpdatePreferences(r.Context(), &prefs)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.service.ListProfiles(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, profiles)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "WebSocket updates are disabled", http.StatusServiceUnavailable)
		return
	}

	// Verify session exists
	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	// Register under the canonical ID so broadcasts match
	s.hub.ServeWS(w, r, info.ID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
