package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/service"
)

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func boardState() *engine.GameState {
	return &engine.GameState{
		Snapshot: engine.Snapshot{
			PlayerName: "Ana",
			Score:      20,
			Level:      1,
			Cards: []engine.Card{
				{ID: 0, ImageID: 3, PairID: 1, Position: 0, Matched: true, Flipped: true},
				{ID: 1, ImageID: 3, PairID: 1, Position: 1, Matched: true, Flipped: true},
				{ID: 2, ImageID: 7, PairID: 2, Position: 2, Flipped: true},
				{ID: 3, ImageID: 7, PairID: 2, Position: 3},
			},
		},
		ElapsedMs:    65000,
		Phase:        engine.PhaseAwaitingSecondCard,
		GridSize:     2,
		MatchedPairs: 1,
		TotalPairs:   2,
	}
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL)

	if client == nil {
		t.Fatal("Expected client to be created")
	}
	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]string
	if err := client.apiCall("GET", "/api/health", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", response["status"])
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	if err := client.apiCall("GET", "/api/health", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	t.Run("plain body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall("GET", "/api/health", nil, nil)
		if err == nil || !strings.Contains(err.Error(), "API error") {
			t.Errorf("Expected 'API error', got: %v", err)
		}
	})

	t.Run("json error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "session not found"})
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall("GET", "/api/sessions/x", nil, nil)
		if err == nil || err.Error() != "session not found" {
			t.Errorf("Expected server message, got: %v", err)
		}
	})
}

func TestClient_createSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}

		var req service.CreateSessionRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.PlayerName != "Ana" || req.Level != 2 {
			t.Errorf("Unexpected request %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(service.SessionInfo{ID: "game_123", GameState: boardState()})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateSession(context.Background(), callTool("create_session", map[string]interface{}{
		"player_name": "Ana",
		"level":       float64(2),
	}))
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}

	if text := resultText(t, result); !strings.Contains(text, "game_123") {
		t.Errorf("Expected session ID in result, got: %s", text)
	}
}

func TestClient_selectCard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/game_1/select" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}

		var body map[string]int
		json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(service.SelectResult{
			Accepted:      true,
			Position:      body["position"],
			GameState:     boardState(),
			SettleDelayMs: 1000,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	result, err := client.handleSelectCard(ctx, callTool("select_card", map[string]interface{}{
		"session_id": "game_1",
		"position":   float64(3),
		"intent":     "partner of the 7 I saw",
	}))
	if err != nil {
		t.Fatalf("selectCard failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"Flipped card at position 3", "resolves in 1000 ms"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}

	// Position is required
	result, _ = client.handleSelectCard(ctx, callTool("select_card", map[string]interface{}{"session_id": "game_1"}))
	if !result.IsError {
		t.Error("Expected error result without a position")
	}
}

func TestClient_restartReportsNewSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/game_old/restart" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message":             "Game restarted",
			"previous_session_id": "game_old",
			"session":             service.SessionInfo{ID: "game_new", GameState: boardState()},
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleRestart(context.Background(),
		callTool("restart_game", map[string]interface{}{"session_id": "game_old"}))
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}

	if text := resultText(t, result); !strings.Contains(text, "New session ID: game_new (was game_old)") {
		t.Errorf("Expected new session ID in result, got: %s", text)
	}
}

func TestClient_listSaves(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count": 2,
			"saves": []service.SavedGameInfo{
				{FileName: "game_1.xml", Readable: true, DisplayName: "Ana - Level 1 - 20 pts"},
				{FileName: "broken.json", Error: "parse error"},
			},
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleListSaves(context.Background(), callTool("list_saves", nil))
	if err != nil {
		t.Fatalf("listSaves failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"Saved Games (2)", "Ana - Level 1 - 20 pts", "broken.json (unreadable: parse error)"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestFormatGameState(t *testing.T) {
	result := formatGameState(boardState())

	expectedFields := []string{
		"Player: Ana",
		"Level: 1",
		"Score: 20",
		"Time: 01:05",
		"Pairs: 1/2",
		"Phase: awaiting_second_card",
		"[  ] [  ]\n[07] [##]\n",
	}

	for _, field := range expectedFields {
		if !strings.Contains(result, field) {
			t.Errorf("Expected field '%s' in formatted output, got: %s", field, result)
		}
	}

	if formatGameState(nil) != "No game state available" {
		t.Error("Expected placeholder for nil state")
	}
}

func TestFormatGameState_Completed(t *testing.T) {
	state := boardState()
	state.Completed = true
	state.Paused = true
	state.PlayerName = ""

	result := formatGameState(state)

	for _, want := range []string{"LEVEL COMPLETE", "(paused)", "Player: " + engine.AnonymousPlayer} {
		if !strings.Contains(result, want) {
			t.Errorf("Expected %q in result, got: %s", want, result)
		}
	}
}

func TestFormatBoard_EmptyCell(t *testing.T) {
	// Level 2 leaves the last cell of the 5x5 board empty
	state := &engine.GameState{
		Snapshot: engine.Snapshot{Cards: engine.BuildDeck(2, nil)},
		GridSize: 5,
	}

	rows := strings.Split(strings.TrimSuffix(formatBoard(state), "\n"), "\n")
	if len(rows) != 5 {
		t.Fatalf("Expected 5 rows, got %d", len(rows))
	}
	if !strings.HasSuffix(rows[4], "[##]     ") {
		t.Errorf("Expected an empty last cell, got %q", rows[4])
	}
}

func TestFormatHistory(t *testing.T) {
	history := &service.HistoryResponse{
		Moves:      []string{"Flipped card at position 4", "Mismatch: 4 - 9"},
		TotalMoves: 12,
		Page:       2,
		PageSize:   10,
		TotalPages: 2,
	}

	result := formatHistory(history)

	for _, want := range []string{"Page 2/2", "Total: 12", "11. Flipped card at position 4", "12. Mismatch: 4 - 9"} {
		if !strings.Contains(result, want) {
			t.Errorf("Expected %q in history, got: %s", want, result)
		}
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), callTool("game_instructions", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, content := range []string{"GAME OBJECTIVE:", "LEVELS:", "BOARD LEGEND", "STRATEGY:", "SAVED GAMES:"} {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions", content)
		}
	}
}
