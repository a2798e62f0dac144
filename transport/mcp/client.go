package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Memory Match Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Memory Match Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Find every pair of matching cards. Flip two cards per turn; a match scores
10 x level points, a mismatch turns both cards face down again after a short delay.

AVAILABLE TOOLS:
- create_session: Start a new game
- list_sessions / get_session: Inspect live games
- game_state: Show the board
- select_card: Flip the card at a position - requires intent explanation
- pause_game / resume_game: Stop and restart the clock
- restart_game / next_level: Start over or advance after completing a level
- move_history: View past moves
- save_game / list_saves / load_game / delete_save / convert_save: Saved games
- get_preferences: Current player preferences
- game_instructions: Rules and strategy

NOTE: The 'intent' parameter on select_card serves as rubber duck debugging - explain your reasoning!`),
	)

	// Register all tools
	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func sessionOnlySchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"session_id": sessionIDProperty(),
		},
		Required: []string{"session_id"},
	}
}

func emptySchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session. Unset fields come from the preference profile.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"profile": map[string]interface{}{
					"type":        "string",
					"description": "Preference profile to use (optional)",
				},
				"player_name": map[string]interface{}{
					"type":        "string",
					"description": "Player name (optional)",
				},
				"level": map[string]interface{}{
					"type":        "integer",
					"description": "Starting level 1-3 (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: emptySchema(),
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionOnlySchema(),
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, score and turn phase",
		InputSchema: sessionOnlySchema(),
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_card",
		Description: "Flip the card at a board position. The second card of a turn resolves after the settle delay.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"position": map[string]interface{}{
					"type":        "integer",
					"description": "Board position (0-based, row by row)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why you picked this card (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "position"},
		},
	}, c.handleSelectCard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "pause_game",
		Description: "Pause the game clock and ignore card selections",
		InputSchema: sessionOnlySchema(),
	}, c.handlePause)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "resume_game",
		Description: "Resume a paused game",
		InputSchema: sessionOnlySchema(),
	}, c.handleResume)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restart_game",
		Description: "Start the current level again with a fresh deck. The session gets a new ID.",
		InputSchema: sessionOnlySchema(),
	}, c.handleRestart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "next_level",
		Description: "Advance to the next level after completing the current one. The session gets a new ID.",
		InputSchema: sessionOnlySchema(),
	}, c.handleNextLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	// Saved games
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "save_game",
		Description: "Save a session to disk",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"format": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"txt", "xml", "json"},
					"description": "Save format (defaults to the game's format)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleSaveGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_saves",
		Description: "List saved games in every format, including unreadable files",
		InputSchema: emptySchema(),
	}, c.handleListSaves)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "load_game",
		Description: "Resume a saved game as a new live session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file_name": map[string]interface{}{
					"type":        "string",
					"description": "Saved game file name, e.g. game_123.json",
				},
				"fallback": map[string]interface{}{
					"type":        "boolean",
					"description": "Start a new game if the file cannot be loaded",
				},
			},
			Required: []string{"file_name"},
		},
	}, c.handleLoadGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_save",
		Description: "Delete a saved game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file_name": map[string]interface{}{
					"type":        "string",
					"description": "Saved game file name",
				},
			},
			Required: []string{"file_name"},
		},
	}, c.handleDeleteSave)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "convert_save",
		Description: "Rewrite a saved game in another format",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"file_name": map[string]interface{}{
					"type":        "string",
					"description": "Saved game file name",
				},
				"format": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"txt", "xml", "json"},
					"description": "Target format",
				},
			},
			Required: []string{"file_name", "format"},
		},
	}, c.handleConvertSave)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_preferences",
		Description: "Show the default player preferences",
		InputSchema: emptySchema(),
	}, c.handleGetPreferences)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get game instructions and rules",
		InputSchema: emptySchema(),
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	endpoint := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, endpoint, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArgument reads a JSON number argument. ok is false when it is absent.
func intArgument(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

func savePath(fileName, suffix string) string {
	return "/api/saves/" + url.PathEscape(fileName) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := service.CreateSessionRequest{}
	body.Profile, _ = args["profile"].(string)
	body.PlayerName, _ = args["player_name"].(string)
	if level, ok := intArgument(args, "level"); ok {
		body.Level = level
	}

	var session service.SessionInfo
	err := c.apiCall("POST", "/api/sessions", body, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\n\n%s", session.ID, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	err := c.apiCall("GET", "/api/sessions", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		result += fmt.Sprintf("- %s (%s, Created: %s)\n",
			s.ID, s.Summary, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	err := c.apiCall("GET", sessionPath(sessionID, ""), nil, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	err := c.apiCall("GET", sessionPath(sessionID, "/state"), nil, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleSelectCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	intent, _ := args["intent"].(string)

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = intent

	position, ok := intArgument(args, "position")
	if !ok {
		return mcp.NewToolResultError("position is required"), nil
	}

	var result service.SelectResult
	err := c.apiCall("POST", sessionPath(sessionID, "/select"), map[string]int{"position": position}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSelectResult(&result)), nil
}

func (c *Client) handlePause(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.stateAction(request, "/pause", "Game paused")
}

func (c *Client) handleResume(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.stateAction(request, "/resume", "Game resumed")
}

func (c *Client) stateAction(request mcp.CallToolRequest, suffix, message string) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	err := c.apiCall("POST", sessionPath(sessionID, suffix), nil, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", message, formatGameState(&state))), nil
}

func (c *Client) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.replaceAction(request, "/restart")
}

func (c *Client) handleNextLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.replaceAction(request, "/next-level")
}

func (c *Client) replaceAction(request mcp.CallToolRequest, suffix string) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message  string               `json:"message"`
		Previous string               `json:"previous_session_id"`
		Session  *service.SessionInfo `json:"session"`
	}
	err := c.apiCall("POST", sessionPath(sessionID, suffix), nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if response.Session == nil {
		return mcp.NewToolResultError("server returned no session"), nil
	}

	result := fmt.Sprintf("%s\nNew session ID: %s (was %s)\n\n%s",
		response.Message, response.Session.ID, response.Previous, formatGameState(response.Session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArgument(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArgument(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	params.Set("order", "asc")

	var history service.HistoryResponse
	err := c.apiCall("GET", sessionPath(sessionID, "/history?"+params.Encode()), nil, &history)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleSaveGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	format, _ := args["format"].(string)

	var body interface{}
	if format != "" {
		body = map[string]string{"format": format}
	}

	var result service.SaveResult
	if err := c.apiCall("POST", sessionPath(sessionID, "/save"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Saved %s (%s)", result.FileName, result.Format)), nil
}

func (c *Client) handleListSaves(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int                     `json:"count"`
		Saves []service.SavedGameInfo `json:"saves"`
	}
	if err := c.apiCall("GET", "/api/saves", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No saved games"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Saved Games (%d):\n\n", response.Count)
	for _, save := range response.Saves {
		if save.Readable {
			fmt.Fprintf(&b, "- %s\n  %s\n", save.FileName, save.DisplayName)
		} else {
			fmt.Fprintf(&b, "- %s (unreadable: %s)\n", save.FileName, save.Error)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleLoadGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	fileName, _ := args["file_name"].(string)
	fallback, _ := args["fallback"].(bool)

	body := map[string]interface{}{
		"file_name": fileName,
		"fallback":  fallback,
	}

	var session service.SessionInfo
	if err := c.apiCall("POST", "/api/saves/load", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Loaded session: %s\n", session.ID)
	if session.Notice != "" {
		result += session.Notice + "\n"
	}
	result += "\n" + formatGameState(session.GameState)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleDeleteSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fileName, _ := arguments(request)["file_name"].(string)

	var response map[string]string
	if err := c.apiCall("DELETE", savePath(fileName, ""), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(response["message"]), nil
}

func (c *Client) handleConvertSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	fileName, _ := args["file_name"].(string)
	format, _ := args["format"].(string)

	var result service.SaveResult
	err := c.apiCall("POST", savePath(fileName, "/convert"), map[string]string{"format": format}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Converted %s to %s", fileName, result.FileName)), nil
}

func (c *Client) handleGetPreferences(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var prefs service.Preferences
	if err := c.apiCall("GET", "/api/preferences", nil, &prefs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := prefs.PlayerName
	if name == "" {
		name = engine.AnonymousPlayer
	}
	result := fmt.Sprintf("Player: %s\nSound: %v\nTheme: %s\nSave format: %s",
		name, prefs.SoundEnabled, prefs.ThemeName, prefs.SaveFormat)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Memory Match Game - Instructions

GAME OBJECTIVE:
Turn every card face up by finding all matching pairs.

GAME MECHANICS:
- Each turn flips two cards with select_card
- Matching images stay face up and score 10 x level points
- A mismatch turns both cards face down again
- The second card of a turn resolves after about one second; selections
  during that time are ignored
- Pausing stops the clock; cards cannot be flipped while paused

LEVELS:
- Level 1: 4x4 board, 8 pairs
- Level 2: 5x5 board, 12 pairs (one empty cell)
- Level 3: 6x6 board, 18 pairs
- After completing a level use next_level to keep your score and advance,
  or restart_game to replay the level from zero

BOARD LEGEND (game_state):
- [##] face down card, selectable
- [NN] face up card showing image NN
- [  ] matched card

STRATEGY:
- Remember every image you have seen and its position
- When the first card of a turn shows an image you have seen before, pick its partner
- Otherwise flip an unseen card to learn more of the board
- Call game_state after a mismatch has settled to confirm the board

SAVED GAMES:
- save_game writes txt, xml or json files named after the session ID
- load_game resumes a save as a new live session
- convert_save rewrites a save in another format`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nCreated: %s\nLast accessed: %s\n\n%s",
		session.ID,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.LastAccessedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	name := state.PlayerName
	if name == "" {
		name = engine.AnonymousPlayer
	}
	result.WriteString(fmt.Sprintf("Player: %s | Level: %d | Score: %d | Time: %s | Pairs: %d/%d\n",
		name, state.Level, state.Score,
		engine.FormatElapsed(time.Duration(state.ElapsedMs)*time.Millisecond),
		state.MatchedPairs, state.TotalPairs))
	result.WriteString(fmt.Sprintf("Phase: %s", state.Phase))
	if state.Paused {
		result.WriteString(" (paused)")
	}
	result.WriteString("\n\n")

	result.WriteString(formatBoard(state))

	if state.Completed {
		result.WriteString("\n🎉 LEVEL COMPLETE!")
	}

	if state.Message != "" {
		result.WriteString(fmt.Sprintf("\nMessage: %s", state.Message))
	}

	return result.String()
}

// formatBoard lays the cards out by position, GridSize cells per row
func formatBoard(state *engine.GameState) string {
	edge := state.GridSize
	if edge <= 0 {
		edge = engine.DefaultEdgeSize
	}

	byPosition := make(map[int]engine.Card, len(state.Cards))
	for _, card := range state.Cards {
		byPosition[card.Position] = card
	}

	var b strings.Builder
	for pos := 0; pos < edge*edge; pos++ {
		card, ok := byPosition[pos]
		switch {
		case !ok:
			b.WriteString("    ")
		case card.Matched:
			b.WriteString("[  ]")
		case card.Flipped:
			b.WriteString(fmt.Sprintf("[%02d]", card.ImageID))
		default:
			b.WriteString("[##]")
		}
		if (pos+1)%edge == 0 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	return b.String()
}

func formatSelectResult(result *service.SelectResult) string {
	response := ""
	if result.Accepted {
		response = fmt.Sprintf("✓ Flipped card at position %d\n", result.Position)
	} else {
		response = fmt.Sprintf("✗ Selection ignored: %s\n", result.Message)
	}

	if result.SettleDelayMs > 0 {
		response += fmt.Sprintf("Pair resolves in %d ms; call game_state to see the outcome\n", result.SettleDelayMs)
	}

	return response + "\n" + formatGameState(result.GameState)
}

func formatHistory(history *service.HistoryResponse) string {
	result := fmt.Sprintf("Move History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for i, move := range history.Moves {
		num := (history.Page-1)*history.PageSize + i + 1
		result += fmt.Sprintf("%d. %s\n", num, move)
	}

	return result
}
