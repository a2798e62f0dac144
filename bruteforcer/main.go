// Command bruteforcer plays memory match sessions against a running game
// server through its REST API, remembering every card it has seen.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/service"
)

// Client talks to the game server for a single session
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client is playing
func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) sessionURL(suffix string) string {
	return fmt.Sprintf("%s/api/sessions/%s%s", c.baseURL, url.PathEscape(c.sessionID), suffix)
}

// do sends a JSON request and decodes a JSON response into out
func (c *Client) do(method, endpoint string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s: %s", resp.Status, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// CreateSession starts a new game and makes it the client's session
func (c *Client) CreateSession(playerName string, level int) (*engine.GameState, error) {
	req := service.CreateSessionRequest{PlayerName: playerName, Level: level}

	var info service.SessionInfo
	if err := c.do(http.MethodPost, c.baseURL+"/api/sessions", req, &info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	c.sessionID = info.ID
	return info.GameState, nil
}

// Resume makes an existing session the client's session
func (c *Client) Resume(sessionID string) (*engine.GameState, error) {
	c.sessionID = sessionID
	return c.State()
}

func (c *Client) State() (*engine.GameState, error) {
	var state engine.GameState
	if err := c.do(http.MethodGet, c.sessionURL("/state"), nil, &state); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return &state, nil
}

func (c *Client) Select(position int) (*service.SelectResult, error) {
	req := map[string]int{"position": position}

	var result service.SelectResult
	if err := c.do(http.MethodPost, c.sessionURL("/select"), req, &result); err != nil {
		return nil, fmt.Errorf("select %d: %w", position, err)
	}
	return &result, nil
}

// NextLevel advances a completed game. The server replaces the session, so
// the client follows the new id.
func (c *Client) NextLevel() (*engine.GameState, error) {
	var resp struct {
		Session *service.SessionInfo `json:"session"`
	}
	if err := c.do(http.MethodPost, c.sessionURL("/next-level"), nil, &resp); err != nil {
		return nil, fmt.Errorf("next level: %w", err)
	}
	if resp.Session == nil {
		return nil, fmt.Errorf("next level: response has no session")
	}

	c.sessionID = resp.Session.ID
	return resp.Session.GameState, nil
}

// runOptions collects the command line settings of a run
type runOptions struct {
	ServerURL  string
	Continue   string
	PlayerName string
	Level      int
	AllLevels  bool
	Play       PlayOptions
}

// run plays the configured session and, with AllLevels, every level after it
func run(client *Client, opts runOptions) (*engine.GameState, error) {
	var (
		state *engine.GameState
		err   error
	)

	if opts.Continue != "" {
		log.Printf("🔄 Resuming session: %s", opts.Continue)
		state, err = client.Resume(opts.Continue)
	} else {
		state, err = client.CreateSession(opts.PlayerName, opts.Level)
		if err == nil {
			log.Printf("✨ Session created: %s", client.SessionID())
		}
	}
	if err != nil {
		return nil, err
	}

	strategy := NewMemoryStrategy()
	for {
		log.Printf("Level %d: %dx%d board, %d pairs", state.Level, state.GridSize, state.GridSize, state.TotalPairs)

		var turns int
		state, turns, err = Play(client, strategy, opts.Play)
		if err != nil {
			return state, err
		}
		if !state.Completed {
			return state, fmt.Errorf("level %d not completed after %d turns", state.Level, turns)
		}
		log.Printf("🎉 Level %d completed in %d turns, score %d, time %s",
			state.Level, turns, state.Score, engine.FormatElapsed(time.Duration(state.ElapsedMs)*time.Millisecond))

		if !opts.AllLevels || state.Level >= engine.MaxLevel {
			return state, nil
		}

		if state, err = client.NextLevel(); err != nil {
			return nil, err
		}
		strategy.Reset()
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "bruteforcer",
		Usage: "Play memory match sessions against a game server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL"},
			&cli.StringFlag{Name: "continue", Usage: "Resume playing an existing session by ID"},
			&cli.StringFlag{Name: "player", Value: "Bruteforcer", Usage: "Player name for new sessions"},
			&cli.IntFlag{Name: "level", Value: engine.MinLevel, Usage: "Starting level for new sessions"},
			&cli.BoolFlag{Name: "all-levels", Usage: "Keep playing until the last level"},
			&cli.IntFlag{Name: "max-turns", Value: 500, Usage: "Maximum turns per level"},
			&cli.DurationFlag{Name: "poll", Value: 250 * time.Millisecond, Usage: "Wait between polls while a pair settles"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := runOptions{
				ServerURL:  cmd.String("url"),
				Continue:   cmd.String("continue"),
				PlayerName: cmd.String("player"),
				Level:      int(cmd.Int("level")),
				AllLevels:  cmd.Bool("all-levels"),
				Play: PlayOptions{
					MaxTurns:     int(cmd.Int("max-turns")),
					PollInterval: cmd.Duration("poll"),
					MaxPolls:     100,
					Verbose:      cmd.Bool("v"),
				},
			}

			log.Printf("Connecting to game server at %s", opts.ServerURL)
			client := NewClient(opts.ServerURL)

			state, err := run(client, opts)
			if err != nil {
				return fmt.Errorf("session %s: %w", client.SessionID(), err)
			}
			log.Printf("Session: %s, final score %d", client.SessionID(), state.Score)
			return nil
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}
