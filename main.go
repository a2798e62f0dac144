// Command memory-match starts the Memory Match Game server.
//
// It supports these commands:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "saves" – lists, shows, deletes, exports and converts saved games from the command line
//
// Flags control host/port, data and config directories, the settle delay,
// debug logging, and optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/memory-match-game/api"
	"github.com/wricardo/memory-match-game/game/catalog"
	"github.com/wricardo/memory-match-game/game/config"
	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/service"
	"github.com/wricardo/memory-match-game/game/session"
	"github.com/wricardo/memory-match-game/game/storage"
	"github.com/wricardo/memory-match-game/transport/mcp"
	"github.com/wricardo/memory-match-game/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Memory Match Game Server"
)

// main loads the environment and runs the selected command.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		// Only log if it's not a "file not found" error
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree. Flags on the root command are inherited by
// every subcommand.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "memory-match",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Value:   "data",
				Usage:   "Directory holding the saved_games_<format> directories",
				Sources: cli.EnvVars("MEMORY_DATA_DIR"),
			},
			&cli.StringFlag{
				Name:    "export-dir",
				Value:   "exports",
				Usage:   "Directory that exported saves are copied to",
				Sources: cli.EnvVars("MEMORY_EXPORT_DIR"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing preference profiles",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			mcpCommand(),
			savesCommand(),
		},
		// Running without a command starts the server
		Action: runServe,
	}
}

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Value: "localhost",
			Usage: "HTTP server host",
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "HTTP server port",
			Sources: cli.EnvVars("PORT"),
		},
		&cli.DurationFlag{
			Name:  "settle-delay",
			Value: engine.DefaultSettleDelay,
			Usage: "How long a selected pair stays face up before it resolves",
		},
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "Enable ngrok tunnel",
			Sources: cli.EnvVars("NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "Ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "Custom ngrok domain (optional)",
			Sources: cli.EnvVars("NGROK_DOMAIN"),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"server", "http"},
		Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
		Flags:   serveFlags(),
		Action:  runServe,
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp", "mcp-stdio"},
		Usage:   "Run MCP stdio server, using an external API if one is running",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Value:   "http://localhost:8080",
				Usage:   "External API server to proxy to when it is reachable",
				Sources: cli.EnvVars("MEMORY_API_URL"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			setupLogging(cmd.Bool("debug"))
			// stdout carries the MCP protocol
			log.SetOutput(os.Stderr)

			svc, err := initializeServices(optionsFrom(cmd))
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}
			defer svc.shutdown()

			return runStdioMCPWithInternalServer(svc, cmd.String("api-url"))
		},
	}
}

func setupLogging(debug bool) {
	if debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

// serviceOptions carries the settings initializeServices needs
type serviceOptions struct {
	DataDir     string
	ExportDir   string
	ConfigDir   string
	SettleDelay time.Duration
}

func optionsFrom(cmd *cli.Command) serviceOptions {
	opts := serviceOptions{
		DataDir:   cmd.String("data-dir"),
		ExportDir: cmd.String("export-dir"),
		ConfigDir: cmd.String("config-dir"),
	}
	if cmd.IsSet("settle-delay") {
		opts.SettleDelay = cmd.Duration("settle-delay")
	}
	return opts
}

// services holds everything a running server shares
type services struct {
	game     service.GameService
	sessions *session.Manager
	prefs    *config.Manager
	registry *storage.Registry
	catalog  *catalog.Catalog
	hub      *websocket.Hub
}

// initializeServices wires storage, preferences, the session manager and the
// game service. Engine events are pushed to WebSocket clients through the hub.
func initializeServices(opts serviceOptions) (*services, error) {
	prefs, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	registry, err := storage.NewRegistry(opts.DataDir, opts.ExportDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create save storage: %w", err)
	}

	hub := websocket.NewHub()

	// The observer runs on engine timer goroutines as well as request
	// goroutines, so it reads state from the session manager, never the service.
	var sessions *session.Manager
	observer := hub.Observer(func(id string) (*engine.GameState, error) {
		sess, err := sessions.Get(id)
		if err != nil {
			return nil, err
		}
		return sess.Engine.GetState(), nil
	})

	engineOpts := []engine.Option{engine.WithObserver(observer)}
	if opts.SettleDelay > 0 {
		engineOpts = append(engineOpts, engine.WithSettleDelay(opts.SettleDelay))
	}
	sessions = session.NewManagerWithPersistence(registry, engineOpts...)

	saves := catalog.New(registry)

	return &services{
		game:     service.NewGameService(sessions, saves, prefs),
		sessions: sessions,
		prefs:    prefs,
		registry: registry,
		catalog:  saves,
		hub:      hub,
	}, nil
}

// shutdown pauses and saves unfinished games, then stops every engine
func (s *services) shutdown() {
	if err := s.sessions.SaveAllSessions(); err != nil {
		log.Printf("Warning: %v", err)
	}
	s.sessions.CloseAll()
	s.hub.Stop()
}

// runServe starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
func runServe(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd.Bool("debug"))

	log.Printf("Starting %s v%s", AppName, Version)

	svc, err := initializeServices(optionsFrom(cmd))
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	go svc.hub.Run()

	// Create API server
	apiServer := api.NewServer(svc.game, svc.hub)

	// Setup HTTP server address
	host := cmd.String("host")
	if host == "" {
		host = "localhost"
	}
	port := int(cmd.Int("port"))
	if port == 0 {
		port = 8080
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	// Create MCP client for /mcp endpoint
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	// Create main router that combines API and MCP
	mainRouter := http.NewServeMux()

	// Mount API server at root
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHTTPHandler(mcpClient))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Setup graceful shutdown context
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	// Start session cleanup routine
	wg.Add(1)
	go func() {
		defer wg.Done()
		sessionCleanupRoutine(ctx, svc.sessions)
	}()

	// Start regular HTTP server
	serverErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Start ngrok tunnel if enabled
	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), mainRouter)
		}()
	}

	// Wait for shutdown signal or a server failure
	var runErr error
	select {
	case sig := <-stop:
		log.Printf("Received signal: %v. Shutting down...", sig)
	case runErr = <-serverErr:
		log.Printf("HTTP server failed: %v", runErr)
	}
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Unfinished games are paused and saved before exit
	svc.shutdown()

	// Wait for all goroutines to finish
	wg.Wait()
	log.Println("Server stopped")
	return runErr
}

// mcpHTTPHandler serves single MCP JSON-RPC messages over HTTP POST
func mcpHTTPHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runNgrokTunnel exposes handler through an ngrok HTTP endpoint until ctx is cancelled
func runNgrokTunnel(ctx context.Context, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	// Configure ngrok endpoint
	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Printf("Using custom ngrok domain: %s", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx,
		tunnel,
		ngrok.WithAuthtoken(authToken),
	)
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	// Closing the tunnel on cancel unblocks http.Serve
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)
	log.Printf("  Game UI (ngrok): %s/", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		log.Printf("Ngrok server stopped: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := manager.CleanupExpiredSessions(24 * time.Hour)
			if removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at externalURL; if unavailable, it
// starts a minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(svc *services, externalURL string) error {
	var baseURL string

	log.Printf("Checking for external API server at %s...", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
		baseURL = externalURL
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		go svc.hub.Run()

		httpServer := &http.Server{
			Handler: api.NewServer(svc.game, svc.hub),
		}
		defer httpServer.Close()

		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)

	if baseURL == externalURL {
		log.Println("MCP stdio server ready (using external HTTP server)")
	} else {
		log.Println("MCP stdio server ready (using internal HTTP server)")
	}

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
