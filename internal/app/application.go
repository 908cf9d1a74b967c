// Package app wires the components together and coordinates startup and
// shutdown.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"studytables/internal/api"
	"studytables/internal/config"
	"studytables/internal/gateway"
	"studytables/internal/history"
	"studytables/internal/interaction"
	"studytables/internal/preview"
	"studytables/internal/store"
)

// Application coordinates all system components.
type Application struct {
	config     *config.Config
	store      *store.Store
	history    *history.Log
	previews   *preview.Cache
	dispatcher *interaction.Dispatcher
	gateway    *gateway.Client
	httpServer *http.Server

	cancelGateway context.CancelFunc
}

// NewApplication builds the component graph in dependency order:
// Store → History → Preview → Gateway/Handlers → Dispatcher → API → HTTP.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	sessionStore := store.NewStore(cfg.Storage.StatePath)
	if err := sessionStore.Load(); err != nil {
		return nil, fmt.Errorf("failed to load session store: %w", err)
	}

	var historyLog *history.Log
	if cfg.Storage.HistoryPath != "" {
		var err error
		historyLog, err = history.Open(cfg.Storage.HistoryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open history log: %w", err)
		}
	} else {
		log.Printf("History log disabled (no path configured)")
	}

	previews := preview.NewCache(cfg.Preview.TTL)

	// The gateway and the handlers reference each other: the gateway
	// dispatches inbound events, the handlers respond through the gateway.
	// The dispatcher is created empty and the handlers installed once the
	// gateway exists.
	dispatcher := interaction.NewDispatcher()

	gatewayClient := gateway.NewClient(gateway.Config{
		URL:          cfg.Gateway.URL,
		Token:        cfg.Gateway.Token,
		CommandName:  cfg.Gateway.CommandName,
		GuildID:      cfg.Gateway.GuildID,
		PingInterval: cfg.Gateway.PingInterval,
	}, dispatcher)

	volunteerHandler := interaction.NewVolunteerHandler(sessionStore, historyLog, gatewayClient, gatewayClient, gatewayClient)
	setupHandler := interaction.NewSetupHandler(previews, sessionStore, dispatcher, gatewayClient, gatewayClient)
	dispatcher.SetHandlers(setupHandler, volunteerHandler)

	apiServer := api.NewServer(sessionStore, historyLog, gatewayClient)

	mux := http.NewServeMux()
	mux.Handle("/api/", apiServer)
	mux.Handle("/health", apiServer)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:     cfg,
		store:      sessionStore,
		history:    historyLog,
		previews:   previews,
		dispatcher: dispatcher,
		gateway:    gatewayClient,
		httpServer: httpServer,
	}, nil
}

// Start runs the reattach pass, connects the gateway, and starts the ops
// API server.
func (app *Application) Start(ctx context.Context) error {
	log.Printf("Starting study tables service on %s", app.httpServer.Addr)

	// Re-register volunteer controls for every stored session before the
	// gateway starts delivering presses on them.
	app.store.Reattach(app.dispatcher.BindSessionControls)

	gatewayCtx, cancel := context.WithCancel(context.Background())
	app.cancelGateway = cancel
	go app.gateway.Run(gatewayCtx)

	serverErr := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		cancel()
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("Study tables service started")
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

// Stop shuts components down in reverse dependency order:
// HTTP → Gateway → History.
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("Shutting down study tables service")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	if app.cancelGateway != nil {
		app.cancelGateway()
	}
	if err := app.gateway.Close(); err != nil {
		log.Printf("Gateway shutdown error: %v", err)
	}
	if err := app.history.Close(); err != nil {
		log.Printf("History log shutdown error: %v", err)
	}

	log.Printf("Study tables service shutdown complete")
	return nil
}

// Addr returns the ops API address.
func (app *Application) Addr() string {
	return app.httpServer.Addr
}
