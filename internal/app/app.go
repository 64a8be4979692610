package app

import (
	"context"
	"fmt"

	"github.com/lifeease/lifeease-client/internal/data/store"
	"github.com/lifeease/lifeease-client/internal/pkg/ctxutil"
	"github.com/lifeease/lifeease-client/internal/pkg/logger"
	"github.com/lifeease/lifeease-client/internal/platform/backend"
)

// App wires the client layer: config, logger, durable state store, backend
// client and the services on top of them.
type App struct {
	Log      *logger.Logger
	Cfg      Config
	Store    store.ClientStore
	Backend  backend.Client
	Services Services
}

func New() (*App, error) {
	bootLog, err := logger.New("development")
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	cfg := LoadConfig(bootLog)

	log := bootLog
	if cfg.LogMode != "development" {
		log, err = logger.New(cfg.LogMode)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}

	clientStore, err := store.Open(cfg.StatePath, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("open client store: %w", err)
	}

	backendClient, err := backend.New(log, cfg.BackendConfig())
	if err != nil {
		_ = clientStore.Close()
		log.Sync()
		return nil, fmt.Errorf("init backend client: %w", err)
	}

	a := &App{
		Log:      log,
		Cfg:      cfg,
		Store:    clientStore,
		Backend:  backendClient,
		Services: wireServices(backendClient, clientStore, log),
	}

	if err := a.seedSystemPrompt(context.Background()); err != nil {
		log.Warn("system prompt seed failed", "error", err)
	}
	return a, nil
}

// seedSystemPrompt writes the configured client-wide default only when the
// store has none, so an explicit SetSystemPrompt is never overwritten.
func (a *App) seedSystemPrompt(ctx context.Context) error {
	if a.Cfg.SystemPrompt == "" {
		return nil
	}
	current, err := a.Services.Router.SystemPrompt(ctx)
	if err != nil {
		return err
	}
	if current != "" {
		return nil
	}
	return a.Services.Router.SetSystemPrompt(ctx, a.Cfg.SystemPrompt)
}

// StartConversation opens a conversation for the UI shell and returns the
// session id its turns will correlate under.
func (a *App) StartConversation(ctx context.Context) (string, error) {
	return a.Services.Sessions.CurrentID(ctxutil.Default(ctx))
}

// EndConversation resets server-side history best-effort, rotates the session
// id and clears the local transcript. The returned id is the fresh one.
func (a *App) EndConversation(ctx context.Context) (string, error) {
	sid, err := a.Services.Router.EndConversation(ctxutil.Default(ctx))
	if err != nil {
		return "", err
	}
	a.Services.Conversation.Clear()
	return sid, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Log.Warn("close client store", "error", err)
		}
	}
	a.Log.Sync()
}
