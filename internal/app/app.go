// Package app assembles the application: configuration, provider services,
// persistence, the chat store, and the message lifecycle controller.
package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/kotonoha-app/kotonoha/internal/attachments"
	"github.com/kotonoha-app/kotonoha/internal/chat"
	"github.com/kotonoha-app/kotonoha/internal/config"
	"github.com/kotonoha-app/kotonoha/internal/events"
	"github.com/kotonoha-app/kotonoha/internal/llm"
	"github.com/kotonoha-app/kotonoha/internal/llm/providers"
	"github.com/kotonoha-app/kotonoha/internal/models"
	"github.com/kotonoha-app/kotonoha/internal/storage"
)

// App holds every long-lived subsystem.
type App struct {
	Config     *config.Config
	Selection  *config.Selection
	Registry   *models.Registry
	Store      *chat.Store
	Controller *chat.Controller
	Broker     *events.Broker[chat.Notification]
	DB         *storage.SQLiteStore

	logger *log.Logger
}

// Options tweak app construction.
type Options struct {
	// DatabasePath overrides the default chat database location.
	DatabasePath string
	// Scheduler aligns coalescer flushes with the render loop. Required.
	Scheduler chat.Scheduler
	Logger    *log.Logger
}

// New builds the application and restores persisted transcripts.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	sel, err := config.LoadSelection(config.SelectionPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load selection: %w", err)
	}

	var db *storage.SQLiteStore
	if opts.DatabasePath != "" {
		db, err = storage.NewStore(opts.DatabasePath)
	} else {
		db, err = storage.NewDefaultStore()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open chat database: %w", err)
	}

	services := providers.NewServices(providers.Config{
		GeminiAPIKey: cfg.GeminiAPIKey,
		GroqAPIKey:   cfg.GroqAPIKey,
	})
	if len(services) == 0 {
		logger.Warn("no provider API keys configured; sends will fail")
	}

	store := chat.NewStore()
	registry := models.NewRegistry()
	broker := events.NewBroker[chat.Notification]()
	pipeline := attachments.NewPipeline(db.Blobs(), logger)

	a := &App{
		Config:    cfg,
		Selection: sel,
		Registry:  registry,
		Store:     store,
		Broker:    broker,
		DB:        db,
		logger:    logger,
	}

	a.Controller = chat.NewController(store, registry, services, pipeline, opts.Scheduler,
		chat.ReporterFunc(broker.Publish), logger)
	a.Controller.OnSubstitute = func(s models.ProviderSession) {
		if err := sel.UpdateModel(string(s.Provider), s.Model); err != nil {
			logger.Warn("failed to persist model substitution", "err", err)
		}
	}

	if err := a.restore(ctx); err != nil {
		// A corrupt transcript document should not keep the app from
		// starting; the user begins with an empty chat list.
		logger.Warn("failed to restore transcripts", "err", err)
	}
	store.Subscribe(a.persist)

	return a, nil
}

// Session returns the current provider/model selection as an explicit value
// for the controller.
func (a *App) Session() models.ProviderSession {
	return models.ProviderSession{
		Provider: llm.Provider(a.Selection.Provider),
		Model:    a.Selection.Model,
	}
}

// DeleteChat prunes a chat and its stored attachment blobs.
func (a *App) DeleteChat(ctx context.Context, chatID string) {
	a.Store.Prune(chatID)
	if err := a.DB.Blobs().DeleteByChat(ctx, chatID); err != nil {
		a.logger.Warn("failed to delete chat blobs", "chat", chatID, "err", err)
	}
}

// Close flushes and releases resources.
func (a *App) Close() error {
	a.Broker.Shutdown()
	return a.DB.Close()
}

// restore loads the persisted session list into the store.
func (a *App) restore(ctx context.Context) error {
	doc, ok, err := a.DB.Get(ctx, a.Config.UserID)
	if err != nil || !ok {
		return err
	}
	var sessions []chat.Session
	if err := json.Unmarshal(doc, &sessions); err != nil {
		return fmt.Errorf("failed to decode transcripts: %w", err)
	}
	a.Store.Load(sessions)
	return nil
}

// persist is the store listener saving every mutation. Errors are logged,
// never surfaced: persistence must not interrupt streaming.
func (a *App) persist(sessions []chat.Session) {
	doc, err := json.Marshal(sessions)
	if err != nil {
		a.logger.Error("failed to encode transcripts", "err", err)
		return
	}
	if err := a.DB.Set(context.Background(), a.Config.UserID, doc); err != nil {
		a.logger.Error("failed to save transcripts", "err", err)
	}
}
