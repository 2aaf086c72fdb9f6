package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/devaloi/quoteboard/internal/config"
	"github.com/devaloi/quoteboard/internal/handler"
	"github.com/devaloi/quoteboard/internal/hub"
	"github.com/devaloi/quoteboard/internal/logging"
	"github.com/devaloi/quoteboard/internal/quote"
	"github.com/devaloi/quoteboard/internal/store"
)

func main() {
	if err := run(); err != nil {
		logging.L().Error().Err(err).Msg("quoteboard stopped")
		os.Exit(1)
	}
}

// run returns instead of exiting so the store and hub are always closed.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger := logging.L()

	s, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer s.Close()

	board := quote.NewBoard(s, quote.WithLogger(*logger))

	h := hub.New(board, cfg.MaxRooms, cfg.BotName)
	go h.Run()
	defer h.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handler.Health())
	mux.HandleFunc("/api/rooms", handler.ListRooms(h))
	mux.HandleFunc("/api/rooms/", handler.RoomInfo(h))
	mux.HandleFunc("/api/quotes/", handler.ListQuotes(board))
	mux.HandleFunc("/api/command", handler.Command(board))
	mux.HandleFunc("/api/usage", handler.Usage(board))
	mux.HandleFunc("/ws", handler.ServeWS(h))

	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Str("backend", cfg.StoreBackend).Msg("quoteboard listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func openStore(cfg config.Config) (store.Store, error) {
	if cfg.StoreBackend == config.BackendSQLite {
		return store.NewSQLite(cfg.DBPath)
	}
	return store.NewFile(cfg.QuotesDir), nil
}
