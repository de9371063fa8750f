package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/martinsuchenak/connprops/internal/api"
	"github.com/martinsuchenak/connprops/internal/config"
	"github.com/martinsuchenak/connprops/internal/connman"
	"github.com/martinsuchenak/connprops/internal/log"
	"github.com/martinsuchenak/connprops/internal/mcp"
	"github.com/martinsuchenak/connprops/internal/propsync"
	"github.com/martinsuchenak/connprops/internal/storage"
	"github.com/paularlott/cli"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:        "server",
		Usage:       "Start the connprops server",
		Description: "Start the HTTP API and MCP endpoint for editing connman services",
		Flags:       config.GetFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load()
			log.Configure(cfg.LogLevel, cfg.LogFormat)

			log.Info("Configuration loaded", "data_dir", cfg.DataDir, "listen_addr", cfg.ListenAddr, "bus", cfg.Bus)

			client, err := connman.Dial(cfg.Bus, cfg.CallTimeout)
			if err != nil {
				log.Error("Failed to connect to connman", "error", err)
				return err
			}
			defer client.Close()

			store, err := storage.NewStorage(cfg.DataDir)
			if err != nil {
				log.Error("Failed to initialize storage", "error", err)
				return err
			}
			defer store.Close()
			log.Info("Storage initialized", "backend", "SQLite", "path", cfg.DataDir)

			var opts []propsync.Option
			if cfg.LegacyCompare {
				log.Warn("Legacy change detection enabled; some address edits will not be sent")
				opts = append(opts, propsync.WithLegacyCompare())
			}

			apiHandler := api.NewHandler(client, store, opts...)
			mcpServer := mcp.NewServer(client, store, cfg.MCPAuthToken, opts...)

			mux := http.NewServeMux()
			apiHandler.RegisterRoutes(mux)
			mux.HandleFunc("/mcp", mcpServer.GetHTTPHandler())

			var handler http.Handler = mux
			if cfg.IsAPIAuthEnabled() {
				handler = api.AuthMiddleware(cfg.APIAuthToken, handler)
			}
			handler = api.SecurityHeadersMiddleware(handler)

			server := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			go func() {
				sigChan := make(chan os.Signal, 1)
				signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
				<-sigChan
				log.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.CallTimeout)
				defer cancel()
				server.Shutdown(shutdownCtx)
			}()

			log.Info("Starting connprops server", "addr", cfg.ListenAddr)
			log.Info("API available", "url", "http://localhost"+cfg.ListenAddr+"/api/")
			log.Info("MCP available", "url", "http://localhost"+cfg.ListenAddr+"/mcp")
			if cfg.IsAPIAuthEnabled() {
				log.Info("API authentication enabled")
			}
			mcpServer.LogStartup()

			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("Server error", "error", err)
				return err
			}

			log.Info("Server stopped")
			return nil
		},
	}
}
