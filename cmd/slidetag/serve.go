package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tsawler/slidetag/internal/cache"
	"github.com/tsawler/slidetag/internal/config"
	"github.com/tsawler/slidetag/internal/database"
	"github.com/tsawler/slidetag/internal/mcp"
	"github.com/tsawler/slidetag/internal/server"
	"github.com/tsawler/slidetag/internal/service"
	"github.com/tsawler/slidetag/internal/storage"
	"github.com/tsawler/slidetag/internal/watcher"
)

func newServeCmd(g *globalOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Application.Port = port
			}
			ctx := cmd.Context()

			svc, cleanup, err := buildService(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := server.NewServer(svc, storage.New(cfg.Storage.UploadDir), server.Options{
				MaxUploadBytes: cfg.Extraction.MaxDocumentBytes,
				SniffContent:   cfg.Storage.SniffContent,
			}, slog.Default())

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			grp, ctx := errgroup.WithContext(ctx)
			grp.Go(func() error {
				defer cancel()
				return srv.Run(ctx, cfg.Application.Addr())
			})
			startWatcher(ctx, grp, cfg, svc)
			return grp.Wait()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides application.port)")
	return cmd
}

func newMCPCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run an MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			svc, cleanup, err := buildService(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			// The watcher stops when the client closes stdin.
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			grp, ctx := errgroup.WithContext(ctx)
			grp.Go(func() error {
				defer cancel()
				return mcp.Run(ctx, svc, version)
			})
			startWatcher(ctx, grp, cfg, svc)
			return grp.Wait()
		},
	}
}

// buildService wires the resolver, cache and optional database into a
// service. cleanup releases the database connection.
func buildService(ctx context.Context, cfg *config.Config) (*service.Service, func(), error) {
	r, err := resolver(cfg)
	if err != nil {
		return nil, nil, err
	}

	var c *cache.Cache
	if cfg.Cache.Enabled {
		c = cache.New(cfg.Cache.Size, cfg.Cache.TTL)
	}

	var (
		db       *sql.DB
		recorder service.Recorder
	)
	if cfg.Database.Enabled {
		db, err = database.NewConnection(ctx, cfg.Database.GetConnectStr())
		if err != nil {
			return nil, nil, err
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		recorder = database.NewRepository(db)
	}

	svc := service.New(r, service.Options{
		MaxDocumentBytes: cfg.Extraction.MaxDocumentBytes,
		NormalizeUnicode: cfg.Extraction.NormalizeUnicode,
	}, c, recorder, slog.Default())

	cleanup := func() {
		if db != nil {
			if err := db.Close(); err != nil {
				slog.Warn("closing database", "error", err)
			}
		}
	}
	return svc, cleanup, nil
}

// startWatcher reloads the mapping file into svc while ctx is live, when
// both a file and watching are configured.
func startWatcher(ctx context.Context, grp *errgroup.Group, cfg *config.Config, svc *service.Service) {
	if cfg.Extraction.TagsFile == "" || !cfg.Extraction.WatchTags {
		return
	}
	w := watcher.New(cfg.Extraction.TagsFile, svc.SetMapping, slog.Default())
	grp.Go(func() error {
		if err := w.Run(ctx); err != nil {
			return fmt.Errorf("tag mapping watcher: %w", err)
		}
		return nil
	})
}
