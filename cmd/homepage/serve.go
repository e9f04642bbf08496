package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harrisjose/homepage/internal/content"
	"github.com/harrisjose/homepage/internal/pipeline"
	"github.com/harrisjose/homepage/internal/server"
)

var (
	servePort  int
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		bundle, err := loadBundle()
		if err != nil {
			return err
		}

		srv, err := server.New(bundle, db, cfg.Site, logger)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)

		if serveWatch {
			w := content.NewWatcher(cfg.Content.Dir, bundle, logger)
			w.OnReload = func(err error) {
				if err != nil {
					logger.Warn("content reload failed, keeping previous content", zap.Error(err))
				}
			}
			if err := w.Start(ctx); err != nil {
				return fmt.Errorf("watching %s: %w", cfg.Content.Dir, err)
			}
			g.Go(func() error {
				<-ctx.Done()
				w.Stop()
				return nil
			})
		}

		if cfg.Notes.Schedule != "" && len(cfg.Notes.Feeds) > 0 {
			sched, err := pipeline.NewScheduler(ctx, cfg.Notes.Schedule, pipeline.New(cfg, db, logger), logger)
			if err != nil {
				return err
			}
			sched.Start()
			g.Go(func() error {
				<-ctx.Done()
				sched.Stop()
				return nil
			})
		}

		g.Go(func() error {
			return srv.Serve(ctx, cfg.Addr())
		})

		fmt.Printf("Starting server at http://%s\n", cfg.Addr())
		fmt.Println("Press Ctrl+C to stop")
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "Reload content when files change")
}

