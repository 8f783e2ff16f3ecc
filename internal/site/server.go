// Package site serves a live-reloading HTML preview of the unreleased
// changelog fragments.
package site

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

// Config holds configuration for the preview server.
type Config struct {
	ChangelogDir string
	Port         int
	Watch        bool
	Categories   []string // section order, from render config
	Logger       *slog.Logger
}

// Server is the changelog preview server.
type Server struct {
	changelogDir string
	port         int
	watch        bool
	categories   []string
	logger       *slog.Logger
	notifier     *Notifier
}

// NewServer creates a preview server instance.
func NewServer(cfg Config) *Server {
	return &Server{
		changelogDir: cfg.ChangelogDir,
		port:         cfg.Port,
		watch:        cfg.Watch,
		categories:   cfg.Categories,
		logger:       cfg.Logger,
		notifier:     NewNotifier(),
	}
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting preview server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)
	s.routes(r)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchTree(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down preview server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// routes wires the HTTP endpoints.
func (s *Server) routes(r chi.Router) {
	r.Get("/", s.handleIndex)
	r.Get("/series/{series}", s.handleSeries)
	r.Get("/raw/{series}", s.handleRaw)
	r.Get("/events", s.handleEvents)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// watchTree watches the changelog directory and broadcasts a reload ping on
// fragment or manifest changes.
func (s *Server) watchTree(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, s.changelogDir); err != nil {
		s.logger.Error("failed to watch changelog directory", "error", err)
		// Continue without watching rather than killing the server.
	}

	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !isChangelogFile(event.Name) {
				// A new series directory needs watching too.
				if event.Op&fsnotify.Create != 0 {
					_ = watcher.Add(event.Name)
				}
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("changelog changed, reloading", "file", event.Name)
				s.notifier.Broadcast()
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// isChangelogFile reports whether a path is a fragment or manifest file.
func isChangelogFile(name string) bool {
	switch filepath.Ext(name) {
	case ".rst", ".md", ".txt":
		return true
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
