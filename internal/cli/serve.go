package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/roach88/exgen/internal/engine"
	"github.com/roach88/exgen/internal/httpapi"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr            string
	Database        string
	ShutdownTimeout time.Duration

	// SeedSource allows overriding where fresh seeds come from (for testing).
	SeedSource engine.SeedSource

	// OnListen is called with the bound address once the listener is open
	// (for testing with ":0").
	OnListen func(addr string)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <templates-dir>",
		Short: "Serve templates and generation over HTTP",
		Long: `Load the templates and serve them over HTTP until interrupted.

Routes:
  GET  /healthcheck
  GET  /api/templates
  GET  /api/templates/:id
  POST /api/templates/:id/generate     body: {"seed": 42} (optional)
  POST /api/templates/:id/regenerate
  GET  /api/lessons/:id/templates

Example:
  exgen serve ./templates --addr :8080 --db ./exgen.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.Database, "db", "", "archive generated instances in this SQLite database")
	cmd.Flags().DurationVar(&opts.ShutdownTimeout, "shutdown-timeout", 10*time.Second, "grace period for in-flight requests")

	return cmd
}

func runServe(opts *ServeOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	logger.Info("loading templates", "dir", dir)
	sess, err := openSession(formatter, logger, dir, opts.Database, opts.SeedSource)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()
	logger.Info("templates loaded", "templates", sess.catalog.Len(), "lessons", len(sess.catalog.Lessons()))

	if !opts.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Logger:          logger,
		TemplateHandler: httpapi.NewTemplateHandler(logger, sess.service),
	})
	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to listen on "+opts.Addr, err)
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	addr := ln.Addr().String()
	logger.Info("server starting", "addr", addr, "db", opts.Database)
	if !formatter.JSON() {
		fmt.Fprintf(cmd.OutOrStdout(), "Serving %d template(s) on %s\n", sess.catalog.Len(), addr)
		fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")
	}
	if opts.OnListen != nil {
		opts.OnListen(addr)
	}

	if err := serve(ctx, srv, ln, opts.ShutdownTimeout, logger); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}

// serve runs srv on ln until ctx is done, then shuts it down.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown incomplete", "error", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
