package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/okanacar/mailsink/internal/server"
	"github.com/okanacar/mailsink/pkg/sink"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP log ingest server",
	Long: `Run the HTTP ingest server. Producers POST log entries to
/api/v1/log and trigger notification with POST /api/v1/flush. The
server process is itself a unit of work: shutting it down flushes the
sink one final time.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "listen address (overrides server.listen)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	hook := sink.NewCompletionHook()
	s, jnl, err := initSink(cfg, logger, hook)
	if err != nil {
		return err
	}
	if jnl != nil {
		defer jnl.Close()
	}
	defer hook.Complete()

	listen := cfg.Server.Listen
	if flagListen, _ := cmd.Flags().GetString("listen"); flagListen != "" {
		listen = flagListen
	}

	readTimeout, _ := time.ParseDuration(cfg.Server.ReadTimeout)
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout, _ := time.ParseDuration(cfg.Server.WriteTimeout)
	if writeTimeout == 0 {
		writeTimeout = 60 * time.Second
	}

	srv := &http.Server{
		Addr:         listen,
		Handler:      server.NewServer(s, logger).Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mailsink ingest started", "listen", listen)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		shutdownErr := srv.Shutdown(ctx)
		hook.Complete()
		return shutdownErr
	}
}
