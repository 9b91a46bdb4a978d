package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/okanacar/mailsink/pkg/sink"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Read JSON log lines from stdin and notify at exit",
	Long: `Read one JSON log entry per line from stdin and record each into the
sink. One process run is one unit of work: when stdin ends (or the
process is interrupted), the sink flushes once and sends the aggregated
notification if anything crossed the threshold.

Input lines look like:
  {"level": "error", "message": "connection refused", "source": "worker", "fields": {"host": "db1"}}`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("threshold", "", "override the configured severity threshold")
}

func runWatch(cmd *cobra.Command, _ []string) error {
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
	// The hook owns the flush from here on; run it exactly once, no
	// matter how this function returns.
	defer hook.Complete()

	if th, _ := cmd.Flags().GetString("threshold"); th != "" {
		if err := s.SetThresholdName(th); err != nil {
			return err
		}
	}

	// Interrupt ends the unit of work early but still flushes.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := make([]byte, len(scanner.Bytes()))
			copy(line, scanner.Bytes())
			lines <- line
		}
		scanErr <- scanner.Err()
	}()

	var offered, retained int
	for {
		select {
		case sig := <-sigCh:
			logger.Info("interrupted, flushing", "signal", sig.String())
			hook.Complete()
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				hook.Complete()
				logger.Info("watch finished", "offered", offered, "retained", retained)
				return nil
			}
			if len(line) == 0 {
				continue
			}

			var entry sink.Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				logger.Warn("skipping malformed line", "error", err)
				continue
			}
			offered++
			if s.Record(cmd.Context(), entry) {
				retained++
			}
		}
	}
}
