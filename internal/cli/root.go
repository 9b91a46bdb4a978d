package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/okanacar/mailsink/internal/config"
	"github.com/okanacar/mailsink/pkg/compose"
	"github.com/okanacar/mailsink/pkg/journal"
	"github.com/okanacar/mailsink/pkg/notify"
	"github.com/okanacar/mailsink/pkg/severity"
	"github.com/okanacar/mailsink/pkg/sink"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "mailsink",
	Short: "mailsink - Aggregated log notifications by severity threshold",
	Long: `mailsink buffers log entries for one unit of work, keeps the ones at or
above a severity threshold, and sends a single aggregated notification
(email, webhook, or Slack) when the unit of work ends. Every offered
entry can additionally be journaled to SQLite for durable storage.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.mailsink/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initSite creates the site-identity provider from config.
func initSite(cfg *config.Config) notify.Site {
	return notify.StaticSite{
		SiteName:  cfg.Site.Name,
		URL:       cfg.Site.AdminURL,
		Recipient: cfg.Site.DefaultRecipient,
	}
}

// initMailer creates the delivery transport from config. Multiple
// enabled transports fan out through a MultiMailer.
func initMailer(cfg *config.Config) (notify.Mailer, error) {
	var mailers []notify.Mailer

	if cfg.Notify.SMTP.Enabled {
		mailers = append(mailers, notify.NewSMTPMailer(
			cfg.Notify.SMTP.Addr,
			cfg.Notify.SMTP.From,
			cfg.Notify.SMTP.Username,
			cfg.Notify.SMTP.Password,
		))
	}
	if cfg.Notify.Webhook.Enabled && cfg.Notify.Webhook.URL != "" {
		mailers = append(mailers, notify.NewWebhookMailer(
			cfg.Notify.Webhook.URL,
			cfg.Notify.Webhook.Secret,
		))
	}
	if cfg.Notify.Slack.Enabled && cfg.Notify.Slack.WebhookURL != "" {
		mailers = append(mailers, notify.NewSlackMailer(
			cfg.Notify.Slack.WebhookURL,
			cfg.Notify.Slack.Channel,
		))
	}

	switch len(mailers) {
	case 0:
		return nil, fmt.Errorf("no delivery transport enabled (set notify.smtp, notify.webhook, or notify.slack)")
	case 1:
		return mailers[0], nil
	default:
		return notify.NewMultiMailer(mailers...), nil
	}
}

// initComposer creates the message composer, applying template
// overrides when configured.
func initComposer(cfg *config.Config) (*compose.Composer, error) {
	if cfg.Notify.TemplateFile == "" {
		return compose.New(), nil
	}
	return compose.LoadTemplates(cfg.Notify.TemplateFile)
}

// initJournal creates the durable journal, or nil when disabled.
func initJournal(cfg *config.Config) (journal.Journal, error) {
	if !cfg.Storage.Enabled {
		return nil, nil
	}
	return journal.NewSQLite(cfg.Storage.Path)
}

// initSink creates a fully wired sink for one unit of work. The caller
// owns the returned journal and must close it (it may be nil).
func initSink(cfg *config.Config, logger *slog.Logger, registrar sink.Registrar) (*sink.Sink, journal.Journal, error) {
	threshold, err := severity.ParseLevel(cfg.Notify.Threshold)
	if err != nil {
		return nil, nil, fmt.Errorf("notify.threshold: %w", err)
	}

	mailer, err := initMailer(cfg)
	if err != nil {
		return nil, nil, err
	}

	composer, err := initComposer(cfg)
	if err != nil {
		return nil, nil, err
	}

	jnl, err := initJournal(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []sink.Option{
		sink.WithThreshold(threshold),
		sink.WithRecipients(cfg.Notify.Recipients...),
		sink.WithMailer(mailer),
		sink.WithSite(initSite(cfg)),
		sink.WithComposer(composer),
		sink.WithLogger(logger),
	}
	if registrar != nil {
		opts = append(opts, sink.WithRegistrar(registrar))
	}
	if jnl != nil {
		opts = append(opts, sink.WithJournal(jnl))
	}

	s, err := sink.New(opts...)
	if err != nil {
		if jnl != nil {
			jnl.Close()
		}
		return nil, nil, err
	}
	return s, jnl, nil
}
