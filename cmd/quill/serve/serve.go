// Package servecmder provides the serve command that runs the local quill
// daemon.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quillhq/quill/api"
	"github.com/quillhq/quill/pkg/config"
	"github.com/quillhq/quill/pkg/logger"
)

type serveCommander struct {
	listen  string
	logFile string
	debug   bool

	logger *slog.Logger
}

const serveLongDesc string = `Run the local quill daemon.

The daemon serves the HTTP API that popup shells and editor plugins talk
to. It reloads config.toml automatically when the file changes, so model
switches and new templates apply without a restart.

The listen address comes from the --listen flag, the QUILL_SERVE_LISTEN
environment variable, or serve.listen in config.toml, in that order.

Examples:
  quill serve
  quill serve --listen 127.0.0.1:9000 --log-file /tmp/quill.log`

const serveShortDesc string = "Run the local quill daemon"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			configDir, _ := cmd.Flags().GetString("config-dir")

			return cmder.run(configDir, cmd.Flags().Changed("listen"))
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (overrides config)")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

func (c *serveCommander) run(configDir string, listenFlagSet bool) error {
	log, closeLog, err := c.buildLogger()
	if err != nil {
		return err
	}
	defer closeLog()
	c.logger = log

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg, err := cfger.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Flag > environment > config file > default.
	listen := c.listen
	if !listenFlagSet {
		v, err := config.InitViper(configDir)
		if err != nil {
			return err
		}
		listen = v.GetString("serve.listen")
	}

	server := api.NewServer(api.Config{ListenAddr: listen}, cfg, c.logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Hot-reload the config so model switches apply without a restart.
	go func() {
		err := cfger.Watch(ctx, func(next *config.Config) {
			server.SetAppConfig(next)
			c.logger.Info("config reloaded")
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Warn("config watching disabled", "reason", err)
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("daemon error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.logger.Info("received signal, shutting down")
		return server.Shutdown()
	}
}

// buildLogger returns the daemon logger: pretty output on stderr, plus a
// JSON copy in --log-file when given.
func (c *serveCommander) buildLogger() (*slog.Logger, func(), error) {
	pretty := logger.New(
		logger.WithPretty(true),
		logger.WithDebug(c.debug),
		logger.WithWriter(os.Stderr),
	)

	if c.logFile == "" {
		return pretty, func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	structured := logger.New(
		logger.WithJSON(true),
		logger.WithDebug(c.debug),
		logger.WithWriter(f),
	)

	return logger.Multi(pretty, structured), func() { f.Close() }, nil
}
