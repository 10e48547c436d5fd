package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/acrophobia/acroclient/internal/config"
)

type options struct {
	configFile string
	serverURL  string
	socketURL  string
	username   string
	password   string
	room       string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	v := viper.New()
	v.SetEnvPrefix("ACRO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "acroclient",
		Short:         "Terminal client for the Acrophobia acronym game.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			setupLogging(cfg.Logging.Level)
			return runClient(cmd.Context(), cfg, opts)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.configFile, "config", "c", "", "path to YAML config file (env: ACRO_CONFIG)")
	fs.StringVar(&opts.serverURL, "server", "", "REST API base URL (env: ACRO_SERVER)")
	fs.StringVar(&opts.socketURL, "socket-url", "", "event channel URL (env: ACRO_SOCKET_URL)")
	fs.StringVarP(&opts.username, "username", "u", "", "username for login (env: ACRO_USERNAME)")
	fs.StringVarP(&opts.password, "password", "p", "", "password for login (env: ACRO_PASSWORD)")
	fs.StringVarP(&opts.room, "room", "r", "", "room to join on startup (env: ACRO_ROOM)")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (env: ACRO_LOG_LEVEL)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(newInviteCmd())
	cmd.CompletionOptions.HiddenDefaultCmd = true

	return cmd
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.serverURL != "" {
		cfg.Server.BaseURL = opts.serverURL
	}
	if opts.socketURL != "" {
		cfg.Server.SocketURL = opts.socketURL
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, cfg.Validate()
}

func setupLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(parsed)
}
