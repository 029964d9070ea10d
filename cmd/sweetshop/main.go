package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mkrupp/sweetshop/internal/infra/config"
	"github.com/mkrupp/sweetshop/internal/infra/logging"
	"github.com/mkrupp/sweetshop/internal/repo/session"
	"github.com/mkrupp/sweetshop/internal/svc/apiclient"
	"github.com/mkrupp/sweetshop/internal/svc/inventorysvc"
	"github.com/mkrupp/sweetshop/internal/svc/notifysvc"
	"github.com/mkrupp/sweetshop/internal/svc/sessionsvc"
	"github.com/mkrupp/sweetshop/internal/svc/storefrontsvc"
)

const (
	appName = "sweetshop"
	svcName = "cli"
)

type Config struct {
	config.EnvConfig

	Log         logging.LoggerConfig                  `envPrefix:"LOG_"`
	API         apiclient.HTTPClientConfig            `envPrefix:"API_"`
	Session     sessionsvc.SessionConfig              `envPrefix:"SESSION_"`
	SessionRepo session.SQLiteSessionRepositoryConfig `envPrefix:"SESSION_"`
	Notify      notifysvc.NotifyConfig                `envPrefix:"NOTIFY_"`
	Terminal    storefrontsvc.TerminalTransportConfig `envPrefix:"TERMINAL_"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	err := run(ctx, cfg)

	if shutdownErr := logging.Shutdown(); shutdownErr != nil {
		fmt.Fprintln(os.Stderr, shutdownErr)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.sweetshop")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
		} else {
			log.InfoContext(ctx, "shutdown")
		}
	}()

	sessions, err := sessionsvc.NewStore(
		session.SQLiteSessionRepositoryFactory(cfg.SessionRepo),
		cfg.Session,
	)
	if err != nil {
		return fmt.Errorf("new session store: %w", err)
	}

	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			log.WarnContext(ctx, "close session store", "error", closeErr)
		}
	}()

	api := apiclient.NewHTTPClient(cfg.API, sessions, nil)
	cache := inventorysvc.NewCache(api)
	channel := notifysvc.NewChannel(cfg.Notify)
	ctrl := storefrontsvc.NewController(sessions, api, cache, channel)

	terminal := storefrontsvc.NewTerminalTransport(ctrl, cfg.Terminal, os.Stdout)
	channel.Subscribe(terminal.ShowStatus)

	if err := ctrl.Start(ctx); err != nil {
		// the login view stays active
		log.WarnContext(ctx, "session not restored", "error", err)
	}

	if err := terminal.Serve(ctx, os.Stdin); err != nil {
		return fmt.Errorf("serve terminal: %w", err)
	}

	return nil
}
