package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/homebrief/internal/browse"
	"github.com/wolfeidau/homebrief/internal/client"
	"github.com/wolfeidau/homebrief/internal/logger"
	"github.com/wolfeidau/homebrief/internal/session"
	"github.com/wolfeidau/homebrief/internal/telemetry"
)

type Globals struct {
	Debug   bool
	Tracing bool
	Version string
	Store   StoreFlags
	API     APIFlags

	// Out receives command output, os.Stdout when nil.
	Out io.Writer
}

func (g *Globals) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// APIFlags configures the listing backend client.
type APIFlags struct {
	APIURL     string        `name:"api-url" help:"listing backend base URL" default:"http://127.0.0.1:8000" env:"HOMEBRIEF_API_BASE_URL"`
	Timeout    time.Duration `help:"request timeout" default:"30s" env:"HOMEBRIEF_TIMEOUT"`
	CacheDir   string        `help:"directory for the HTTP response cache, in memory when empty" default:"" env:"HOMEBRIEF_CACHE_DIR"`
	MaxRetries uint          `help:"retries for failed GET requests" default:"3" env:"HOMEBRIEF_MAX_RETRIES"`
}

func (a APIFlags) config(debug bool) client.Config {
	return client.Config{
		BaseURL:    a.APIURL,
		Timeout:    a.Timeout,
		CacheDir:   a.CacheDir,
		MaxRetries: a.MaxRetries,
		Debug:      debug,
	}
}

// app bundles what a command needs for one run.
type app struct {
	api      *client.Client
	sessions *session.Store
	svc      *browse.Service
	closers  []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// setup configures logging and telemetry, opens the session storage and builds the client.
// The caller must Close the returned app.
func setup(ctx context.Context, globals *Globals) (*app, error) {
	log.Logger = logger.Setup(globals.Debug)

	a := &app{}

	if globals.Tracing {
		shutdown, err := telemetry.InitTelemetry(ctx, "homebrief", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
		} else {
			a.closers = append(a.closers, func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Failed to shutdown telemetry")
				}
			})
		}
	}

	storage, closeStorage, err := globals.Store.Open(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeStorage)

	api, err := client.New(globals.API.config(globals.Debug))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	a.api = api
	a.sessions = session.NewStore(storage)
	a.svc = browse.NewService(api, a.sessions, time.Now)

	return a, nil
}
