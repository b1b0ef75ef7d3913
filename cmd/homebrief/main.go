package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/homebrief/cmd/homebrief/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Login   commands.LoginCmd   `cmd:"" help:"Sign in with the listing backend"`
		Guest   commands.GuestCmd   `cmd:"" help:"Continue as a guest"`
		Logout  commands.LogoutCmd  `cmd:"" help:"End the current session"`
		Whoami  commands.WhoamiCmd  `cmd:"" help:"Show the current session"`
		List    commands.ListCmd    `cmd:"" help:"List properties"`
		View    commands.ViewCmd    `cmd:"" help:"Show a property and its brief"`
		History commands.HistoryCmd `cmd:"" help:"List viewed properties"`
		Health  commands.HealthCmd  `cmd:"" help:"Check the listing backend is up"`

		Debug   bool `help:"Enable debug mode." env:"HOMEBRIEF_DEBUG"`
		Tracing bool `help:"Export traces and metrics over OTLP." env:"HOMEBRIEF_TRACING"`
		Version kong.VersionFlag

		Store commands.StoreFlags `embed:""`
		API   commands.APIFlags   `embed:""`
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("homebrief"),
		kong.Description("Browse property listings and their briefs."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Debug:   cli.Debug,
		Tracing: cli.Tracing,
		Version: version,
		Store:   cli.Store,
		API:     cli.API,
	})
	cmd.FatalIfErrorf(err)
}
