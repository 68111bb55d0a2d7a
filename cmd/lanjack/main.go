package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  ServerCmd        `cmd:"" help:"Host blackjack on the LAN"`
	Client  ClientCmd        `cmd:"" help:"Find a host and play interactively"`
	Bot     BotCmd           `cmd:"" help:"Find a host and play a built-in strategy"`
	Spawn   SpawnCmd         `cmd:"" help:"Run a host plus bot players in one process"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("lanjack"),
		kong.Description("LAN blackjack: a host announces itself over UDP, clients connect over TCP and play"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
