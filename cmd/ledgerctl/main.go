package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"virtual-bank/internal/cli"
	"virtual-bank/internal/config"
)

func main() {
	_ = config.LoadDotEnv(".env")
	app := &cli.App{Config: config.Load()}
	app.RegisterFlags(flag.CommandLine)

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cli.Register(commander, app)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
