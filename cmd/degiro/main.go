// Package main is the entry point of the degiro command line client.
// It logs into the DEGIRO web trader, prints the normalized account views
// and can archive history or serve the views over a local HTTP API.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/aristath/degiro/internal/config"
	"github.com/aristath/degiro/pkg/logger"
)

var (
	configFile = flag.String("config", "", "Path to a .env configuration file (default .env)")
	twoFactor  = flag.Bool("2fa", false, "Prompt for a one-time password at login")
	logLevel   = flag.String("log-level", "", "Log level: debug, info, warn or error (overrides LOG_LEVEL)")
	jsonOutput = flag.Bool("json", false, "Print raw JSON instead of rendered tables")
)

func main() {
	// Answers shell completion requests and exits when COMP_LINE is set
	completion().Complete("degiro")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	flag.Parse()

	var envFiles []string
	if *configFile != "" {
		envFiles = append(envFiles, *configFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	a := newApp(cfg, log, *twoFactor || cfg.TwoFactor, *jsonOutput)
	register(commander, a)

	os.Exit(int(commander.Execute(context.Background())))
}

// register adds the degiro commands to the commander
func register(c *subcommands.Commander, a *app) {
	c.Register(&portfolioCmd{app: a}, "views")
	c.Register(&cashCmd{app: a}, "views")
	c.Register(&summaryCmd{app: a}, "views")
	c.Register(&totalsCmd{app: a}, "views")
	c.Register(&ordersCmd{app: a}, "views")
	c.Register(&productsCmd{app: a}, "views")

	c.Register(&movementsCmd{app: a}, "history")
	c.Register(&transactionsCmd{app: a}, "history")
	c.Register(&archiveCmd{app: a}, "history")

	c.Register(&serveCmd{app: a}, "server")
}
