package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/aristath/degiro/internal/clients/degiro"
	"github.com/aristath/degiro/internal/config"
	"github.com/aristath/degiro/internal/credentials"
	"github.com/aristath/degiro/internal/domain"
)

// session is what the commands need from a logged-in client
type session interface {
	domain.BrokerClient
	Account() int64
}

// app carries the state shared by all commands
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	twoFactor bool
	json      bool
	style     string // glamour standard style, empty selects one from the terminal
	stdout    io.Writer
	stderr    io.Writer

	// connect logs in and resolves the account
	connect func(ctx context.Context) (session, error)
}

func newApp(cfg *config.Config, log zerolog.Logger, twoFactor, jsonOutput bool) *app {
	a := &app{
		cfg:       cfg,
		log:       log,
		twoFactor: twoFactor,
		json:      jsonOutput,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
	a.connect = a.login
	return a
}

// login builds a DEGIRO client, resolves credentials (file, environment or
// prompt) and connects
func (a *app) login(ctx context.Context) (session, error) {
	client, err := degiro.NewClient(a.cfg.BaseURL, a.cfg.Timeout, a.log,
		degiro.WithReferenceCurrency(a.cfg.ReferenceCurrency))
	if err != nil {
		return nil, err
	}

	prompter := credentials.NewPrompter(os.Stdin, a.stderr)
	src := credentials.Resolve(a.cfg.CredentialsFile, a.cfg.Username, a.cfg.Password, a.twoFactor, prompter)
	creds, err := credentials.Load(ctx, src)
	if err != nil {
		return nil, err
	}

	if err := client.Connect(ctx, creds, a.twoFactor); err != nil {
		return nil, err
	}
	return client, nil
}

// print writes v as indented JSON with -json, or renders md otherwise
func (a *app) print(v interface{}, md string) subcommands.ExitStatus {
	if a.json {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return a.fail("Error encoding JSON", err)
		}
		return subcommands.ExitSuccess
	}

	if err := a.printMarkdown(md); err != nil {
		return a.fail("Error rendering output", err)
	}
	return subcommands.ExitSuccess
}

func (a *app) printMarkdown(md string) error {
	styleOpt := glamour.WithAutoStyle()
	if a.style != "" {
		styleOpt = glamour.WithStandardStyle(a.style)
	}

	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(120))
	if err != nil {
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(a.stdout, out)
	return err
}

func (a *app) fail(msg string, err error) subcommands.ExitStatus {
	fmt.Fprintf(a.stderr, "%s: %v\n", msg, err)
	return subcommands.ExitFailure
}

func (a *app) usage(err error) subcommands.ExitStatus {
	fmt.Fprintf(a.stderr, "%v\n", err)
	return subcommands.ExitUsageError
}
