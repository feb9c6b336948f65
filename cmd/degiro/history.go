package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"github.com/aristath/degiro/internal/archive"
	"github.com/aristath/degiro/internal/database"
	"github.com/aristath/degiro/internal/scheduler"
	"github.com/aristath/degiro/internal/server"
	"github.com/aristath/degiro/internal/utils"
)

// dateRange holds the -from and -to flags shared by the history commands
type dateRange struct {
	from string
	to   string
}

func (r *dateRange) setFlags(f *flag.FlagSet) {
	f.StringVar(&r.from, "from", "", "First day, YYYY-MM-DD (default one year before -to)")
	f.StringVar(&r.to, "to", "", "Last day, YYYY-MM-DD (default today)")
}

func (r *dateRange) parse() (time.Time, time.Time, error) {
	return utils.ParseRange(r.from, r.to, time.Now())
}

// movementsCmd prints the cash ledger.
type movementsCmd struct {
	app *app
	dateRange
}

func (*movementsCmd) Name() string     { return "movements" }
func (*movementsCmd) Synopsis() string { return "display cash movements in a date range" }
func (*movementsCmd) Usage() string {
	return `degiro movements [-from <date>] [-to <date>]

  Lists deposits, withdrawals, fees, dividends and trade settlements.
`
}

func (c *movementsCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *movementsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	from, to, err := c.parse()
	if err != nil {
		return c.app.usage(err)
	}

	s, err := c.app.connect(ctx)
	if err != nil {
		return c.app.fail("Error connecting to DEGIRO", err)
	}

	movements, err := s.CashMovements(ctx, from, to)
	if err != nil {
		return c.app.fail("Error fetching cash movements", err)
	}
	return c.app.print(movements, renderCashMovements(movements))
}

// transactionsCmd prints executed transactions.
type transactionsCmd struct {
	app *app
	dateRange
}

func (*transactionsCmd) Name() string     { return "transactions" }
func (*transactionsCmd) Synopsis() string { return "display transactions in a date range" }
func (*transactionsCmd) Usage() string {
	return `degiro transactions [-from <date>] [-to <date>]
`
}

func (c *transactionsCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *transactionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	from, to, err := c.parse()
	if err != nil {
		return c.app.usage(err)
	}

	s, err := c.app.connect(ctx)
	if err != nil {
		return c.app.fail("Error connecting to DEGIRO", err)
	}

	transactions, err := s.Transactions(ctx, from, to)
	if err != nil {
		return c.app.fail("Error fetching transactions", err)
	}

	records := make([]map[string]interface{}, len(transactions))
	for i, tx := range transactions {
		records[i] = tx
	}
	return c.app.print(transactions, renderRecords("Transactions", records))
}

// archiveCmd copies history into the local archive.
type archiveCmd struct {
	app *app
	dateRange
	dbPath string
}

func (*archiveCmd) Name() string     { return "archive" }
func (*archiveCmd) Synopsis() string { return "store cash movements and transactions in the local archive" }
func (*archiveCmd) Usage() string {
	return `degiro archive [-from <date>] [-to <date>] [-db <path>]

  Fetches cash movements and transactions and stores the ones not archived
  yet. Overlapping ranges can be archived again safely.
`
}

func (c *archiveCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.dbPath, "db", "", "Archive database (default <DEGIRO_DATA_DIR>/archive.db)")
}

func (c *archiveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	from, to, err := c.parse()
	if err != nil {
		return c.app.usage(err)
	}

	path := c.dbPath
	if path == "" {
		path = c.app.cfg.ArchivePath()
	}
	db, err := openArchive(ctx, path)
	if err != nil {
		return c.app.fail("Error opening archive", err)
	}
	defer db.Close()

	s, err := c.app.connect(ctx)
	if err != nil {
		return c.app.fail("Error connecting to DEGIRO", err)
	}

	archiver := archive.NewArchiver(s, archive.NewRepository(db.Conn()), s.Account(), c.app.log)
	batch, err := archiver.Run(ctx, from, to)
	if err != nil {
		return c.app.fail("Error archiving history", err)
	}
	return c.app.print(batch, renderBatch(batch))
}

func openArchive(ctx context.Context, path string) (*database.DB, error) {
	db, err := database.New(database.Config{Path: path, Profile: database.ProfileArchive})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// serveCmd runs the local HTTP API.
type serveCmd struct {
	app      *app
	port     int
	schedule string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the account views as JSON over HTTP" }
func (*serveCmd) Usage() string {
	return `degiro serve [-port <port>]

  Logs in once and serves /api/portfolio, /api/cash-funds, /api/cash-movements
  and the other views until interrupted. The archive is served read-only
  from <DEGIRO_DATA_DIR>/archive.db. With -archive-schedule the trailing
  DEGIRO_ARCHIVE_LOOKBACK window is archived on that cron schedule.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.port, "port", 0, "Port to listen on (default PORT)")
	f.StringVar(&c.schedule, "archive-schedule", "", "Cron schedule for archive runs, e.g. \"@daily\" (default DEGIRO_ARCHIVE_SCHEDULE)")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	port := c.port
	if port == 0 {
		port = c.app.cfg.Port
	}

	s, err := c.app.connect(ctx)
	if err != nil {
		return c.app.fail("Error connecting to DEGIRO", err)
	}

	db, err := openArchive(ctx, c.app.cfg.ArchivePath())
	if err != nil {
		return c.app.fail("Error opening archive", err)
	}
	defer db.Close()
	repo := archive.NewRepository(db.Conn())

	schedule := c.schedule
	if schedule == "" {
		schedule = c.app.cfg.ArchiveSchedule
	}
	if schedule != "" {
		sched := scheduler.New(c.app.log)
		job := scheduler.NewArchiveJob(archive.NewArchiver(s, repo, s.Account(), c.app.log), c.app.cfg.ArchiveLookback)
		if err := sched.AddJob(schedule, job); err != nil {
			return c.app.usage(fmt.Errorf("invalid archive schedule %q: %w", schedule, err))
		}
		sched.Start()
		defer sched.Stop()
	}

	srv := server.New(server.Config{
		Log:       c.app.log,
		Broker:    s,
		ArchiveDB: db,
		Port:      port,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return c.app.fail("HTTP server failed", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return c.app.fail("Error shutting down", err)
	}
	fmt.Fprintln(c.app.stderr, "Server stopped")
	return subcommands.ExitSuccess
}
