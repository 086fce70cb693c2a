package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"

	"github.com/tartampluch/go-astrology/internal/chart"
	"github.com/tartampluch/go-astrology/internal/cli"
	"github.com/tartampluch/go-astrology/internal/config"
	"github.com/tartampluch/go-astrology/internal/engine"
	"github.com/tartampluch/go-astrology/internal/geo"
	"github.com/tartampluch/go-astrology/internal/server"
	"github.com/tartampluch/go-astrology/internal/store"
)

// main is the application entry point.
// It delegates execution to runMain to ensure that deferred function calls
// (like closing log files) are executed before the process terminates.
// os.Exit() does not run defers, so we must return an integer code first.
func main() {
	os.Exit(runMain())
}

// runMain manages the application lifecycle, argument parsing, and exit codes.
// Returns config.ExitCodeSuccess on success, config.ExitCodeError on failure.
func runMain() int {
	// -------------------------------------------------------------------------
	// 1. CLI Argument Parsing
	// -------------------------------------------------------------------------
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	debugMode := flag.Bool(config.FlagDebug, false, config.FlagDescDebug)
	serveJournal := flag.Bool(config.FlagServe, false, config.FlagDescServe)
	flag.Parse()

	if *showVersion {
		printVersion()
		return config.ExitCodeSuccess
	}

	// -------------------------------------------------------------------------
	// 2. Logging Initialization
	// -------------------------------------------------------------------------
	// The menu owns stdout, so logs only go there in debug mode.
	logCloser := setupLogging(*debugMode)
	if logCloser != nil {
		defer func() {
			_ = logCloser.Close() // Best effort close
		}()
	}

	// -------------------------------------------------------------------------
	// 3. Context & Signal Handling
	// -------------------------------------------------------------------------
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	// -------------------------------------------------------------------------
	// 4. Application Logic
	// -------------------------------------------------------------------------
	if err := run(ctx, *serveJournal); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		fmt.Fprintln(os.Stderr, err)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// run loads settings, wires the stores and pipelines, and drives the menu
// until the user quits.
func run(ctx context.Context, serveJournal bool) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}

	workbook, err := store.OpenWorkbook(ctx, settings.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = workbook.Close() }()

	var sink store.Sink = workbook
	var feed *server.JournalServer

	journalPath := settings.JournalPath
	if journalPath == "" && serveJournal {
		dir, err := config.AppCacheDir()
		if err != nil {
			return err
		}
		journalPath = filepath.Join(dir, config.JournalFileName)
	}
	if journalPath != "" {
		journal, err := store.OpenJournal(journalPath)
		if err != nil {
			return err
		}
		sink = store.Tee{workbook, journal}

		if serveJournal {
			feed = server.NewJournalServer(settings.ServePort)
			snapshot, err := journal.Bytes()
			if err != nil {
				return err
			}
			feed.Publish(snapshot, journal.ModTime())
			journal.OnUpdate = feed.Update
		}
	}

	cities, err := geo.LoadEmbedded()
	if err != nil {
		return err
	}
	zones, err := geo.NewTZFinder()
	if err != nil {
		return err
	}

	app := &cli.App{
		Readings: &engine.Readings{
			Clock:     engine.RealClock{},
			Fetcher:   engine.NewHTTPFetcher(settings.HTTPTimeout),
			Endpoints: settings.Endpoints,
			Sink:      sink,
		},
		Charts: &engine.ChartAssembler{
			Cities:   cities,
			Zones:    zones,
			Computer: chart.NewEphemeris(),
			Sink:     sink,
		},
		History:   workbook,
		T:         cli.NewTranslator(settings.Language),
		WrapWidth: settings.WrapWidth,
	}

	if feed == nil {
		return app.Run(ctx, os.Stdin, os.Stdout)
	}

	// The feed lives as long as the menu.
	srvCtx, stopServer := context.WithCancel(ctx)
	var wg sync.WaitGroup
	var srvErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		srvErr = feed.Start(srvCtx)
	}()

	runErr := app.Run(ctx, os.Stdin, os.Stdout)
	stopServer()
	wg.Wait()

	if runErr != nil {
		return runErr
	}
	return srvErr
}

// printVersion outputs the build information to stdout and exits.
func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger. Logs always go to the
// cache-dir log file; stdout is added in debug mode.
func setupLogging(debugMode bool) io.Closer {
	var writers []io.Writer
	var logFile *os.File

	if debugMode {
		writers = append(writers, os.Stdout)
	}

	if logPath, err := getLogFilePath(); err == nil {
		// O_TRUNC resets logs on restart to prevent indefinite growth.
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}

	logger := slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), opts))
	slog.SetDefault(logger)

	if logFile == nil {
		return nil
	}
	return logFile
}

// getLogFilePath returns the log file location in the application cache directory.
func getLogFilePath() (string, error) {
	dir, err := config.AppCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, config.LogFileName), nil
}
