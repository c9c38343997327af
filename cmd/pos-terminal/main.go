package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/pos-terminal/internal/barcode"
	"github.com/zombor/pos-terminal/internal/catalog"
	"github.com/zombor/pos-terminal/internal/i18n"
	"github.com/zombor/pos-terminal/internal/till"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A .env file is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	flags := ff.NewFlagSet("pos-terminal")
	var (
		port            = flags.IntLong("port", 8080, "HTTP server port")
		dbPath          = flags.StringLong("db", "pos-terminal.db", "Catalog database file path")
		catalogPath     = flags.StringLong("catalog", "", "CSV or XLSX product file to import at startup (optional)")
		languagesPath   = flags.StringLong("languages", "", "JSON or TOML language file (defaults to the built-in table)")
		locale          = flags.StringLong("locale", i18n.DefaultLocale, "Initial display locale")
		freshnessWindow = flags.DurationLong("freshness-window", barcode.DefaultFreshnessWindow, "How long a dated barcode stays valid after packaging")
		console         = flags.BoolLong("console", "Read scans from standard input instead of serving HTTP")
		authUser        = flags.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass        = flags.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion     = flags.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(flags, os.Args[1:],
		ff.WithEnvVarPrefix("POS_TERMINAL"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(flags))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize catalog
	slog.Info("Initializing catalog...", "db", *dbPath)
	store, err := catalog.NewBoltStore(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize catalog", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if *catalogPath != "" {
		n, err := catalog.ImportFile(store, *catalogPath)
		if err != nil {
			slog.Error("Failed to import catalog", "path", *catalogPath, "error", err)
			os.Exit(1)
		}
		slog.Info("Imported catalog", "path", *catalogPath, "products", n)
	}

	// Initialize languages
	languages := i18n.Default()
	if *languagesPath != "" {
		languages, err = i18n.Load(*languagesPath)
		if err != nil {
			slog.Error("Failed to load languages", "path", *languagesPath, "error", err)
			os.Exit(1)
		}
	}

	// Initialize service
	decoder := barcode.Decoder{FreshnessWindow: *freshnessWindow}
	service := till.NewService(store, decoder, languages, *locale)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *console {
		if err := till.NewConsole(service, os.Stdin, os.Stdout).Run(ctx); err != nil {
			slog.Error("Console error", "error", err)
			os.Exit(1)
		}
		slog.Info("Shutting down...")
		return
	}

	// Initialize server
	basicAuth := till.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := till.NewServer(service, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	<-ctx.Done()

	slog.Info("Shutting down...")
}
