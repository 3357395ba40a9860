package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/KRR-Oxford/docnav/internal/config"
	"github.com/KRR-Oxford/docnav/internal/eventstore"
	ferrors "github.com/KRR-Oxford/docnav/internal/foundation/errors"
	"github.com/KRR-Oxford/docnav/internal/navcheck"
	"github.com/KRR-Oxford/docnav/internal/navfile"
	"github.com/KRR-Oxford/docnav/internal/pipeline"
	"github.com/KRR-Oxford/docnav/internal/serve"
	"github.com/KRR-Oxford/docnav/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"docnav.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Check struct {
		Verify bool `help:"Also verify external targets over HTTP"`
		JSON   bool `help:"Emit the check result as JSON"`
	} `cmd:"" help:"Validate the navigation file against the documentation set"`

	Render struct {
		Output string `short:"o" help:"Output directory for the generated site"`
	} `cmd:"" help:"Render the documentation site"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Serve struct {
		Listen string `help:"Listen address override"`
	} `cmd:"" help:"Serve the rendered site and rebuild on docs changes"`

	Fingerprint struct {
		File string `arg:"" optional:"" help:"Navigation file (defaults to the configured one)"`
	} `cmd:"" help:"Print the navigation file fingerprint"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	adapter := ferrors.NewCLIErrorAdapter(CLI.Verbose, nil)

	switch ctx.Command() {
	case "check":
		adapter.HandleError(runCheck())
	case "render":
		adapter.HandleError(runRender())
	case "init":
		adapter.HandleError(config.Init(CLI.Config, CLI.Init.Force))
	case "serve":
		adapter.HandleError(runServe())
	case "fingerprint", "fingerprint <file>":
		adapter.HandleError(runFingerprint())
	case "version":
		fmt.Printf("docnav %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	}
}

func runCheck() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.EventDB), 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create event store directory").
			WithContext("path", cfg.Storage.EventDB).Build()
	}
	store, err := eventstore.NewSQLiteStore(cfg.Storage.EventDB)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Event store shutdown failed", "error", err)
		}
	}()

	opts := []pipeline.Option{pipeline.WithStore(store)}
	if CLI.Check.Verify {
		if !cfg.Verification.Enabled {
			return ferrors.ConfigError("verification is not enabled in the configuration").Build()
		}
		verifier, err := navcheck.NewVerifier(&cfg.Verification)
		if err != nil {
			return err
		}
		defer func() {
			if err := verifier.Close(); err != nil {
				slog.Warn("Verifier shutdown failed", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithVerifier(verifier))
	}

	result, err := pipeline.NewRunner(cfg, opts...).Check(context.Background(), "cli")
	if err != nil {
		return err
	}

	if CLI.Check.JSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return err
		}
	} else {
		printResult(result)
	}

	if result.HasErrors() {
		return ferrors.NavError("navigation check found errors").
			WithContext("errors", result.CountBySeverity(navcheck.SeverityError)).Build()
	}
	return nil
}

func printResult(result *navcheck.Result) {
	for _, issue := range result.Issues {
		location := ""
		if issue.Line > 0 {
			location = fmt.Sprintf(" (line %d)", issue.Line)
		}
		fmt.Printf("%s: %s: %s%s\n", issue.Severity, issue.Rule, issue.Message, location)
	}
	fmt.Printf("%d active entries, %d disabled, %d issues\n",
		result.ActiveEntries, result.DisabledCount, len(result.Issues))
}

func runRender() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if CLI.Render.Output != "" {
		cfg.Site.Output = CLI.Render.Output
	}

	report, err := pipeline.NewRunner(cfg).Render(context.Background(), "")
	if err != nil {
		return err
	}

	fmt.Printf("rendered %d pages, copied %d, to %s\n",
		report.PagesRendered, report.PagesCopied, report.OutputDir)
	return nil
}

func runServe() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if CLI.Serve.Listen != "" {
		cfg.Serve.Listen = CLI.Serve.Listen
	}

	daemon, err := serve.NewDaemon(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return daemon.Run(ctx)
}

func runFingerprint() error {
	navPath := CLI.Fingerprint.File
	if navPath == "" {
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			return err
		}
		navPath = cfg.Docs.NavFile
	}

	doc, err := navfile.ParseFile(navPath)
	if err != nil {
		return err
	}

	fmt.Println(doc.Fingerprint())
	return nil
}
