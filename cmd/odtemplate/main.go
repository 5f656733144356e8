// Command odtemplate fills OpenDocument templates from a YAML data file.
//
// Usage:
//
//	odtemplate render [-config odtemplate.yaml] [-log-level debug] [-no-clobber] <template> <data.yaml> <output>
//	odtemplate version
//
// Template, data and output paths may be local files or gs://bucket/object
// URLs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benjaminschreck/go-odtemplate/pkg/odtemplate"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "odtemplate: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage: odtemplate <render|version> [arguments]")

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		printUsage(stderr)
		return errUsage
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "odtemplate version %s\n", version)
		return nil
	case "render":
		return render(ctx, args[1:], stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "odtemplate - fill OpenDocument templates")
	fmt.Fprintln(w, "\nUsage: odtemplate <command> [arguments]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  render <template> <data.yaml> <output>    Render a template with data")
	fmt.Fprintln(w, "  version                                   Show version information")
}

func render(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to an odtemplate.yaml config file")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error, off")
	noClobber := fs.Bool("no-clobber", false, "fail instead of overwriting an existing output")
	timeout := fs.Duration("timeout", 5*time.Minute, "abort the render after this long")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		fs.Usage()
		return errors.New("render needs <template> <data.yaml> <output>")
	}
	templatePath, dataPath, outputPath := fs.Arg(0), fs.Arg(1), fs.Arg(2)

	config, err := resolveConfig(*configPath, *logLevel)
	if err != nil {
		return err
	}
	logger := odtemplate.NewLogger(zapcore.AddSync(stderr), zap.NewAtomicLevelAt(levelOf(config.LogLevel)))
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	store := newStorage()
	defer store.Close()

	data, err := readData(ctx, store, dataPath)
	if err != nil {
		return err
	}

	engine := odtemplate.NewWithOptions(odtemplate.WithConfig(config), odtemplate.WithLogger(logger))
	tmpl, err := openTemplate(ctx, engine, store, templatePath)
	if err != nil {
		return err
	}
	defer tmpl.Close()
	data.apply(tmpl)

	out, err := store.create(ctx, outputPath, *noClobber)
	if err != nil {
		return err
	}
	if _, err := tmpl.WriteTo(out); err != nil {
		out.Abort()
		return fmt.Errorf("render %s: %w", templatePath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("write %s: %w", outputPath, err)
	}

	size, err := tmpl.Wait(ctx)
	if err != nil {
		return fmt.Errorf("render %s: %w", templatePath, err)
	}
	logger.Info("rendered", zap.String("template", templatePath), zap.String("output", outputPath), zap.Int64("bytes", size))
	fmt.Fprintf(stdout, "%s (%d bytes)\n", outputPath, size)
	return nil
}

func resolveConfig(configPath, logLevel string) (*odtemplate.Config, error) {
	config := odtemplate.ConfigFromEnvironment()
	if configPath != "" {
		loaded, err := odtemplate.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	if logLevel != "" {
		config.LogLevel = logLevel
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func levelOf(name string) zapcore.Level {
	if name == "off" {
		return zapcore.FatalLevel + 1
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// openTemplate opens local templates through the engine so they can be cached,
// and streams remote ones.
func openTemplate(ctx context.Context, engine *odtemplate.Engine, store *storage, path string) (*odtemplate.Template, error) {
	if _, _, remote := parseGCSURL(path); !remote {
		return engine.Open(ctx, path)
	}
	r, err := store.open(ctx, path)
	if err != nil {
		return nil, err
	}
	tmpl, err := engine.Load(ctx, r)
	if err != nil {
		r.Close()
		return nil, err
	}
	go func() {
		defer r.Close()
		select {
		case <-tmpl.Ready():
		case <-tmpl.Failed():
		}
	}()
	return tmpl, nil
}
