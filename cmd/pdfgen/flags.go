package main

import (
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"

	"pdfgen/internal/credentials"
	"pdfgen/internal/doppio"
	u "pdfgen/internal/utils"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	verbose bool
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file (default $CONFIG_PATH or "+u.DefaultConfigPath+")")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log diagnostics to stderr")
}

// pdfFlags holds the page options shared by render and batch.
type pdfFlags struct {
	format       string
	waitUntil    string
	noBackground bool
}

func addPDFFlags(fs *flag.FlagSet, f *pdfFlags) {
	fs.StringVar(&f.format, "format", "", "page format: A3, A4, A5, A6, Letter, Legal, Tabloid, Ledger")
	fs.StringVar(&f.waitUntil, "wait-until", "", "wait condition: load, domcontentloaded, networkidle0, networkidle2")
	fs.BoolVar(&f.noBackground, "no-background", false, "do not print background colors and images")
}

// request builds a render request, falling back to the configured defaults.
func (f pdfFlags) request(cfg u.Config, html string) (doppio.RenderRequest, error) {
	formatName := f.format
	if formatName == "" {
		formatName = cfg.PDF.DefaultFormat
	}
	format, err := doppio.ParsePageFormat(formatName)
	if err != nil {
		return doppio.RenderRequest{}, err
	}
	waitName := f.waitUntil
	if waitName == "" {
		waitName = cfg.PDF.WaitUntil
	}
	wait, err := doppio.ParseWaitCondition(waitName)
	if err != nil {
		return doppio.RenderRequest{}, err
	}
	return doppio.RenderRequest{
		HTML:            html,
		Format:          format,
		PrintBackground: cfg.PrintBackground() && !f.noBackground,
		WaitUntil:       wait,
	}, nil
}

// newFlagSet returns a pflag set that reports errors instead of exiting.
func newFlagSet(name string, env *Environment, usage func()) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	fs.Usage = usage
	return fs
}

// parseArgs wraps pflag errors so they map to the usage exit code.
func parseArgs(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// loadConfig reads path, or the default location when path is empty.
func loadConfig(path string) (cfg u.Config, err error) {
	if path == "" {
		path = u.ConfigPath()
	}
	if path == "" {
		return u.Defaults(), nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrConfig, r)
		}
	}()
	return u.LoadFrom(path), nil
}

func setupLogging(env *Environment, verbose bool) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	u.InitConsoleLogger(env.Stderr, level)
}

func resolver(cfg u.Config, env *Environment) credentials.Resolver {
	return credentials.Resolver{
		EnvVar:  cfg.Doppio.APIKeyEnv,
		EnvFile: cfg.Doppio.EnvFile,
		Getenv:  env.Getenv,
	}
}

// newClient resolves the credential and builds the rendering client. No
// network traffic happens when the credential is missing.
func newClient(cfg u.Config, env *Environment) (*doppio.Client, error) {
	key, err := resolver(cfg, env).Resolve()
	if err != nil {
		return nil, err
	}
	return doppio.NewClient(doppio.ConfigFrom(cfg, key))
}
