package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"pdfgen/internal/batch"
)

type batchFlags struct {
	common  commonFlags
	pdf     pdfFlags
	dir     string
	workers int
}

func parseBatchFlags(args []string, env *Environment) (*batchFlags, []string, error) {
	f := &batchFlags{}
	fs := newFlagSet("batch", env, func() { printBatchUsage(env.Stderr) })

	fs.StringVarP(&f.dir, "dir", "d", "", "input directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel renders (0 = batch.workers)")
	addPDFFlags(fs, &f.pdf)
	addCommonFlags(fs, &f.common)

	if err := parseArgs(fs, args); err != nil {
		return nil, nil, err
	}
	if f.workers < 0 {
		return nil, nil, fmt.Errorf("%w: --workers must not be negative", ErrUsage)
	}
	return f, fs.Args(), nil
}

func runBatchCmd(ctx context.Context, args []string, env *Environment) int {
	f, names, err := parseBatchFlags(args, env)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		return fail(env, err)
	}

	cfg, err := loadConfig(f.common.config)
	if err != nil {
		return fail(env, err)
	}
	setupLogging(env, f.common.verbose)

	// The credential is checked before any file is touched.
	client, err := newClient(cfg, env)
	if err != nil {
		return fail(env, err)
	}
	defer client.Close()

	opts := batch.Options{Workers: f.workers}
	if opts.Workers == 0 {
		opts.Workers = cfg.Batch.Workers
	}
	req, err := f.pdf.request(cfg, "")
	if err != nil {
		return fail(env, err)
	}
	opts.Format, opts.PrintBackground, opts.WaitUntil = req.Format, req.PrintBackground, req.WaitUntil

	dir := f.dir
	if dir == "" {
		dir = cfg.Paths.TemplateDir
	}

	var files []string
	if len(names) > 0 {
		var missing []string
		files, missing = batch.ResolveFiles(dir, names)
		for _, name := range missing {
			fmt.Fprintf(env.Stdout, "File not found: %s\n", name)
		}
	} else {
		files, err = batch.FindHTMLFiles(dir)
		if err != nil {
			return fail(env, fmt.Errorf("%w: %w", ErrReadInput, err))
		}
	}

	if len(files) == 0 {
		fmt.Fprintln(env.Stdout, "No HTML files found to convert")
		if len(names) > 0 {
			return ExitIO
		}
		return ExitSuccess
	}

	rule := strings.Repeat("=", 70)
	fmt.Fprintf(env.Stdout, "\nStarting batch conversion of %d file(s)...\n", len(files))
	fmt.Fprintln(env.Stdout, rule)

	printEntry := func(e batch.Entry) {
		fmt.Fprintf(env.Stdout, "\nProcessing: %s\n", e.Source)
		fmt.Fprintf(env.Stdout, "   %s\n", e.Message())
	}
	if opts.Workers <= 1 {
		opts.Progress = printEntry
	}

	out := batch.ConvertAll(ctx, client, files, opts)
	if opts.Workers > 1 {
		for _, e := range out.Entries {
			printEntry(e)
		}
	}
	out.WriteSummary(env.Stdout)

	if err := out.Err(); err != nil {
		return exitCodeFor(err)
	}
	return ExitSuccess
}
