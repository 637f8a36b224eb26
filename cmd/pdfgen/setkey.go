package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"pdfgen/internal/credentials"
)

const keyPrefix = "dp_"

func runSetKeyCmd(args []string, env *Environment) int {
	var common commonFlags
	var force bool
	fs := newFlagSet("set-key", env, func() { printSetKeyUsage(env.Stderr) })
	fs.BoolVar(&force, "force", false, "replace an existing key")
	addCommonFlags(fs, &common)
	if err := parseArgs(fs, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return fail(env, err)
	}
	if fs.NArg() > 1 {
		return fail(env, fmt.Errorf("%w: set-key takes at most one argument", ErrUsage))
	}

	cfg, err := loadConfig(common.config)
	if err != nil {
		return fail(env, err)
	}
	setupLogging(env, common.verbose)

	key := fs.Arg(0)
	if key == "" {
		fmt.Fprint(env.Stdout, "Paste your API key: ")
		key, _ = bufio.NewReader(env.Stdin).ReadString('\n')
		fmt.Fprintln(env.Stdout)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fail(env, fmt.Errorf("%w: no API key provided", ErrUsage))
	}

	if !strings.HasPrefix(key, keyPrefix) {
		fmt.Fprintf(env.Stderr, "Warning: the key does not start with %q; Doppio keys usually do.\n", keyPrefix)
	}

	if err := credentials.SaveKey(cfg.Doppio.EnvFile, cfg.Doppio.APIKeyEnv, key, force); err != nil {
		return fail(env, err)
	}

	fmt.Fprintf(env.Stdout, "Saved %s to %s (%s)\n", cfg.Doppio.APIKeyEnv, cfg.Doppio.EnvFile, credentials.Mask(key))
	fmt.Fprintln(env.Stdout, "Run 'pdfgen doctor' to verify the setup.")
	return ExitSuccess
}
