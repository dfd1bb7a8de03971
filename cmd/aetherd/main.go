// Command aetherd runs an Aether relay-core instance: the native
// Codec/Session WebSocket gateway, the NIP-01 text adapter, and the HTTP
// adapter, each independently enabled by configuration. Configuration is
// via environment variables or an optional .env file; run with the
// positional argument "env" to print the current configuration, or
// "help" to print the environment variable reference. --config overrides
// the configuration directory and --version prints the build version.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/pkg/profile"

	"aether.dev/pkg/app/config"
	"aether.dev/pkg/app/relay"
	"aether.dev/pkg/utils/chk"
	"aether.dev/pkg/utils/context"
	"aether.dev/pkg/utils/log"
)

// sysexits.h conventions spec.md §6 mandates for this process's exit codes.
const (
	exitOK         = 0
	exitUsageError = 64 // EX_USAGE: invalid configuration
	exitIOError    = 74 // EX_IOERR: storage/transport init or runtime failure
)

// runArgs are the flags layered over the env-driven configuration in
// config.C: a config-directory override and a version query, alongside the
// existing "env"/"help" positional commands config.GetEnv/HelpRequested
// already read straight from os.Args.
type runArgs struct {
	ConfigDir string `arg:"--config" help:"override AETHER_CONFIG_DIR: location for the .env configuration file"`
	Version   bool   `arg:"--version" help:"print the version and exit"`
}

// stripBareCommands drops the "env"/"help" positional tokens
// config.GetEnv/HelpRequested read straight from os.Args, so the go-arg
// parser only ever sees the flags it owns.
func stripBareCommands(argv []string) []string {
	out := make([]string, 0, len(argv))
	for _, a := range argv {
		switch strings.ToLower(a) {
		case "env", "help", "-h", "--h", "-help", "--help", "?":
			continue
		}
		out = append(out, a)
	}
	return out
}

func main() {
	var args runArgs
	parser, err := arg.NewParser(arg.Config{}, &args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsageError)
	}
	if err = parser.Parse(stripBareCommands(os.Args[1:])); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsageError)
	}
	if args.Version {
		fmt.Printf("aetherd %s\n", config.AppVersion)
		os.Exit(exitOK)
	}
	if args.ConfigDir != "" {
		_ = os.Setenv("AETHER_CONFIG_DIR", args.ConfigDir)
	}

	cfg, err := config.New()
	if chk.T(err) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n\n", err)
		}
		config.PrintHelp(cfg, os.Stderr)
		os.Exit(exitUsageError)
	}
	if config.GetEnv() {
		config.PrintEnv(cfg, os.Stdout)
		os.Exit(exitOK)
	}
	if config.HelpRequested() {
		config.PrintHelp(cfg, os.Stderr)
		os.Exit(exitOK)
	}

	log.SetLevel(cfg.LogLevel)
	log.I.F("starting %s %s", cfg.AppName, config.AppVersion)

	switch cfg.Pprof {
	case "cpu":
		defer profile.Start(profile.CPUProfile).Stop()
	case "memory":
		defer profile.Start(profile.MemProfile).Stop()
	case "allocation":
		defer profile.Start(profile.MemProfileAllocs).Stop()
	}

	ctx, cancel := context.Cancel(context.Bg())

	server, err := relay.New(ctx, cancel, cfg)
	if chk.E(err) {
		log.F.F("failed to initialize relay: %v", err)
		os.Exit(exitIOError)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		server.Shutdown()
	}()

	if err = server.Start(); chk.E(err) {
		log.F.F("relay terminated: %v", err)
		os.Exit(exitIOError)
	}
}
