// Package config provides a go-simpler.org/env configuration table and
// helpers for working with the list of key/value lists stored in .env
// files.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/kardianos/osext"
	"go-simpler.org/env"

	"aether.dev/pkg/utils/apputil"
	"aether.dev/pkg/utils/chk"
	"aether.dev/pkg/utils/log"
)

// AppVersion is the version string reported by PrintHelp, set at build
// time via -ldflags.
var AppVersion = "dev"

// C holds application configuration settings loaded from environment
// variables and default values.
type C struct {
	AppName  string `env:"AETHER_APP_NAME" default:"aether"`
	Config   string `env:"AETHER_CONFIG_DIR" usage:"location for configuration file, named '.env', KEY=value per line" default:"~/.config/aether"`
	State    string `env:"AETHER_STATE_DATA_DIR" usage:"storage location for state data" default:"~/.local/state/aether"`
	DataDir  string `env:"AETHER_DATA_DIR" usage:"storage location for the event store, or 'memory' for an ephemeral in-memory store" default:"~/.local/share/aether"`
	TTL      time.Duration `env:"AETHER_IMMUTABLE_TTL" usage:"retention window for immutable-class events, 0 disables expiry" default:"0"`

	ListenAddr string `env:"AETHER_LISTEN" default:"0.0.0.0" usage:"network listen address"`
	Port       int    `env:"AETHER_PORT" default:"3334" usage:"port the native WebSocket gateway listens on"`

	EnableNative bool `env:"AETHER_ENABLE_NATIVE" default:"true" usage:"enable the native Codec/Session WebSocket gateway"`
	EnableNIP01  bool `env:"AETHER_ENABLE_NIP01" default:"true" usage:"enable the NIP-01 text WebSocket adapter"`
	EnableHTTP   bool `env:"AETHER_ENABLE_HTTP" default:"true" usage:"enable the HTTP adapter (/v1/events, /v1/subscriptions, /v1/stream, /v1/ws, /healthz)"`

	NIP01Path string `env:"AETHER_NIP01_PATH" default:"/nip01" usage:"path the NIP-01 adapter listens on, on the native gateway's port"`
	HTTPPort  int    `env:"AETHER_HTTP_PORT" default:"3335" usage:"port the HTTP adapter listens on"`

	TLSCert string `env:"AETHER_TLS_CERT" usage:"path to TLS certificate; missing material disables QUIC but not WebSocket"`
	TLSKey  string `env:"AETHER_TLS_KEY" usage:"path to TLS private key; missing material disables QUIC but not WebSocket"`

	LogLevel string `env:"AETHER_LOG_LEVEL" default:"info" usage:"debug level: fatal error warn info debug trace"`
	Pprof    string `env:"AETHER_PPROF" usage:"write a cpu, memory or allocation profile to disk for the process lifetime" enum:"cpu,memory,allocation"`

	AuthRequired   bool     `env:"AETHER_AUTH_REQUIRED" default:"false" usage:"advertised as auth_required in the relay information document; not enforced by any gateway"`
	PublicReadable bool     `env:"AETHER_PUBLIC_READABLE" default:"true" usage:"advertised as public_readable in the relay information document; not enforced by any gateway"`
	Owners         []string `env:"AETHER_OWNERS" usage:"hex pubkeys authorized to delete any event, per the tombstone deletion rule (comma separated)"`
	Whitelist      []string `env:"AETHER_WHITELIST" usage:"only allow connections from this list of IP addresses (comma separated)"`

	MinPowDifficulty int `env:"AETHER_MIN_POW_DIFFICULTY" default:"0" usage:"minimum leading zero bits of event id required for acceptance, 0 disables the check"`
	MaxSkewSeconds   int `env:"AETHER_MAX_SKEW_SECONDS" default:"60" usage:"maximum allowed event created_at clock skew, in seconds"`
}

// New creates and initializes a new configuration object for the relay,
// loading first from the process environment and then, if present, from a
// .env file in the resolved config directory, which only fills in
// variables the process environment does not already set.
func New() (cfg *C, err error) {
	cfg = &C{}
	if err = env.Load(cfg, &env.Options{SliceSep: ","}); chk.T(err) {
		return
	}
	if cfg.Config == "" || strings.Contains(cfg.Config, "~") {
		cfg.Config = filepath.Join(xdg.ConfigHome, cfg.AppName)
	}
	if cfg.DataDir == "" || strings.Contains(cfg.DataDir, "~") {
		cfg.DataDir = filepath.Join(xdg.DataHome, cfg.AppName)
	}
	if cfg.State == "" || strings.Contains(cfg.State, "~") {
		cfg.State = filepath.Join(xdg.StateHome, cfg.AppName)
	}
	if len(cfg.Owners) > 0 {
		cfg.AuthRequired = true
	}

	envPath := filepath.Join(cfg.Config, ".env")
	if !apputil.FileExists(envPath) {
		// fall back to a .env placed next to the executable, for a
		// portable, no-install deployment.
		if folder, folderErr := osext.ExecutableFolder(); folderErr == nil {
			if alt := filepath.Join(folder, ".env"); apputil.FileExists(alt) {
				envPath = alt
			}
		}
	}
	if apputil.FileExists(envPath) {
		var dotenv map[string]string
		if dotenv, err = loadDotEnv(envPath); chk.T(err) {
			return
		}
		for k, v := range dotenv {
			if _, present := os.LookupEnv(k); !present {
				_ = os.Setenv(k, v)
			}
		}
		cfg = &C{}
		if err = env.Load(cfg, &env.Options{SliceSep: ","}); chk.E(err) {
			return
		}
		log.SetLevel(cfg.LogLevel)
		log.I.F("loaded configuration from %s", envPath)
	}
	return
}

// InMemory reports whether DataDir selects the ephemeral in-memory store
// backend rather than an on-disk path.
func (c *C) InMemory() bool { return c.DataDir == "memory" }

// loadDotEnv parses a flat KEY=value-per-line file. go-simpler.org/env
// only reads the process environment; no library in the dependency set
// parses a standalone .env file, so this one small stdlib parser fills
// that gap (see DESIGN.md).
func loadDotEnv(path string) (m map[string]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m = map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		m[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if err = scanner.Err(); err != nil && err != io.EOF {
		return nil, err
	}
	return m, nil
}

// HelpRequested reports whether the first command line argument is a
// common help flag.
func HelpRequested() (help bool) {
	if len(os.Args) > 1 {
		switch strings.ToLower(os.Args[1]) {
		case "help", "-h", "--h", "-help", "--help", "?":
			help = true
		}
	}
	return
}

// GetEnv reports whether the first command line argument is "env",
// requesting the current configuration be printed as KEY=value lines.
func GetEnv() (requested bool) {
	if len(os.Args) > 1 && strings.ToLower(os.Args[1]) == "env" {
		requested = true
	}
	return
}

// KV is a key/value pair.
type KV struct{ Key, Value string }

// KVSlice is a sortable slice of key/value pairs.
type KVSlice []KV

func (kv KVSlice) Len() int           { return len(kv) }
func (kv KVSlice) Less(i, j int) bool { return kv[i].Key < kv[j].Key }
func (kv KVSlice) Swap(i, j int)      { kv[i], kv[j] = kv[j], kv[i] }

// EnvKV renders cfg's `env`-tagged fields as key/value pairs.
func EnvKV(cfg any) (m KVSlice) {
	t := reflect.TypeOf(cfg)
	for i := 0; i < t.NumField(); i++ {
		k := t.Field(i).Tag.Get("env")
		if k == "" {
			continue
		}
		v := reflect.ValueOf(cfg).Field(i).Interface()
		var val string
		switch vv := v.(type) {
		case string:
			val = vv
		case int, bool, time.Duration:
			val = fmt.Sprint(vv)
		case []string:
			val = strings.Join(vv, ",")
		}
		m = append(m, KV{k, val})
	}
	return
}

// PrintEnv writes cfg's environment variables, sorted, as KEY=value lines.
func PrintEnv(cfg *C, printer io.Writer) {
	kvs := EnvKV(*cfg)
	sort.Sort(kvs)
	for _, v := range kvs {
		_, _ = fmt.Fprintf(printer, "%s=%s\n", v.Key, v.Value)
	}
}

// PrintHelp writes the environment variable usage table and current
// configuration to printer.
func PrintHelp(cfg *C, printer io.Writer) {
	_, _ = fmt.Fprintf(printer, "%s %s\n\n", cfg.AppName, AppVersion)
	_, _ = fmt.Fprintf(printer, "Environment variables that configure %s:\n\n", cfg.AppName)
	env.Usage(cfg, printer, &env.Options{SliceSep: ","})
	_, _ = fmt.Fprintf(
		printer,
		"\nCLI parameter 'help' also prints this information\n"+
			"\n.env file found at %s is loaded automatically, without overriding variables "+
			"already set in the process environment.\n"+
			"use the parameter 'env' to print the current configuration\n\n"+
			"\t%s env > %s/.env\n",
		cfg.Config, os.Args[0], cfg.Config,
	)
	_, _ = fmt.Fprintf(printer, "\ncurrent configuration:\n\n")
	PrintEnv(cfg, printer)
	_, _ = fmt.Fprintln(printer)
}
