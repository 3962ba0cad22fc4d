package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envFileName = ".env"

	EnvGitHubToken  = "GITHUB_TOKEN"
	EnvConfigFile   = "CONTEXT_CONFIG_FILE"
	EnvWorkdir      = "CONTEXT_WORKDIR"
	DefaultConfigFn = "context_config.yaml"

	DefaultHTTPTimeout = 30 * time.Second
)

// Environment is the process-wide configuration of ctxfetch. It is built
// once at start and handed to every component; nothing else reads the
// process environment.
type Environment struct {
	// ConfigSource is a local path or an http(s) URL.
	ConfigSource string
	// Workdir is the default workspace when a tool call names none.
	Workdir string
	// GitHubToken authorizes tree listings and raw downloads. May be empty.
	GitHubToken string
	// HTTPTimeout bounds every outbound request.
	HTTPTimeout time.Duration
	// Sources records where each variable was resolved from, keyed by
	// variable name.
	Sources map[string]EnvSource
}

// EnvSource indicates where an env var value was resolved from.
type EnvSource string

const (
	EnvSourceFlag    EnvSource = "flag"
	EnvSourceProcess EnvSource = "process"
	EnvSourceDotenv  EnvSource = "dotenv"
	EnvSourceDefault EnvSource = "default"
)

// EnvResolver resolves ctxfetch settings from the process environment and
// a .env file. Process env wins over the file.
type EnvResolver struct {
	dir    string
	lookup func(string) (string, bool)
}

// NewEnvResolver creates an EnvResolver reading dir/.env.
func NewEnvResolver(dir string) *EnvResolver {
	return &EnvResolver{dir: dir, lookup: os.LookupEnv}
}

// Resolve builds the Environment. Missing values fall back to defaults.
func (r *EnvResolver) Resolve() Environment {
	// A missing or unreadable .env is not an error.
	dotenv, _ := godotenv.Read(filepath.Join(r.dir, envFileName))

	sources := make(map[string]EnvSource, 3)
	get := func(name, def string) string {
		if val, ok := r.lookup(name); ok && val != "" {
			sources[name] = EnvSourceProcess
			return val
		}
		if val, ok := dotenv[name]; ok && val != "" {
			sources[name] = EnvSourceDotenv
			return val
		}
		sources[name] = EnvSourceDefault
		return def
	}

	return Environment{
		ConfigSource: get(EnvConfigFile, DefaultConfigFn),
		Workdir:      get(EnvWorkdir, "."),
		GitHubToken:  strings.TrimSpace(get(EnvGitHubToken, "")),
		HTTPTimeout:  DefaultHTTPTimeout,
		Sources:      sources,
	}
}

// IsRemoteSource reports whether a config source is fetched over HTTP.
func IsRemoteSource(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
