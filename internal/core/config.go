package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// ErrReadOnlySource is returned when saving a config loaded from a URL.
var ErrReadOnlySource = errors.New("remote configuration is read-only")

// LoadOutcome tells whether Load returned the stored configuration or the
// empty default, and why.
type LoadOutcome string

const (
	OutcomeLoaded         LoadOutcome = "loaded"
	OutcomeMissing        LoadOutcome = "missing"
	OutcomeReadError      LoadOutcome = "read_error"
	OutcomeFetchError     LoadOutcome = "fetch_error"
	OutcomeParseError     LoadOutcome = "parse_error"
	OutcomeNoProjectTypes LoadOutcome = "no_project_types"
)

// LoadResult is the outcome of ConfigManager.Load. Config is never nil.
type LoadResult struct {
	Config  *Config
	Outcome LoadOutcome
	// Reason carries the underlying error text for defaulted outcomes.
	Reason string
}

// Defaulted reports whether Load fell back to the empty configuration.
func (r LoadResult) Defaulted() bool {
	return r.Outcome != OutcomeLoaded
}

// Fetcher downloads a remote document. *remote.Client satisfies it.
type Fetcher interface {
	GetBytes(ctx context.Context, rawURL string) ([]byte, error)
}

// ConfigManager handles reading and writing the ctxfetch configuration.
type ConfigManager struct {
	source  string
	fetcher Fetcher
	logger  *zap.Logger
	mu      sync.RWMutex
}

// NewConfigManager creates a ConfigManager for a local path or URL.
// fetcher is only used for URL sources and may be nil otherwise.
func NewConfigManager(source string, fetcher Fetcher, logger *zap.Logger) *ConfigManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigManager{source: source, fetcher: fetcher, logger: logger}
}

// Source returns the configured path or URL.
func (cm *ConfigManager) Source() string {
	return cm.source
}

// IsRemote reports whether the configuration is fetched over HTTP.
func (cm *ConfigManager) IsRemote() bool {
	return IsRemoteSource(cm.source)
}

// Load reads the configuration. It never fails: on any problem it returns
// the empty default and records why in the result.
func (cm *ConfigManager) Load(ctx context.Context) LoadResult {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	data, outcome, err := cm.read(ctx)
	if err != nil {
		return cm.defaulted(outcome, err)
	}

	cfg, err := parseConfig(data)
	if errors.Is(err, errNoProjectTypes) {
		return cm.defaulted(OutcomeNoProjectTypes, err)
	}
	if err != nil {
		return cm.defaulted(OutcomeParseError, err)
	}
	return LoadResult{Config: cfg, Outcome: OutcomeLoaded}
}

func (cm *ConfigManager) read(ctx context.Context) ([]byte, LoadOutcome, error) {
	if cm.IsRemote() {
		if cm.fetcher == nil {
			return nil, OutcomeFetchError, errors.New("no HTTP client configured")
		}
		data, err := cm.fetcher.GetBytes(ctx, cm.source)
		if err != nil {
			return nil, OutcomeFetchError, err
		}
		return data, OutcomeLoaded, nil
	}

	data, err := os.ReadFile(cm.source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, OutcomeMissing, err
		}
		return nil, OutcomeReadError, err
	}
	return data, OutcomeLoaded, nil
}

func (cm *ConfigManager) defaulted(outcome LoadOutcome, err error) LoadResult {
	if outcome == OutcomeMissing {
		cm.logger.Info("config file not found, using defaults", zap.String("source", cm.source))
	} else {
		cm.logger.Warn("failed to load config, using defaults",
			zap.String("source", cm.source),
			zap.String("outcome", string(outcome)),
			zap.Error(err))
	}
	return LoadResult{Config: defaultConfig(), Outcome: outcome, Reason: err.Error()}
}

// Save writes the config to disk atomically, creating the directory if
// needed. Remote sources cannot be saved.
func (cm *ConfigManager) Save(cfg *Config) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.IsRemote() {
		return ErrReadOnlySource
	}

	data, err := marshalConfig(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := writeFileAtomic(cm.source, data); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	cm.logger.Info("context configuration saved", zap.String("path", cm.source))
	return nil
}

// EnsureExists writes an empty configuration when the local file is
// missing. Remote sources are left alone.
func (cm *ConfigManager) EnsureExists() error {
	if cm.IsRemote() {
		return nil
	}
	if _, err := os.Stat(cm.source); err == nil || !os.IsNotExist(err) {
		return nil
	}
	if err := cm.Save(defaultConfig()); err != nil {
		return err
	}
	cm.logger.Info("created default context configuration", zap.String("path", cm.source))
	return nil
}

func defaultConfig() *Config {
	return &Config{}
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
