package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/remotecontext/ctxfetch/internal/core"
	"github.com/remotecontext/ctxfetch/internal/remote"
)

// deps holds shared dependencies for CLI commands.
type deps struct {
	env     core.Environment
	client  *remote.Client
	configs *core.ConfigManager
	service *core.Service
}

// newDeps creates shared dependencies. Called lazily by commands that need them.
// Flags win over the process environment, which wins over ./.env.
func newDeps() (*deps, error) {
	if timeoutFlag < 0 {
		return nil, fmt.Errorf("invalid --http-timeout %s", timeoutFlag)
	}

	env := core.NewEnvResolver(".").Resolve()
	if configFlag != "" {
		env.ConfigSource = configFlag
		env.Sources[core.EnvConfigFile] = core.EnvSourceFlag
	}
	if workdirFlag != "" {
		env.Workdir = workdirFlag
		env.Sources[core.EnvWorkdir] = core.EnvSourceFlag
	}
	if timeoutFlag > 0 {
		env.HTTPTimeout = timeoutFlag
	}
	logger.Debug("environment resolved",
		zap.String("config", env.ConfigSource),
		zap.String("config_from", string(env.Sources[core.EnvConfigFile])),
		zap.String("workdir", env.Workdir),
		zap.String("workdir_from", string(env.Sources[core.EnvWorkdir])),
		zap.Bool("github_token", env.GitHubToken != ""),
		zap.String("github_token_from", string(env.Sources[core.EnvGitHubToken])),
		zap.Duration("http_timeout", env.HTTPTimeout))

	client := remote.NewClient(remote.Options{
		Token:   env.GitHubToken,
		Timeout: env.HTTPTimeout,
		Logger:  logger.Named("http"),
	})
	configs := core.NewConfigManager(env.ConfigSource, client, logger.Named("config"))

	service := core.NewService(core.ServiceDeps{
		Env:      env,
		Configs:  configs,
		Resolver: core.NewResolver(remote.NewGitHub(client), logger.Named("resolver")),
		Fetcher:  core.NewContentFetcher(client, logger.Named("fetcher")),
		Idle:     client,
		Logger:   logger,
	})

	return &deps{
		env:     env,
		client:  client,
		configs: configs,
		service: service,
	}, nil
}
