package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// IdleCloser releases pooled network resources between operations.
type IdleCloser interface {
	CloseIdleConnections()
}

// ServiceDeps wires a Service.
type ServiceDeps struct {
	Env      Environment
	Configs  *ConfigManager
	Resolver *Resolver
	Fetcher  *ContentFetcher
	// Idle is called after every operation. May be nil.
	Idle   IdleCloser
	Logger *zap.Logger
}

// Service implements the ctxfetch operations. Every method is safe to call
// from a tool handler: failures come back as errors or as fields of the
// result, never as panics.
type Service struct {
	env      Environment
	configs  *ConfigManager
	resolver *Resolver
	fetcher  *ContentFetcher
	idle     IdleCloser
	logger   *zap.Logger
}

// NewService creates a Service.
func NewService(d ServiceDeps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		env:      d.Env,
		configs:  d.Configs,
		resolver: d.Resolver,
		fetcher:  d.Fetcher,
		idle:     d.Idle,
		logger:   logger,
	}
}

func (s *Service) release() {
	if s.idle != nil {
		s.idle.CloseIdleConnections()
	}
}

// Configs exposes the configuration store.
func (s *Service) Configs() *ConfigManager {
	return s.configs
}

func (s *Service) workspace(dir string) (string, error) {
	if dir == "" {
		dir = s.env.Workdir
	}
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving workspace %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("workspace %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("workspace %s is not a directory", abs)
	}
	return abs, nil
}

// --- get_workspace_context ---

// WorkspaceRequest are the inputs of WorkspaceContext.
type WorkspaceRequest struct {
	Path         string
	IncludeGit   bool
	IncludeFiles bool
}

// KeyFile summarizes a manifest found at the workspace root.
type KeyFile struct {
	Exists bool   `json:"exists"`
	Size   int    `json:"size,omitempty"`
	Lines  int    `json:"lines,omitempty"`
	Error  string `json:"error,omitempty"`
}

// WorkspaceContext describes a workspace for use by other tools.
type WorkspaceContext struct {
	WorkspacePath      string             `json:"workspace_path"`
	ProjectTypes       []string           `json:"project_types"`
	DetectedConditions Conditions         `json:"detected_conditions"`
	DetectionWarnings  []string           `json:"detection_warnings,omitempty"`
	GitInfo            *GitInfo           `json:"git_info,omitempty"`
	KeyFiles           map[string]KeyFile `json:"key_files,omitempty"`
	SuggestedActions   []string           `json:"suggested_actions"`
}

var keyFileNames = []string{
	"package.json", "requirements.txt", "pyproject.toml",
	"Cargo.toml", "go.mod", "tsconfig.json",
}

// WorkspaceContext detects project types, conditions and, optionally, git
// and manifest details of a workspace.
func (s *Service) WorkspaceContext(ctx context.Context, req WorkspaceRequest) (*WorkspaceContext, error) {
	dir, err := s.workspace(req.Path)
	if err != nil {
		return nil, err
	}

	conds, warnings := DetectConditions(dir)
	for _, w := range warnings {
		s.logger.Warn("error detecting frameworks", zap.String("detail", w))
	}
	wc := &WorkspaceContext{
		WorkspacePath:      dir,
		ProjectTypes:       DetectProjectTypes(dir),
		DetectedConditions: conds,
		DetectionWarnings:  warnings,
	}

	if req.IncludeGit {
		info := AnalyzeGit(ctx, dir)
		wc.GitInfo = &info
	}
	if req.IncludeFiles {
		wc.KeyFiles = analyzeKeyFiles(dir)
	}

	for _, pt := range wc.ProjectTypes {
		wc.SuggestedActions = append(wc.SuggestedActions, fmt.Sprintf("Fetch context for %s project", pt))
	}
	if conds["has_react"] {
		wc.SuggestedActions = append(wc.SuggestedActions, "Consider fetching React-specific docs")
	}
	if conds["has_django"] {
		wc.SuggestedActions = append(wc.SuggestedActions, "Consider fetching Django-specific docs")
	}
	return wc, nil
}

func analyzeKeyFiles(dir string) map[string]KeyFile {
	files := make(map[string]KeyFile)
	for _, name := range keyFileNames {
		p := filepath.Join(dir, name)
		if !fileExists(p) {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			files[name] = KeyFile{Exists: true, Error: "Could not read file"}
			continue
		}
		files[name] = KeyFile{
			Exists: true,
			Size:   len([]rune(string(data))),
			Lines:  countLines(string(data)),
		}
	}
	return files
}

// countLines counts lines the way an editor shows them: a trailing newline
// does not start a new line.
func countLines(s string) int {
	n := strings.Count(s, "\n")
	if s != "" && !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// --- fetch_and_setup_copilot_files ---

// FetchRequest are the inputs of FetchAndSetup. Explicit URL lists take
// precedence over configured ones for their category.
type FetchRequest struct {
	WorkspaceDir     string
	InstructionsURLs []string
	ChatmodesURLs    []string
	PromptsURLs      []string
	AutoDetect       bool
	// ProfileName selects a profile by name instead of the active one.
	ProfileName string
}

// FetchResponse is the outcome of FetchAndSetup.
type FetchResponse struct {
	RepoRoot        string          `json:"repo_root"`
	Results         *FetchResults   `json:"results"`
	Profile         ResolvedProfile `json:"active_profile"`
	SettingsUpdated bool            `json:"settings_updated"`
	SettingsError   string          `json:"settings_error,omitempty"`
	ConfigOutcome   LoadOutcome     `json:"config_outcome"`
}

// FetchAndSetup fetches instructions, chat modes and prompts into the
// profile directories of the repository containing the workspace and
// registers all profile directories in the editor settings.
//
// It fails before touching the disk when the workspace is not in a git
// repository or a named profile does not exist.
func (s *Service) FetchAndSetup(ctx context.Context, req FetchRequest) (*FetchResponse, error) {
	defer s.release()

	dir, err := s.workspace(req.WorkspaceDir)
	if err != nil {
		return nil, err
	}
	root, err := GitRoot(ctx, dir)
	if err != nil {
		return nil, err
	}

	loaded := s.configs.Load(ctx)
	cfg := loaded.Config
	results := NewFetchResults()
	urls := map[ContextType][]string{
		ContextInstructions: req.InstructionsURLs,
		ContextChatmodes:    req.ChatmodesURLs,
		ContextPrompts:      req.PromptsURLs,
	}

	var profile ResolvedProfile
	if req.AutoDetect {
		types := DetectProjectTypes(dir)
		conds, warnings := DetectConditions(dir)
		for _, w := range warnings {
			s.logger.Warn("error detecting frameworks", zap.String("detail", w))
		}
		results.ProjectInfo = &ProjectInfo{ProjectTypes: types, Conditions: conds}

		if req.ProfileName != "" {
			profile, err = namedProfile(cfg, types, req.ProfileName)
			if err != nil {
				return nil, err
			}
		} else {
			profile = ActiveProfile(cfg, types[0])
		}

		for _, ct := range ContextTypes {
			if len(urls[ct]) == 0 {
				urls[ct] = s.resolver.ContextURLs(ctx, cfg, types, conds, ct, req.ProfileName)
			}
		}
	} else {
		name := req.ProfileName
		if name == "" {
			name = DefaultProfileName
		}
		profile = resolve(GenericProjectType, Profile{Name: name})
	}

	s.logger.Info("fetching context files",
		zap.String("repo_root", root),
		zap.String("profile", profile.Name),
		zap.String("project_type", profile.ProjectType),
		zap.Int("instructions", len(urls[ContextInstructions])),
		zap.Int("chatmodes", len(urls[ContextChatmodes])),
		zap.Int("prompts", len(urls[ContextPrompts])))

	for _, ct := range ContextTypes {
		d := filepath.Join(root, filepath.FromSlash(profile.Directories.For(ct)))
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	s.fetcher.FetchAll(ctx, FetchPlan{Root: root, Directories: profile.Directories, URLs: urls}, results)

	resp := &FetchResponse{
		RepoRoot:      root,
		Results:       results,
		Profile:       profile,
		ConfigOutcome: loaded.Outcome,
	}
	settingsPath := filepath.Join(root, SettingsRelPath)
	if err := UpdateSettings(settingsPath, FetchLocations(cfg, profile)); err != nil {
		s.logger.Warn("failed to update editor settings", zap.String("path", settingsPath), zap.Error(err))
		resp.SettingsError = err.Error()
	} else {
		resp.SettingsUpdated = true
	}
	return resp, nil
}

// namedProfile resolves profileName for the first detected project type
// that declares it.
func namedProfile(cfg *Config, types []string, profileName string) (ResolvedProfile, error) {
	for _, t := range types {
		pt, ok := cfg.FindProjectType(t)
		if !ok {
			continue
		}
		if p, ok := pt.FindProfile(profileName); ok {
			return resolve(t, *p), nil
		}
	}
	return ResolvedProfile{}, &NotFoundError{
		Kind:        "profile",
		Name:        profileName,
		ProjectType: types[0],
		Available:   ProfileNames(cfg, types[0]),
	}
}

// --- list_context_config ---

// ListConfig returns the current configuration and how it was loaded.
func (s *Service) ListConfig(ctx context.Context) LoadResult {
	defer s.release()
	return s.configs.Load(ctx)
}

// --- set_active_profile ---

// SetActiveResponse is the outcome of SetActiveProfile.
type SetActiveResponse struct {
	Profile         ResolvedProfile `json:"active_profile"`
	ConfigSaved     bool            `json:"config_saved"`
	SettingsUpdated bool            `json:"settings_updated"`
}

// SetActiveProfile makes profileName the only active profile of
// projectType, saves the configuration and refreshes the editor settings
// of the working directory's repository. An unknown project type or
// profile returns a *NotFoundError and changes nothing. Save and settings
// failures are logged and reported in the response.
func (s *Service) SetActiveProfile(ctx context.Context, projectType, profileName string) (*SetActiveResponse, error) {
	defer s.release()

	loaded := s.configs.Load(ctx)
	next, err := WithActiveProfile(loaded.Config, projectType, profileName)
	if err != nil {
		return nil, err
	}

	resp := &SetActiveResponse{Profile: ActiveProfile(next, projectType)}
	if err := s.configs.Save(next); err != nil {
		s.logger.Error("failed to save config", zap.String("source", s.configs.Source()), zap.Error(err))
	} else {
		resp.ConfigSaved = true
	}

	root, err := s.settingsRoot(ctx)
	if err != nil {
		s.logger.Warn("failed to update editor settings", zap.Error(err))
		return resp, nil
	}
	settingsPath := filepath.Join(root, SettingsRelPath)
	if err := UpdateSettings(settingsPath, ActiveLocations(next)); err != nil {
		s.logger.Warn("failed to update editor settings", zap.String("path", settingsPath), zap.Error(err))
		return resp, nil
	}
	resp.SettingsUpdated = true
	return resp, nil
}

// settingsRoot is the repository containing the working directory, or the
// working directory itself outside a repository.
func (s *Service) settingsRoot(ctx context.Context) (string, error) {
	dir, err := s.workspace("")
	if err != nil {
		return "", err
	}
	root, err := GitRoot(ctx, dir)
	if errors.Is(err, ErrNotGitRepo) {
		return dir, nil
	}
	return root, err
}

// --- get_available_profiles ---

// ProfileInfo summarizes one profile of a project type.
type ProfileInfo struct {
	Name           string      `json:"-"`
	Active         bool        `json:"active"`
	Directories    Directories `json:"directories"`
	HasAlwaysFetch bool        `json:"has_always_fetch"`
	HasConditional bool        `json:"has_conditional"`
}

// AvailableProfiles lists the profiles of a configured project type in
// declaration order.
func (s *Service) AvailableProfiles(ctx context.Context, projectType string) ([]ProfileInfo, error) {
	defer s.release()

	cfg := s.configs.Load(ctx).Config
	pt, ok := cfg.FindProjectType(projectType)
	if !ok {
		return nil, &NotFoundError{Kind: "project type", Name: projectType}
	}

	infos := make([]ProfileInfo, 0, len(pt.Profiles))
	for _, p := range pt.Profiles {
		infos = append(infos, ProfileInfo{
			Name:           p.Name,
			Active:         p.Spec.Active,
			Directories:    DirectoriesFor(p.Name),
			HasAlwaysFetch: len(p.Spec.AlwaysFetch) > 0,
			HasConditional: len(p.Spec.Conditional) > 0,
		})
	}
	return infos, nil
}

// Preview downloads a single URL and returns its content without saving.
func (s *Service) Preview(ctx context.Context, rawURL string) (string, error) {
	defer s.release()
	return s.fetcher.FetchOne(ctx, rawURL, "", ContextInstructions)
}
