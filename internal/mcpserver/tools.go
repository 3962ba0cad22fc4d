package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/remotecontext/ctxfetch/internal/core"
)

// --- get_workspace_context ---

type workspaceContextTool struct {
	svc    *core.Service
	logger *zap.Logger
}

func (t *workspaceContextTool) Definition() mcp.Tool {
	return mcp.NewTool("get_workspace_context",
		mcp.WithDescription("Get context about a workspace (project types, detected frameworks, "+
			"git state, key manifest files) for use as input to other tools."),
		mcp.WithString("workspace_path",
			mcp.Description("Path to the workspace. Defaults to the server working directory."),
		),
		mcp.WithBoolean("include_git_info",
			mcp.Description("Include git repository information."),
			mcp.DefaultBool(true),
		),
		mcp.WithBoolean("include_file_analysis",
			mcp.Description("Include size and line counts of key project files."),
			mcp.DefaultBool(true),
		),
	)
}

func (t *workspaceContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wc, err := t.svc.WorkspaceContext(ctx, core.WorkspaceRequest{
		Path:         req.GetString("workspace_path", ""),
		IncludeGit:   req.GetBool("include_git_info", true),
		IncludeFiles: req.GetBool("include_file_analysis", true),
	})
	if err != nil {
		return errorResult(t.logger, "error getting workspace context", err), nil
	}
	data, err := json.Marshal(wc)
	if err != nil {
		return errorResult(t.logger, "error getting workspace context", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// --- fetch_and_setup_copilot_files ---

type fetchTool struct {
	svc    *core.Service
	logger *zap.Logger
}

func (t *fetchTool) Definition() mcp.Tool {
	urls := func(name, what string) mcp.ToolOption {
		return mcp.WithArray(name,
			mcp.Description(fmt.Sprintf("URLs to fetch %s files from. Overrides the configured ones.", what)),
			mcp.Items(map[string]any{"type": "string"}),
		)
	}
	return mcp.NewTool("fetch_and_setup_copilot_files",
		mcp.WithDescription("Fetch remote instructions, chat modes and prompts into the profile "+
			"directories of the workspace repository and register them in the VS Code settings."),
		mcp.WithString("workspace_dir",
			mcp.Description("Workspace path inside a git repository. Defaults to the working directory."),
		),
		urls("instructions_urls", "instruction"),
		urls("chatmodes_urls", "chat mode"),
		urls("prompts_urls", "prompt"),
		mcp.WithBoolean("auto_detect",
			mcp.Description("Detect the project type and fetch what the configuration lists for it."),
			mcp.DefaultBool(true),
		),
		mcp.WithString("profile_name",
			mcp.Description("Use this profile instead of the active one."),
		),
	)
}

func (t *fetchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := t.svc.FetchAndSetup(ctx, core.FetchRequest{
		WorkspaceDir:     req.GetString("workspace_dir", ""),
		InstructionsURLs: req.GetStringSlice("instructions_urls", nil),
		ChatmodesURLs:    req.GetStringSlice("chatmodes_urls", nil),
		PromptsURLs:      req.GetStringSlice("prompts_urls", nil),
		AutoDetect:       req.GetBool("auto_detect", true),
		ProfileName:      req.GetString("profile_name", ""),
	})
	if err != nil {
		return failureResult(t.logger, "error fetching and setting up files", failureMessage(err)), nil
	}

	fields := []field{
		{"success", true},
		{"message", "Successfully fetched and configured Copilot files"},
		{"repo_root", resp.RepoRoot},
		{"results", resp.Results},
		{"active_profile", resp.Profile},
		{"settings_updated", resp.SettingsUpdated},
	}
	if resp.SettingsError != "" {
		fields = append(fields, field{"settings_error", resp.SettingsError})
	}
	fields = append(fields, field{"config_outcome", resp.ConfigOutcome})
	return objectResult(t.logger, fields...), nil
}

// --- list_context_config ---

type listConfigTool struct {
	svc    *core.Service
	logger *zap.Logger
}

func (t *listConfigTool) Definition() mcp.Tool {
	return mcp.NewTool("list_context_config",
		mcp.WithDescription("List the context configuration: every project type with its "+
			"profiles and fetch rules, in declaration order."),
	)
}

func (t *listConfigTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := t.svc.ListConfig(ctx)
	data, err := res.Config.MarshalJSON()
	if err == nil {
		data, err = sjson.SetBytes(data, "load_outcome", res.Outcome)
	}
	if err == nil && res.Reason != "" {
		data, err = sjson.SetBytes(data, "load_reason", res.Reason)
	}
	if err != nil {
		return errorResult(t.logger, "error listing context config", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// --- set_active_profile ---

type setActiveProfileTool struct {
	svc    *core.Service
	logger *zap.Logger
}

func (t *setActiveProfileTool) Definition() mcp.Tool {
	return mcp.NewTool("set_active_profile",
		mcp.WithDescription("Make a profile the active one for a project type, save the "+
			"configuration and update the VS Code settings."),
		mcp.WithString("project_type",
			mcp.Required(),
			mcp.Description("Project type, e.g. python or javascript."),
		),
		mcp.WithString("profile_name",
			mcp.Required(),
			mcp.Description("Name of the profile to activate."),
		),
	)
}

func (t *setActiveProfileTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectType := req.GetString("project_type", "")
	profileName := req.GetString("profile_name", "")

	resp, err := t.svc.SetActiveProfile(ctx, projectType, profileName)
	if err != nil {
		return resultFor(t.logger, "error setting active profile", err), nil
	}
	return objectResult(t.logger,
		field{"success", true},
		field{"message", fmt.Sprintf("Profile '%s' activated for project type '%s'", profileName, projectType)},
		field{"active_profile", resp.Profile},
		field{"config_saved", resp.ConfigSaved},
		field{"settings_updated", resp.SettingsUpdated},
	), nil
}

// --- get_available_profiles ---

type availableProfilesTool struct {
	svc    *core.Service
	logger *zap.Logger
}

func (t *availableProfilesTool) Definition() mcp.Tool {
	return mcp.NewTool("get_available_profiles",
		mcp.WithDescription("List the profiles configured for a project type."),
		mcp.WithString("project_type",
			mcp.Required(),
			mcp.Description("Project type, e.g. python or javascript."),
		),
	)
}

func (t *availableProfilesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectType := req.GetString("project_type", "")

	infos, err := t.svc.AvailableProfiles(ctx, projectType)
	if err != nil {
		return resultFor(t.logger, "error getting available profiles", err), nil
	}

	fields := make([]field, 0, len(infos))
	for _, info := range infos {
		fields = append(fields, field{info.Name, info})
	}
	profiles, err := object(fields...)
	if err != nil {
		return errorResult(t.logger, "error getting available profiles", err), nil
	}
	return objectResult(t.logger,
		field{"success", true},
		field{"project_type", projectType},
		field{"profiles", json.RawMessage(profiles)},
	), nil
}
