package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap/zaptest"

	"github.com/remotecontext/ctxfetch/internal/core"
)

const testConfig = `project_types:
  python:
    minimal:
      always_fetch:
        instructions:
          - https://docs.test/python.md
    full:
      active: true
      always_fetch:
        instructions:
          - https://docs.test/python.md
      conditional:
        has_django:
          prompts:
            - https://docs.test/django.md
  javascript:
    web: {}
`

type stubDownloader struct{}

func (stubDownloader) Get(_ context.Context, rawURL string) (string, error) {
	return "# " + rawURL, nil
}

func newTestTools(t *testing.T, config string) (map[string]Tool, string) {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "context_config.yaml")
	if config != "" {
		require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))
	}
	workdir := filepath.Join(dir, "work")
	require.NoError(t, os.MkdirAll(workdir, 0o755))

	logger := zaptest.NewLogger(t)
	svc := core.NewService(core.ServiceDeps{
		Env:      core.Environment{ConfigSource: configPath, Workdir: workdir},
		Configs:  core.NewConfigManager(configPath, nil, logger),
		Resolver: core.NewResolver(nil, logger),
		Fetcher:  core.NewContentFetcher(stubDownloader{}, logger),
		Logger:   logger,
	})

	tools := make(map[string]Tool)
	for _, tool := range Tools(svc, logger) {
		tools[tool.Definition().Name] = tool
	}
	return tools, workdir
}

func call(t *testing.T, tool Tool, args map[string]any) gjson.Result {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = tool.Definition().Name
	req.Params.Arguments = args

	res, err := tool.Handle(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	require.True(t, gjson.Valid(text.Text), "invalid JSON: %s", text.Text)
	return gjson.Parse(text.Text)
}

func TestTools_Names(t *testing.T) {
	tools, _ := newTestTools(t, testConfig)
	for _, name := range []string{
		"get_workspace_context",
		"fetch_and_setup_copilot_files",
		"list_context_config",
		"set_active_profile",
		"get_available_profiles",
	} {
		assert.Contains(t, tools, name)
	}
	assert.Len(t, tools, 5)
}

func TestNew_RegistersTools(t *testing.T) {
	s := New(nil, "test", zaptest.NewLogger(t))
	require.NotNil(t, s)

	resp := s.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	out := gjson.ParseBytes(data)
	require.False(t, out.Get("error").Exists(), "tools/list failed: %s", data)
	var names []string
	for _, name := range out.Get("result.tools.#.name").Array() {
		names = append(names, name.String())
	}
	assert.ElementsMatch(t, []string{
		"get_workspace_context",
		"fetch_and_setup_copilot_files",
		"list_context_config",
		"set_active_profile",
		"get_available_profiles",
	}, names)
}

func TestListContextConfig(t *testing.T) {
	tools, _ := newTestTools(t, testConfig)

	out := call(t, tools["list_context_config"], nil)
	assert.Equal(t, "loaded", out.Get("load_outcome").String())
	assert.False(t, out.Get("load_reason").Exists())

	var types []string
	out.Get("project_types").ForEach(func(key, _ gjson.Result) bool {
		types = append(types, key.String())
		return true
	})
	assert.Equal(t, []string{"python", "javascript"}, types)
	assert.True(t, out.Get("project_types.python.full.active").Bool())
	assert.Equal(t, "https://docs.test/django.md",
		out.Get("project_types.python.full.conditional.has_django.prompts.0").String())
}

func TestListContextConfig_Missing(t *testing.T) {
	tools, _ := newTestTools(t, "")

	out := call(t, tools["list_context_config"], nil)
	assert.Equal(t, "missing", out.Get("load_outcome").String())
	assert.NotEmpty(t, out.Get("load_reason").String())
	assert.True(t, out.Get("project_types").IsObject())
}

func TestGetAvailableProfiles(t *testing.T) {
	tools, _ := newTestTools(t, testConfig)

	out := call(t, tools["get_available_profiles"], map[string]any{"project_type": "python"})
	assert.True(t, out.Get("success").Bool())
	assert.Equal(t, "python", out.Get("project_type").String())

	var names []string
	out.Get("profiles").ForEach(func(key, _ gjson.Result) bool {
		names = append(names, key.String())
		return true
	})
	assert.Equal(t, []string{"minimal", "full"}, names)

	full := out.Get("profiles.full")
	assert.True(t, full.Get("active").Bool())
	assert.True(t, full.Get("has_always_fetch").Bool())
	assert.True(t, full.Get("has_conditional").Bool())
	assert.Equal(t, ".github/full/prompts", full.Get("directories.prompts").String())
	assert.False(t, out.Get("profiles.minimal.has_conditional").Bool())
}

func TestGetAvailableProfiles_Unknown(t *testing.T) {
	tools, _ := newTestTools(t, testConfig)

	out := call(t, tools["get_available_profiles"], map[string]any{"project_type": "cobol"})
	assert.True(t, out.Get("success").Exists())
	assert.False(t, out.Get("success").Bool())
	assert.Contains(t, out.Get("error").String(), "cobol")
}

func TestSetActiveProfile(t *testing.T) {
	tools, _ := newTestTools(t, testConfig)

	out := call(t, tools["set_active_profile"], map[string]any{
		"project_type": "python",
		"profile_name": "minimal",
	})
	assert.True(t, out.Get("success").Bool(), out.Raw)
	assert.Equal(t, "minimal", out.Get("active_profile.name").String())
	assert.Equal(t, "python", out.Get("active_profile.project_type").String())
	assert.Equal(t, ".github/minimal/instructions", out.Get("active_profile.directories.instructions").String())
	assert.True(t, out.Get("config_saved").Bool())

	profiles := call(t, tools["get_available_profiles"], map[string]any{"project_type": "python"})
	assert.True(t, profiles.Get("profiles.minimal.active").Bool())
	assert.False(t, profiles.Get("profiles.full.active").Bool())
}

func TestSetActiveProfile_Unknown(t *testing.T) {
	tools, _ := newTestTools(t, testConfig)

	out := call(t, tools["set_active_profile"], map[string]any{
		"project_type": "python",
		"profile_name": "huge",
	})
	assert.False(t, out.Get("success").Bool())
	assert.Equal(t,
		"Profile 'huge' not found for project type 'python'. Available profiles: [minimal, full]",
		out.Get("error").String())

	profiles := call(t, tools["get_available_profiles"], map[string]any{"project_type": "python"})
	assert.True(t, profiles.Get("profiles.full.active").Bool())
}

func TestFetch_NotAGitRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	tools, workdir := newTestTools(t, testConfig)

	out := call(t, tools["fetch_and_setup_copilot_files"], map[string]any{"workspace_dir": workdir})
	assert.False(t, out.Get("success").Bool())
	assert.Equal(t, notGitRepoMessage, out.Get("error").String())

	_, err := os.Stat(filepath.Join(workdir, ".github"))
	assert.True(t, os.IsNotExist(err))
}

func TestGetWorkspaceContext(t *testing.T) {
	tools, workdir := newTestTools(t, testConfig)
	require.NoError(t, os.WriteFile(filepath.Join(workdir, "requirements.txt"), []byte("django\n"), 0o644))

	out := call(t, tools["get_workspace_context"], map[string]any{
		"workspace_path":   workdir,
		"include_git_info": false,
	})
	assert.Equal(t, `["python"]`, out.Get("project_types").Raw)
	assert.True(t, out.Get("detected_conditions.has_django").Bool())
	assert.False(t, out.Get("git_info").Exists())
	assert.True(t, out.Get(`key_files.requirements\.txt.exists`).Bool())
	assert.Equal(t, "Fetch context for python project", out.Get("suggested_actions.0").String())
}

func TestGetWorkspaceContext_BadPath(t *testing.T) {
	tools, workdir := newTestTools(t, testConfig)

	out := call(t, tools["get_workspace_context"], map[string]any{
		"workspace_path": filepath.Join(workdir, "missing"),
	})
	assert.NotEmpty(t, out.Get("error").String())
	assert.False(t, out.Get("success").Exists())
}
