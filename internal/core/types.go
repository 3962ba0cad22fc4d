// Package core provides the business logic for ctxfetch.
// It has zero UI dependencies and is independently testable.
package core

// ContextType is a category of fetched content. Each category is stored in
// its own directory and registered under its own editor setting.
type ContextType string

const (
	ContextInstructions ContextType = "instructions"
	ContextChatmodes    ContextType = "chatmodes"
	ContextPrompts      ContextType = "prompts"
)

// ContextTypes lists every context type in processing order.
var ContextTypes = []ContextType{ContextInstructions, ContextChatmodes, ContextPrompts}

// DefaultProfileName is used when a project type has no configured profiles.
const DefaultProfileName = "default"

// GenericProjectType is the label used when no marker file matches.
const GenericProjectType = "generic"

// Config is the ctxfetch configuration, usually stored in context_config.yaml.
// Project types and their profiles keep the order they were declared in.
type Config struct {
	ProjectTypes []ProjectType
}

// ProjectType groups the named profiles configured for one project label.
type ProjectType struct {
	Name     string
	Profiles []Profile
}

// Profile is a named, selectable bundle of fetch rules.
type Profile struct {
	Name string
	Spec ProfileSpec
}

// ProfileSpec holds the fetch rules of a profile.
type ProfileSpec struct {
	Active      bool                  `yaml:"active" json:"active"`
	AlwaysFetch ContextMap            `yaml:"always_fetch,omitempty" json:"always_fetch,omitempty"`
	Conditional map[string]ContextMap `yaml:"conditional,omitempty" json:"conditional,omitempty"`
}

// ContextMap maps a context type to the items fetched for it.
type ContextMap map[ContextType][]FetchItem

// FetchItem is either a literal URL or a reference to files in a GitHub
// repository. Exactly one of URL and Repo is set.
type FetchItem struct {
	URL    string
	Repo   string
	Branch string
	Paths  []string
}

// Directories holds the repo-relative output directory per context type.
type Directories struct {
	Instructions string `json:"instructions"`
	Chatmodes    string `json:"chatmodes"`
	Prompts      string `json:"prompts"`
}

// For returns the directory for a context type.
func (d Directories) For(ct ContextType) string {
	switch ct {
	case ContextInstructions:
		return d.Instructions
	case ContextChatmodes:
		return d.Chatmodes
	case ContextPrompts:
		return d.Prompts
	}
	return ""
}

// ResolvedProfile is a profile selected for a project type together with
// its derived output directories. It is never persisted.
type ResolvedProfile struct {
	Name        string      `json:"name"`
	ProjectType string      `json:"project_type"`
	Spec        ProfileSpec `json:"-"`
	Directories Directories `json:"directories"`
}

// Conditions maps a condition name (e.g. "has_react") to whether it holds.
type Conditions map[string]bool

// FetchResults enumerates the outcome of a fetch run. Every attempted URL
// ends up either as a saved path in its category or in FailedURLs.
type FetchResults struct {
	Instructions []string     `json:"instructions"`
	Chatmodes    []string     `json:"chatmodes"`
	Prompts      []string     `json:"prompts"`
	FailedURLs   []string     `json:"failed_urls"`
	Overwritten  []string     `json:"overwritten,omitempty"`
	ProjectInfo  *ProjectInfo `json:"project_info,omitempty"`
}

// ProjectInfo records what auto-detection found.
type ProjectInfo struct {
	ProjectTypes []string   `json:"project_types"`
	Conditions   Conditions `json:"conditions"`
}

func (r *FetchResults) add(ct ContextType, path string) {
	switch ct {
	case ContextInstructions:
		r.Instructions = append(r.Instructions, path)
	case ContextChatmodes:
		r.Chatmodes = append(r.Chatmodes, path)
	case ContextPrompts:
		r.Prompts = append(r.Prompts, path)
	}
}

// GitInfo describes the version-control state of a workspace.
type GitInfo struct {
	IsGitRepo     bool        `json:"is_git_repo"`
	OriginURL     string      `json:"origin_url,omitempty"`
	CurrentBranch string      `json:"current_branch,omitempty"`
	RecentCommits []GitCommit `json:"recent_commits,omitempty"`
}

// GitCommit is a single entry of the recent history.
type GitCommit struct {
	Hash    string `json:"hash"`
	Message string `json:"message"`
	Author  string `json:"author"`
	Date    string `json:"date"`
}
