package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"
)

const projectTypesKey = "project_types"

const (
	defaultBranch      = "main"
	defaultPathPattern = "*.md"
)

// errNoProjectTypes is returned by parseConfig when the document has no
// top-level project_types key.
var errNoProjectTypes = fmt.Errorf("no top-level %q key", projectTypesKey)

// parseConfig decodes a YAML configuration document. Mapping order in the
// document becomes slice order in the result.
func parseConfig(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, errNoProjectTypes
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != projectTypesKey {
			continue
		}
		types, err := decodeProjectTypes(root.Content[i+1])
		if err != nil {
			return nil, err
		}
		return &Config{ProjectTypes: types}, nil
	}
	return nil, errNoProjectTypes
}

func decodeProjectTypes(node *yaml.Node) ([]ProjectType, error) {
	if isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: %s must be a mapping", node.Line, projectTypesKey)
	}

	var types []ProjectType
	seen := make(map[string]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if seen[name] {
			return nil, fmt.Errorf("line %d: duplicate project type %q", node.Content[i].Line, name)
		}
		seen[name] = true

		profiles, err := decodeProfiles(name, node.Content[i+1])
		if err != nil {
			return nil, err
		}
		types = append(types, ProjectType{Name: name, Profiles: profiles})
	}
	return types, nil
}

func decodeProfiles(projectType string, node *yaml.Node) ([]Profile, error) {
	if isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: profiles of %q must be a mapping", node.Line, projectType)
	}

	var profiles []Profile
	seen := make(map[string]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if seen[name] {
			return nil, fmt.Errorf("line %d: duplicate profile %q in %q", node.Content[i].Line, name, projectType)
		}
		seen[name] = true

		var spec ProfileSpec
		if !isNull(node.Content[i+1]) {
			if err := node.Content[i+1].Decode(&spec); err != nil {
				return nil, fmt.Errorf("profile %s/%s: %w", projectType, name, err)
			}
		}
		profiles = append(profiles, Profile{Name: name, Spec: spec})
	}
	return profiles, nil
}

func isNull(node *yaml.Node) bool {
	return node == nil || (node.Kind == yaml.ScalarNode && node.Tag == "!!null")
}

// marshalConfig renders the configuration as YAML, keeping declaration order.
func marshalConfig(cfg *Config) ([]byte, error) {
	types := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, pt := range cfg.ProjectTypes {
		profiles := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, p := range pt.Profiles {
			var spec yaml.Node
			if err := spec.Encode(p.Spec); err != nil {
				return nil, fmt.Errorf("encoding profile %s/%s: %w", pt.Name, p.Name, err)
			}
			profiles.Content = append(profiles.Content, strNode(p.Name), &spec)
		}
		types.Content = append(types.Content, strNode(pt.Name), profiles)
	}

	doc := &yaml.Node{
		Kind:    yaml.MappingNode,
		Tag:     "!!map",
		Content: []*yaml.Node{strNode(projectTypesKey), types},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func strNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// UnmarshalYAML accepts either a plain URL string or a mapping with
// repo, branch and paths.
func (f *FetchItem) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if strings.TrimSpace(node.Value) == "" {
			return fmt.Errorf("line %d: empty fetch item", node.Line)
		}
		*f = FetchItem{URL: node.Value}
		return nil
	case yaml.MappingNode:
		var raw repoItem
		if err := node.Decode(&raw); err != nil {
			return err
		}
		if raw.Repo == "" {
			return fmt.Errorf("line %d: fetch item needs a url or a repo", node.Line)
		}
		*f = raw.item()
		return nil
	default:
		return fmt.Errorf("line %d: fetch item must be a string or a mapping", node.Line)
	}
}

// MarshalYAML writes literal URLs back as plain strings.
func (f FetchItem) MarshalYAML() (interface{}, error) {
	if f.URL != "" {
		return f.URL, nil
	}
	return repoItem{Repo: f.Repo, Branch: f.Branch, Paths: f.Paths}, nil
}

// MarshalJSON mirrors MarshalYAML.
func (f FetchItem) MarshalJSON() ([]byte, error) {
	if f.URL != "" {
		return json.Marshal(f.URL)
	}
	return json.Marshal(repoItem{Repo: f.Repo, Branch: f.Branch, Paths: f.Paths})
}

type repoItem struct {
	Repo   string   `yaml:"repo" json:"repo"`
	Branch string   `yaml:"branch,omitempty" json:"branch,omitempty"`
	Paths  []string `yaml:"paths,omitempty" json:"paths,omitempty"`
}

// item fills in the defaults for branch and paths.
func (r repoItem) item() FetchItem {
	it := FetchItem{Repo: r.Repo, Branch: r.Branch, Paths: r.Paths}
	if it.Branch == "" {
		it.Branch = defaultBranch
	}
	if len(it.Paths) == 0 {
		it.Paths = []string{defaultPathPattern}
	}
	return it
}

// MarshalJSON renders the configuration in the same shape as the YAML
// file, keeping declaration order of project types and profiles.
func (c *Config) MarshalJSON() ([]byte, error) {
	types := "{}"
	for _, pt := range c.ProjectTypes {
		profiles := "{}"
		for _, p := range pt.Profiles {
			spec, err := json.Marshal(p.Spec)
			if err != nil {
				return nil, fmt.Errorf("encoding profile %s/%s: %w", pt.Name, p.Name, err)
			}
			if profiles, err = sjson.SetRaw(profiles, EscapeJSONKey(p.Name), string(spec)); err != nil {
				return nil, err
			}
		}
		var err error
		if types, err = sjson.SetRaw(types, EscapeJSONKey(pt.Name), profiles); err != nil {
			return nil, err
		}
	}
	out, err := sjson.SetRaw("{}", projectTypesKey, types)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// EscapeJSONKey escapes a key for use with gjson/sjson path syntax.
func EscapeJSONKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', ':', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
