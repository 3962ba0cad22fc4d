package core

import (
	"fmt"
	"path"
	"strings"
)

// NotFoundError is returned when a project type or profile is not in the
// configuration.
type NotFoundError struct {
	Kind        string // "project type" or "profile"
	Name        string
	ProjectType string   // set for profiles
	Available   []string // profile names, set for profiles
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Kind == "profile" {
		return fmt.Sprintf("Profile '%s' not found for project type '%s'. Available profiles: [%s]",
			e.Name, e.ProjectType, strings.Join(e.Available, ", "))
	}
	return fmt.Sprintf("Project type '%s' not found in configuration", e.Name)
}

// DirectoriesFor derives the output directories of a profile. This is the
// only place directory paths are computed.
func DirectoriesFor(profileName string) Directories {
	dir := func(ct ContextType) string {
		return path.Join(".github", profileName, string(ct))
	}
	return Directories{
		Instructions: dir(ContextInstructions),
		Chatmodes:    dir(ContextChatmodes),
		Prompts:      dir(ContextPrompts),
	}
}

// FindProjectType returns the profiles declared for name.
func (c *Config) FindProjectType(name string) (*ProjectType, bool) {
	for i := range c.ProjectTypes {
		if c.ProjectTypes[i].Name == name {
			return &c.ProjectTypes[i], true
		}
	}
	return nil, false
}

// FindProfile returns the named profile.
func (pt *ProjectType) FindProfile(name string) (*Profile, bool) {
	for i := range pt.Profiles {
		if pt.Profiles[i].Name == name {
			return &pt.Profiles[i], true
		}
	}
	return nil, false
}

// ProfileNames lists the profiles of a project type in declaration order.
func (pt *ProjectType) ProfileNames() []string {
	names := make([]string, 0, len(pt.Profiles))
	for _, p := range pt.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// ProfileNames lists the profiles of a project type, or ["default"] when
// the type is not configured.
func ProfileNames(cfg *Config, projectType string) []string {
	pt, ok := cfg.FindProjectType(projectType)
	if !ok {
		return []string{DefaultProfileName}
	}
	return pt.ProfileNames()
}

// ActiveProfile selects the profile used for a project type: the first
// one flagged active, else the first declared. Unknown project types get
// an empty "default" profile.
func ActiveProfile(cfg *Config, projectType string) ResolvedProfile {
	pt, ok := cfg.FindProjectType(projectType)
	if !ok || len(pt.Profiles) == 0 {
		return resolve(projectType, Profile{Name: DefaultProfileName})
	}
	for _, p := range pt.Profiles {
		if p.Spec.Active {
			return resolve(projectType, p)
		}
	}
	return resolve(projectType, pt.Profiles[0])
}

func resolve(projectType string, p Profile) ResolvedProfile {
	return ResolvedProfile{
		Name:        p.Name,
		ProjectType: projectType,
		Spec:        p.Spec,
		Directories: DirectoriesFor(p.Name),
	}
}

// WithActiveProfile returns a copy of cfg in which name is the only active
// profile of projectType. cfg is not modified.
func WithActiveProfile(cfg *Config, projectType, name string) (*Config, error) {
	pt, ok := cfg.FindProjectType(projectType)
	if !ok {
		return nil, &NotFoundError{Kind: "project type", Name: projectType}
	}
	if _, ok := pt.FindProfile(name); !ok {
		return nil, &NotFoundError{
			Kind:        "profile",
			Name:        name,
			ProjectType: projectType,
			Available:   pt.ProfileNames(),
		}
	}

	next := cfg.Clone()
	target, _ := next.FindProjectType(projectType)
	for i := range target.Profiles {
		target.Profiles[i].Spec.Active = target.Profiles[i].Name == name
	}
	return next, nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := &Config{ProjectTypes: make([]ProjectType, len(c.ProjectTypes))}
	for i, pt := range c.ProjectTypes {
		profiles := make([]Profile, len(pt.Profiles))
		for j, p := range pt.Profiles {
			profiles[j] = Profile{Name: p.Name, Spec: p.Spec.clone()}
		}
		out.ProjectTypes[i] = ProjectType{Name: pt.Name, Profiles: profiles}
	}
	return out
}

func (s ProfileSpec) clone() ProfileSpec {
	out := ProfileSpec{Active: s.Active, AlwaysFetch: s.AlwaysFetch.clone()}
	if s.Conditional != nil {
		out.Conditional = make(map[string]ContextMap, len(s.Conditional))
		for k, v := range s.Conditional {
			out.Conditional[k] = v.clone()
		}
	}
	return out
}

func (m ContextMap) clone() ContextMap {
	if m == nil {
		return nil
	}
	out := make(ContextMap, len(m))
	for k, items := range m {
		cp := make([]FetchItem, len(items))
		for i, it := range items {
			cp[i] = it
			cp[i].Paths = append([]string(nil), it.Paths...)
		}
		out[k] = cp
	}
	return out
}
