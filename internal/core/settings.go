package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Editor setting keys owned by ctxfetch. Any other key in settings.json is
// left untouched.
const (
	SettingPromptLocations       = "chat.promptFilesLocations"
	SettingModeLocations         = "chat.modeFilesLocations"
	SettingInstructionsLocations = "chat.instructionsFilesLocations"
)

// SettingsRelPath is where the editor settings live inside a repository.
var SettingsRelPath = filepath.Join(".vscode", "settings.json")

// Locations holds, per context type, the directories offered to the editor
// and whether each is enabled.
type Locations map[ContextType]map[string]bool

func newLocations() Locations {
	l := make(Locations, len(ContextTypes))
	for _, ct := range ContextTypes {
		l[ct] = map[string]bool{}
	}
	return l
}

// FetchLocations lists every declared profile directory as enabled, plus
// the directories of current.
func FetchLocations(cfg *Config, current ResolvedProfile) Locations {
	l := newLocations()
	for _, pt := range cfg.ProjectTypes {
		for _, p := range pt.Profiles {
			dirs := DirectoriesFor(p.Name)
			for _, ct := range ContextTypes {
				l[ct][dirs.For(ct)] = true
			}
		}
	}
	for _, ct := range ContextTypes {
		l[ct][current.Directories.For(ct)] = true
	}
	return l
}

// ActiveLocations lists every declared profile directory, enabled only if
// a profile owning it is active. Profiles of different project types that
// share a name share directories; one active owner is enough.
func ActiveLocations(cfg *Config) Locations {
	l := newLocations()
	for _, pt := range cfg.ProjectTypes {
		for _, p := range pt.Profiles {
			dirs := DirectoriesFor(p.Name)
			for _, ct := range ContextTypes {
				d := dirs.For(ct)
				l[ct][d] = l[ct][d] || p.Spec.Active
			}
		}
	}
	return l
}

// UpdateSettings merges locations into the settings file at path. The file
// is parsed as JSONC so comments and unrelated keys survive. A missing or
// empty file starts from an empty object.
func UpdateSettings(path string, locations Locations) error {
	content, err := readConfigFile(path)
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}
	if isBlank(content) {
		content = []byte("{}")
	}

	root, err := hujson.Parse(content)
	if err != nil {
		return fmt.Errorf("parsing settings %s: %w", path, err)
	}
	if _, ok := root.Value.(*hujson.Object); !ok {
		return fmt.Errorf("parsing settings %s: top level is not an object", path)
	}

	keys := []struct {
		name string
		ct   ContextType
	}{
		{SettingPromptLocations, ContextPrompts},
		{SettingModeLocations, ContextChatmodes},
		{SettingInstructionsLocations, ContextInstructions},
	}
	for _, k := range keys {
		value, err := json.Marshal(locations[k.ct])
		if err != nil {
			return fmt.Errorf("encoding %s: %w", k.name, err)
		}
		ptr := "/" + jsonPointerEscape(k.name)
		op := "add"
		if root.Find(ptr) != nil {
			op = "replace"
		}
		patch := fmt.Sprintf(`[{"op":%q,"path":%q,"value":%s}]`, op, ptr, value)
		if err := root.Patch([]byte(patch)); err != nil {
			return fmt.Errorf("writing %s: %w", k.name, err)
		}
	}

	root.Format()
	removeTrailingCommas(&root)
	return writeFileAtomic(path, root.Pack())
}

// readConfigFile reads a file. Returns empty content if not found.
func readConfigFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func isBlank(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}

// jsonPointerEscape escapes a string for use as a JSON Pointer token (RFC 6901).
func jsonPointerEscape(s string) string {
	result := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '~':
			result = append(result, '~', '0')
		case '/':
			result = append(result, '~', '1')
		default:
			result = append(result, s[i])
		}
	}
	return string(result)
}

// removeTrailingCommas walks the JSONC AST and removes trailing commas.
func removeTrailingCommas(v *hujson.Value) {
	switch vv := v.Value.(type) {
	case *hujson.Object:
		for i := range vv.Members {
			removeTrailingCommas(&vv.Members[i].Name)
			removeTrailingCommas(&vv.Members[i].Value)
		}
		if len(vv.Members) > 0 {
			vv.Members[len(vv.Members)-1].Value.AfterExtra = nil
		}
	case *hujson.Array:
		for i := range vv.Elements {
			removeTrailingCommas(&vv.Elements[i])
		}
		if len(vv.Elements) > 0 {
			vv.Elements[len(vv.Elements)-1].AfterExtra = nil
		}
	}
}
