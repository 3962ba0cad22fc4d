package core

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/gjson"
)

// gitDir is the only directory not scanned for marker files.
const gitDir = ".git"

var pythonMarkers = []string{"requirements.txt", "setup.py", "pyproject.toml", "__init__.py"}

// DetectProjectTypes returns the project labels implied by marker files
// anywhere under dir, in a fixed order. It returns ["generic"] when
// nothing matches.
func DetectProjectTypes(dir string) []string {
	names := make(map[string]bool)
	hasExt := make(map[string]bool)

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			if d != nil && d.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != dir && d.Name() == gitDir {
				return filepath.SkipDir
			}
			return nil
		}
		names[d.Name()] = true
		hasExt[filepath.Ext(d.Name())] = true
		return nil
	})

	var types []string
	for _, m := range pythonMarkers {
		if names[m] {
			types = append(types, "python")
			break
		}
	}
	if names["package.json"] {
		types = append(types, "javascript")
		if names["tsconfig.json"] || hasExt[".ts"] {
			types = append(types, "typescript")
		}
	}
	if names["Cargo.toml"] {
		types = append(types, "rust")
	}
	if names["go.mod"] || hasExt[".go"] {
		types = append(types, "go")
	}

	if len(types) == 0 {
		return []string{GenericProjectType}
	}
	return types
}

// DetectConditions inspects manifests at the root of dir and reports
// framework and library flags. A manifest that cannot be read or parsed
// contributes no flags and adds a warning; detection always completes.
func DetectConditions(dir string) (Conditions, []string) {
	conds := Conditions{}
	var warnings []string
	warn := func(file string, err error) {
		warnings = append(warnings, fmt.Sprintf("%s: %v", file, err))
	}

	if data, ok, err := readManifest(dir, "package.json"); err != nil {
		warn("package.json", err)
	} else if ok {
		if err := detectPackageJSON(string(data), conds); err != nil {
			warn("package.json", err)
		}
	}

	if data, ok, err := readManifest(dir, "requirements.txt"); err != nil {
		warn("requirements.txt", err)
	} else if ok {
		content := strings.ToLower(string(data))
		conds["has_requirements_txt"] = true
		conds["has_django"] = strings.Contains(content, "django")
		conds["has_flask"] = strings.Contains(content, "flask")
		conds["has_fastapi"] = strings.Contains(content, "fastapi")
	}

	if data, ok, err := readManifest(dir, "pyproject.toml"); err != nil {
		warn("pyproject.toml", err)
	} else if ok {
		conds["has_pyproject_toml"] = true
		if err := detectPyproject(data, conds); err != nil {
			warn("pyproject.toml", err)
		}
	}

	if fileExists(filepath.Join(dir, "setup.py")) {
		conds["has_setup_py"] = true
	}
	conds["has_tsconfig"] = fileExists(filepath.Join(dir, "tsconfig.json"))
	conds["has_cargo_toml"] = fileExists(filepath.Join(dir, "Cargo.toml"))
	conds["has_go_mod"] = fileExists(filepath.Join(dir, "go.mod"))

	return conds, warnings
}

// readManifest reads dir/name. ok is false when the file does not exist.
func readManifest(dir, name string) (data []byte, ok bool, err error) {
	data, err = os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

var packageJSONFlags = map[string]string{
	"has_react":      "react",
	"has_nextjs":     "next",
	"has_express":    "express",
	"has_typescript": "typescript",
}

func detectPackageJSON(content string, conds Conditions) error {
	if !gjson.Valid(content) {
		return fmt.Errorf("invalid JSON")
	}
	root := gjson.Parse(content)
	if !root.IsObject() {
		return fmt.Errorf("top level is not an object")
	}

	conds["has_package_json"] = true
	deps := root.Get("dependencies")
	devDeps := root.Get("devDependencies")
	for flag, pkg := range packageJSONFlags {
		key := EscapeJSONKey(pkg)
		conds[flag] = deps.Get(key).Exists() || devDeps.Get(key).Exists()
	}
	return nil
}

// pyproject holds the dependency tables we look at in pyproject.toml.
type pyproject struct {
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies map[string]any `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

var pythonFrameworks = map[string]string{
	"has_django":  "django",
	"has_flask":   "flask",
	"has_fastapi": "fastapi",
}

// detectPyproject ORs framework flags found in pyproject.toml into conds.
func detectPyproject(data []byte, conds Conditions) error {
	var p pyproject
	if _, err := toml.Decode(string(data), &p); err != nil {
		return err
	}

	var deps []string
	deps = append(deps, p.Project.Dependencies...)
	for _, group := range p.Project.OptionalDependencies {
		deps = append(deps, group...)
	}
	for name := range p.Tool.Poetry.Dependencies {
		deps = append(deps, name)
	}

	for flag, framework := range pythonFrameworks {
		for _, d := range deps {
			if strings.Contains(strings.ToLower(d), framework) {
				conds[flag] = true
				break
			}
		}
		if _, set := conds[flag]; !set {
			conds[flag] = false
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
