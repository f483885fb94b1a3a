package assign

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Assignment is the process-wide configuration for one compilation run.
// It is constructed once, read by every downstream component, and not
// mutated after the notebook walk except to record the student tests
// directory used for hidden-test redaction.
type Assignment struct {
	Master string `toml:"-"`
	Result string `toml:"-"`

	Name            string            `toml:"name"`
	SaveEnvironment bool              `toml:"save_environment"`
	IgnoreModules   []string          `toml:"ignore_modules"`
	Variables       map[string]string `toml:"variables"`
	Requirements    string            `toml:"requirements"`
	Seed            *int64            `toml:"seed"`
	RunTests        bool              `toml:"run_tests"`

	// set by Compile once the student tree's redacted tests exist
	StudentTestDir string `toml:"-"`
}

// LoadAssignment builds the configuration for compiling master into the
// result directory. A TOML sidecar named <master stem>.toml next to the
// master notebook overrides the defaults.
func LoadAssignment(master, result string) (*Assignment, error) {
	a := &Assignment{
		Master:        master,
		Result:        result,
		IgnoreModules: []string{},
		RunTests:      true,
	}

	sidecar := strings.TrimSuffix(master, filepath.Ext(master)) + ".toml"
	data, err := os.ReadFile(sidecar)
	if os.IsNotExist(err) {
		return a, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read assignment config %s: %w", sidecar, err)
	}
	if err := toml.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("failed to parse assignment config %s: %w", sidecar, err)
	}
	return a, nil
}

// MasterStem returns the master notebook filename without its extension.
func (a *Assignment) MasterStem() string {
	base := filepath.Base(a.Master)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// AgPath joins parts under the autograder output tree.
func (a *Assignment) AgPath(parts ...string) string {
	return filepath.Join(append([]string{a.Result, "autograder"}, parts...)...)
}

// StuPath joins parts under the student output tree.
func (a *Assignment) StuPath(parts ...string) string {
	return filepath.Join(append([]string{a.Result, "student"}, parts...)...)
}

// ConfigArtifact is the small JSON configuration document written alongside
// the compiled notebooks, identical in both output trees.
type ConfigArtifact struct {
	Notebook        string            `json:"notebook"`
	SaveEnvironment bool              `json:"save_environment"`
	IgnoreModules   []string          `json:"ignore_modules"`
	Variables       map[string]string `json:"variables,omitempty"`
	Seed            *int64            `json:"seed,omitempty"`
}

// WriteConfigArtifact writes the configuration artifact to both the
// autograder and student trees.
func (a *Assignment) WriteConfigArtifact() error {
	cfg := ConfigArtifact{
		Notebook:        filepath.Base(a.Master),
		SaveEnvironment: a.SaveEnvironment,
		IgnoreModules:   a.IgnoreModules,
		Variables:       a.Variables,
		Seed:            a.Seed,
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config artifact: %w", err)
	}
	data = append(data, '\n')

	name := a.MasterStem() + ".config.json"
	for _, path := range []string{a.AgPath(name), a.StuPath(name)} {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write config artifact %s: %w", path, err)
		}
	}
	return nil
}
