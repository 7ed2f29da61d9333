// Package journal manages journal profiles stored in ~/.ojs-pubmed/journals.
//
// A profile records how one journal is addressed on the OJS platform and how
// PubMed abbreviates it, so a batch can be run with --journal name instead of
// repeating the settings.
package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a named profile does not exist.
var ErrNotFound = errors.New("journal profile not found")

// Journal is a named set of per-journal settings.
type Journal struct {
	// Name is the profile identifier (e.g., "tvg")
	Name string `yaml:"name" json:"name" validate:"required"`

	// Description provides human-readable documentation
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Path is the journal's URL path segment on the OJS site
	Path string `yaml:"path" json:"path" validate:"required,excludesall=/?#"`

	// Abbreviation is the NLM title abbreviation written to JournalTitle
	Abbreviation string `yaml:"abbreviation" json:"abbreviation" validate:"required"`

	// BaseURL overrides the OJS site root
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty" validate:"omitempty,url"`

	// VernacularLocale overrides the locale of the native-language title
	VernacularLocale string `yaml:"vernacular_locale,omitempty" json:"vernacular_locale,omitempty"`

	// StripHTML overrides whether scraped abstracts are converted to plain text
	StripHTML *bool `yaml:"strip_html,omitempty" json:"strip_html,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the profile has every required field.
func (j *Journal) Validate() error {
	if err := validate.Struct(j); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("invalid journal profile %q: %s", j.Name, strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// Settings returns the profile as configuration keys, omitting empty fields.
func (j *Journal) Settings() map[string]any {
	settings := map[string]any{
		"journal_path":         j.Path,
		"journal_abbreviation": j.Abbreviation,
	}
	if j.BaseURL != "" {
		settings["base_url"] = j.BaseURL
	}
	if j.VernacularLocale != "" {
		settings["vernacular_locale"] = j.VernacularLocale
	}
	if j.StripHTML != nil {
		settings["strip_html"] = *j.StripHTML
	}
	return settings
}

// configDirOverride holds a user-specified configuration directory.
// When empty, the default $HOME/.ojs-pubmed is used.
var configDirOverride string

// SetConfigDir overrides the default configuration directory.
func SetConfigDir(dir string) {
	configDirOverride = dir
}

// ConfigDir returns the ojs-pubmed configuration directory.
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".ojs-pubmed"), nil
}

// JournalsDir returns the journal profiles directory.
func JournalsDir() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "journals"), nil
}

// Path returns the file path for a profile name.
func Path(name string) (string, error) {
	dir, err := JournalsDir()
	if err != nil {
		return "", err
	}
	// Sanitize name
	name = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid journal profile name %q", name)
	}
	return filepath.Join(dir, name+".yaml"), nil
}

// Save validates the profile and writes it to disk.
func (j *Journal) Save() error {
	if err := j.Validate(); err != nil {
		return err
	}

	dir, err := JournalsDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating journals directory: %w", err)
	}

	path, err := Path(j.Name)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(j)
	if err != nil {
		return fmt.Errorf("marshaling journal profile: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing journal profile: %w", err)
	}

	return nil
}

// Load reads a profile from disk.
func Load(name string) (*Journal, error) {
	path, err := Path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("reading journal profile: %w", err)
	}

	var j Journal
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parsing journal profile: %w", err)
	}
	if j.Name == "" {
		j.Name = name
	}

	return &j, nil
}

// List returns all available profile names, sorted.
func List() ([]string, error) {
	dir, err := JournalsDir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading journals directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			names = append(names, strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml"))
		}
	}
	sort.Strings(names)

	return names, nil
}

// Delete removes a profile.
func Delete(name string) error {
	path, err := Path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return fmt.Errorf("deleting journal profile: %w", err)
	}

	return nil
}

// Exists checks if a profile exists.
func Exists(name string) bool {
	path, err := Path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
