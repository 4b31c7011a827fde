package report

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Paper sizes accepted by print profiles, in inches (width, height,
// portrait orientation).
var paperSizes = map[string][2]float64{
	"A4":     {8.27, 11.69},
	"A5":     {5.83, 8.27},
	"Letter": {8.5, 11},
	"Legal":  {8.5, 14},
}

// Profile describes one named print configuration handed to the backend.
type Profile struct {
	Name        string  `yaml:"name"`
	Paper       string  `yaml:"paper"`
	Orientation string  `yaml:"orientation"`
	MarginMM    float64 `yaml:"marginMM"`
	Scale       float64 `yaml:"scale"`
}

// DefaultProfile is the built-in configuration used when no profile
// directory exists: full-bleed portrait A4.
func DefaultProfile() Profile {
	return Profile{
		Name:        "a4-portrait",
		Paper:       "A4",
		Orientation: "portrait",
		MarginMM:    0,
		Scale:       1,
	}
}

// Validate checks the profile against the supported paper and orientation
// sets.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile: name is required")
	}
	if _, ok := paperSizes[p.Paper]; !ok {
		return fmt.Errorf("profile %s: unknown paper %q", p.Name, p.Paper)
	}
	if p.Orientation != "portrait" && p.Orientation != "landscape" {
		return fmt.Errorf("profile %s: orientation must be portrait or landscape, got %q", p.Name, p.Orientation)
	}
	if p.MarginMM < 0 {
		return fmt.Errorf("profile %s: negative margin", p.Name)
	}
	if p.Scale < 0 {
		return fmt.Errorf("profile %s: negative scale", p.Name)
	}
	return nil
}

// Normalized fills unset optional fields with their defaults.
func (p Profile) Normalized() Profile {
	out := p
	out.Name = strings.TrimSpace(out.Name)
	if out.Scale == 0 {
		out.Scale = 1
	}
	return out
}

// PaperSizeInches returns the page dimensions for the backend, swapped
// for landscape profiles.
func (p Profile) PaperSizeInches() (width, height float64) {
	size, ok := paperSizes[p.Paper]
	if !ok {
		size = paperSizes["A4"]
	}
	if p.Orientation == "landscape" {
		return size[1], size[0]
	}
	return size[0], size[1]
}

// MarginInches converts the profile margin for the backend.
func (p Profile) MarginInches() float64 {
	return p.MarginMM / 25.4
}

// ParseProfileYAML decodes and validates a single profile payload.
func ParseProfileYAML(data []byte) (Profile, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Profile{}, fmt.Errorf("profile: payload is empty")
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("profile: decode: %w", err)
	}
	p = p.Normalized()
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// LoadProfileDir reads every .yaml/.yml file in dir. A missing directory
// means "no custom profiles" and yields nil without error.
func LoadProfileDir(dir string) ([]Profile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("profile: read %s: %w", trimmed, err)
	}

	var profiles []Profile
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(trimmed, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("profile: read %s: %w", path, err)
		}
		p, err := ParseProfileYAML(data)
		if err != nil {
			return nil, fmt.Errorf("profile: %s: %w", entry.Name(), err)
		}
		if prev, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("profile: %s: name %q already defined in %s", entry.Name(), p.Name, prev)
		}
		seen[p.Name] = entry.Name()
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// SelectProfile finds a named profile among the loaded ones, falling back
// to the built-in default when the name is empty or unknown.
func SelectProfile(profiles []Profile, name string) Profile {
	for _, p := range profiles {
		if p.Name == name {
			return p
		}
	}
	return DefaultProfile()
}
