// Package profile holds the biography shown on the portfolio's landing page.
package profile

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
	"hermannm.dev/wrap"
)

//go:embed profile.yaml
var profileYAML []byte

type Profile struct {
	Title             string    `yaml:"title"             json:"title"`
	Summary           string    `yaml:"summary"           json:"summary"`
	Skills            []Section `yaml:"skills"            json:"skills"`
	BusinessKnowledge []Section `yaml:"businessKnowledge" json:"businessKnowledge"`
	Projects          []Project `yaml:"projects"          json:"projects"`
	Links             []Link    `yaml:"links"             json:"links"`
}

type Section struct {
	Name  string   `yaml:"name"  json:"name"`
	Items []string `yaml:"items" json:"items"`
}

type Project struct {
	Title string `yaml:"title" json:"title"`
	Path  string `yaml:"path"  json:"path"`
}

type Link struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url"  json:"url"`
}

// Load decodes the embedded profile.
func Load() (Profile, error) {
	return Parse(profileYAML)
}

func Parse(data []byte) (Profile, error) {
	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return Profile{}, wrap.Error(err, "failed to decode profile YAML")
	}

	if err := profile.validate(); err != nil {
		return Profile{}, wrap.Error(err, "invalid profile")
	}
	return profile, nil
}

func (profile Profile) validate() error {
	var errs []error
	if strings.TrimSpace(profile.Title) == "" {
		errs = append(errs, errors.New("missing title"))
	}
	for _, section := range slices.Concat(profile.Skills, profile.BusinessKnowledge) {
		if section.Name == "" || len(section.Items) == 0 {
			errs = append(errs, fmt.Errorf("section '%s' has no name or no items", section.Name))
		}
	}
	for _, link := range profile.Links {
		if !strings.HasPrefix(link.URL, "https://") {
			errs = append(errs, fmt.Errorf("link '%s' is not an https URL", link.Name))
		}
	}

	if len(errs) > 0 {
		return wrap.Errors("invalid profile fields", errs...)
	}
	return nil
}
