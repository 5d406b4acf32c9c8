package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/aluiziolira/go-scrape-products/models"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidName reports whether name is safe to use as a file or object key.
func ValidName(name string) bool {
	return len(name) <= 200 && namePattern.MatchString(name)
}

// DefaultTargets is the health & wellness (for her) product list.
func DefaultTargets() []models.BatchTarget {
	return []models.BatchTarget{
		{
			URL:  "https://www.amazon.ca/CeraVe-Salicylic-Cleanser-Exfoliating-Fragrance/dp/B08PR8YSBT?tag=callinow-20",
			Name: "cerave-salicylic-cleanser",
		},
		{
			URL:  "https://www.amazon.ca/Italian-Skincare-Hydrating-Truffles-100ml/dp/B0BFQ9RD5B?tag=callinow-20",
			Name: "italian-skincare-truffles",
		},
		{
			URL:  "https://www.amazon.ca/Under-Eye-Mask-Undereye-Cruelty-Free/dp/B014E2D6BY?tag=callinow-20",
			Name: "under-eye-mask",
		},
		{
			URL:  "https://www.amazon.ca/Neutrogena-Makeup-Remover-Cleansing-Alcohol/dp/B01NBL6TV9?tag=callinow-20",
			Name: "neutrogena-makeup-remover",
		},
		{
			URL:  "https://www.amazon.ca/Laneige-2019-Renewal-Sleeping-Berry/dp/B07XXPHQZK?tag=callinow-20",
			Name: "laneige-sleeping-mask",
		},
	}
}

type targetsFile struct {
	Targets []models.BatchTarget `yaml:"targets"`
}

// LoadTargets reads a YAML or JSON target list. Both a bare list and a
// document with a top-level "targets" key are accepted.
func LoadTargets(path string) ([]models.BatchTarget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file %s: %w", path, err)
	}
	targets, err := ParseTargets(data)
	if err != nil {
		return nil, fmt.Errorf("parse targets file %s: %w", path, err)
	}
	return targets, nil
}

// ParseTargets decodes and validates a target list.
func ParseTargets(data []byte) ([]models.BatchTarget, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, errors.New("target list is empty")
	}

	var targets []models.BatchTarget
	switch node.Content[0].Kind {
	case yaml.SequenceNode:
		if err := node.Content[0].Decode(&targets); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var file targetsFile
		if err := node.Content[0].Decode(&file); err != nil {
			return nil, err
		}
		targets = file.Targets
	default:
		return nil, errors.New("target list must be a sequence or a mapping with a targets key")
	}

	if err := ValidateTargets(targets); err != nil {
		return nil, err
	}
	return targets, nil
}

// ValidateTargets checks the list is non-empty and names are unique and
// filesystem-safe. Names become blob keys; URLs are checked per target by
// ValidateURL so one bad URL fails only its own target.
func ValidateTargets(targets []models.BatchTarget) error {
	if len(targets) == 0 {
		return errors.New("target list is empty")
	}
	seen := make(map[string]struct{}, len(targets))
	for i, t := range targets {
		if !ValidName(t.Name) {
			return fmt.Errorf("target %d: name %q must be filesystem-safe", i, t.Name)
		}
		if _, ok := seen[t.Name]; ok {
			return fmt.Errorf("target %d: duplicate name %q", i, t.Name)
		}
		seen[t.Name] = struct{}{}
	}
	return nil
}

// ValidateURL reports whether raw is an absolute http(s) URL.
func ValidateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("url %q must be absolute http(s)", raw)
	}
	return nil
}
