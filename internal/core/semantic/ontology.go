package semantic

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed ontology.yaml
var ontologyYAML []byte

// ontology is the on-disk shape of the embedded resource.
type ontology struct {
	Version    int                 `yaml:"version"`
	Categories map[string][]string `yaml:"categories"`
	Activities map[string][]string `yaml:"activities"`

	// yaml flow sequences like [technology, science, 0.8] decode into
	// untyped slices; converted in loadOntology.
	RawRelationships [][]interface{} `yaml:"relationships"`
}

type relationship struct {
	a, b  string
	score float64
}

func loadOntology() (*ontology, []relationship, error) {
	var ont ontology
	if err := yaml.Unmarshal(ontologyYAML, &ont); err != nil {
		return nil, nil, fmt.Errorf("parse ontology: %w", err)
	}

	rels := make([]relationship, 0, len(ont.RawRelationships))

	for i, raw := range ont.RawRelationships {
		if len(raw) != 3 {
			return nil, nil, fmt.Errorf("ontology relationship %d: want [cat, cat, score], got %d elements", i, len(raw))
		}

		a, okA := raw[0].(string)
		b, okB := raw[1].(string)
		score, okS := toFloat(raw[2])

		if !okA || !okB || !okS {
			return nil, nil, fmt.Errorf("ontology relationship %d: malformed entry", i)
		}

		rels = append(rels, relationship{a: strings.ToLower(a), b: strings.ToLower(b), score: score})
	}

	return &ont, rels, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
