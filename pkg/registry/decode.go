package registry

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/germanamz/llmrouter/pkg/model"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// entry is one model in the catalog file.
type entry struct {
	ModelType  string           `yaml:"model_type" validate:"required"`
	APIBase    string           `yaml:"api_base" validate:"required,url"`
	APIKey     string           `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	ModelName  string           `yaml:"model_name"`
	Parameters model.Parameters `yaml:"parameters"`
}

type skippedEntry struct {
	name string
	err  error
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func entryValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
			return name
		})
	})

	return validate
}

// envRef matches ${VAR} references. A bare $ is left alone so keys and URLs
// may contain it literally.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references in scalar values with the variable's
// value (empty when unset). Plain scalars are re-resolved afterwards so that
// numeric parameters may come from the environment.
func expandEnv(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && strings.Contains(n.Value, "${") {
		n.Value = envRef.ReplaceAllStringFunc(n.Value, func(ref string) string {
			return os.Getenv(ref[2 : len(ref)-1])
		})
		if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle|yaml.LiteralStyle|yaml.FoldedStyle) == 0 {
			n.Tag = ""
		}
	}

	for _, c := range n.Content {
		expandEnv(c)
	}
}

// decode parses a name→entry mapping, keeping declaration order. ${VAR}
// references inside values are expanded from the environment. Entries that
// fail to decode or validate are reported in skipped; a document that is not
// a mapping at all is an error. Empty input decodes to no entries.
func decode(data []byte) (configs []model.Config, skipped []skippedEntry, err error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse config: %w", err)
	}

	expandEnv(&doc)

	if doc.Kind == 0 {
		return nil, nil, nil
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	if root.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("parse config: line %d: expected a mapping of model names", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value

		var e entry
		if err := root.Content[i+1].Decode(&e); err != nil {
			skipped = append(skipped, skippedEntry{name: name, err: err})
			continue
		}

		if err := entryValidator().Struct(e); err != nil {
			skipped = append(skipped, skippedEntry{name: name, err: err})
			continue
		}

		configs = append(configs, model.Config{
			Name:     name,
			Provider: e.ModelType,
			APIBase:  e.APIBase,
			APIKey:   e.APIKey,
			Model:    e.ModelName,
			Defaults: e.Parameters,
		})
	}

	return configs, skipped, nil
}
