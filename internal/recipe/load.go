package recipe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// file is the on-disk layout: either a single recipe or a list of them.
type file struct {
	Recipe  `yaml:",inline"`
	Recipes []Recipe `yaml:"recipes"`
}

// Load reads and validates the recipes of a YAML file.
func Load(path string) ([]Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading recipe: %w", err)
	}
	recipes, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recipes, nil
}

// Parse decodes one or more recipes from YAML. Unknown fields are rejected.
func Parse(data []byte) ([]Recipe, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("recipe file is empty")
		}
		return nil, fmt.Errorf("error unmarshalling recipe: %w", err)
	}

	recipes := f.Recipes
	if f.Target != "" || len(f.Steps) > 0 {
		recipes = append([]Recipe{f.Recipe}, recipes...)
	}
	if len(recipes) == 0 {
		return nil, errors.New("no recipes defined")
	}

	for i := range recipes {
		recipes[i].ApplyDefaults()
		if err := recipes[i].Validate(); err != nil {
			return nil, err
		}
	}
	return recipes, nil
}
