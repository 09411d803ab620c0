package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/arturoeanton/storyline/internal/port"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var builtin []byte

// FileName is the catalog file looked up in a prompts directory.
const FileName = "templates.yaml"

type catalogFile struct {
	Templates map[string]struct {
		Description  string `yaml:"description"`
		Instructions string `yaml:"instructions"`
	} `yaml:"templates"`
}

// Catalog holds parsed instruction templates keyed by id.
type Catalog struct {
	templates map[string]*template.Template
}

// Load returns the built-in catalog, with entries overridden by
// dir/templates.yaml when dir is set.
func Load(dir string) (*Catalog, error) {
	c := &Catalog{templates: map[string]*template.Template{}}
	if err := c.merge(builtin, "builtin"); err != nil {
		return nil, err
	}
	if dir == "" {
		return c, nil
	}

	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt catalog: %w", err)
	}
	if err := c.merge(data, path); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse builds a catalog from YAML only, without the built-in entries.
func Parse(data []byte) (*Catalog, error) {
	c := &Catalog{templates: map[string]*template.Template{}}
	if err := c.merge(data, "inline"); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) merge(data []byte, source string) error {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode prompt catalog %s: %w", source, err)
	}
	for id, entry := range f.Templates {
		tmpl, err := template.New(id).Option("missingkey=error").Parse(entry.Instructions)
		if err != nil {
			return fmt.Errorf("parse template %s from %s: %w", id, source, err)
		}
		c.templates[id] = tmpl
	}
	return nil
}

// Render executes template id with data. data may be nil for static templates.
func (c *Catalog) Render(id string, data any) (string, error) {
	tmpl, ok := c.templates[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", port.ErrTemplateNotFound, id)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", id, err)
	}
	return strings.TrimSpace(b.String()), nil
}

// IDs returns the loaded template ids, sorted.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.templates))
	for id := range c.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
