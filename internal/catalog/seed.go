package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/voyagen/livecatalog/internal/models"
)

// SeedLoader supplies the sources imported into an empty catalog.
type SeedLoader interface {
	LoadSources() ([]models.Source, error)
}

// SeedFunc adapts a function to SeedLoader.
type SeedFunc func() ([]models.Source, error)

func (f SeedFunc) LoadSources() ([]models.Source, error) { return f() }

// FileSeed reads the "live_sources" section of a JSON or YAML document:
//
//	{"live_sources": {"cctv1": {"name": "CCTV-1", "url": "https://…", "ua": "…", "epg": "…"}}}
type FileSeed struct {
	Path string
}

func (f FileSeed) LoadSources() ([]models.Source, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	return ParseSeed(data)
}

type seedSource struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	UA   string `yaml:"ua"`
	EPG  string `yaml:"epg"`
}

// ParseSeed decodes a sources document into config-origin sources. Order
// follows the document so that import order is stable.
func ParseSeed(data []byte) ([]models.Source, error) {
	if json.Valid(data) {
		// YAML rejects tab indentation; raw tabs cannot occur inside JSON strings.
		data = bytes.ReplaceAll(data, []byte("\t"), []byte("  "))
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse sources: document is not a mapping")
	}

	live := mappingValue(root, "live_sources")
	if live == nil || live.Kind != yaml.MappingNode {
		return nil, nil
	}

	var sources []models.Source
	for i := 0; i+1 < len(live.Content); i += 2 {
		keyNode, valNode := live.Content[i], live.Content[i+1]
		if valNode.Kind != yaml.MappingNode {
			continue
		}
		var s seedSource
		if err := valNode.Decode(&s); err != nil {
			return nil, fmt.Errorf("parse sources: %s: %w", keyNode.Value, err)
		}
		name := s.Name
		if name == "" {
			name = keyNode.Value
		}
		sources = append(sources, models.Source{
			Key:       keyNode.Value,
			Name:      name,
			URL:       s.URL,
			UserAgent: s.UA,
			EPGURL:    s.EPG,
			From:      models.OriginConfig,
			Order:     len(sources),
		})
	}
	return sources, nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}
