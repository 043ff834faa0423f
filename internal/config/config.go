// Package config loads user-supplied model tables from YAML, letting the
// CLI drive panels that are missing from the built-in registry.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/seagrayinc/keygrid/pkg/deck"
)

type File struct {
	Models []Model `yaml:"models"`
}

type Model struct {
	Name          string `yaml:"name"`
	ProductID     uint16 `yaml:"product_id"`
	Columns       int    `yaml:"columns"`
	Rows          int    `yaml:"rows"`
	IconSize      int    `yaml:"icon_size"`
	KeyOrder      string `yaml:"key_order"`       // ltr (default) or rtl
	KeyDataOffset int    `yaml:"key_data_offset"` // defaults to 1
	PacketLength  int    `yaml:"packet_length"`
	WireFormat    string `yaml:"wire_format"` // defaults to bgr
}

// Load reads and validates a model table file.
func Load(path string) ([]deck.Properties, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML into validated model records.
func Parse(data []byte) ([]deck.Properties, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if len(f.Models) == 0 {
		return nil, fmt.Errorf("config: no models defined")
	}

	out := make([]deck.Properties, 0, len(f.Models))
	for i, m := range f.Models {
		p, err := m.properties()
		if err != nil {
			return nil, fmt.Errorf("config: model %d (%q): %w", i, m.Name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (m Model) properties() (deck.Properties, error) {
	order := deck.KeyOrderLTR
	switch m.KeyOrder {
	case "", "ltr":
	case "rtl":
		order = deck.KeyOrderRTL
	default:
		return deck.Properties{}, fmt.Errorf("key_order must be ltr or rtl, got %q", m.KeyOrder)
	}

	offset := m.KeyDataOffset
	if offset == 0 {
		offset = 1
	}
	wire := m.WireFormat
	if wire == "" {
		wire = deck.FormatBGR
	}

	p := deck.V1Defaults(deck.Properties{
		Model:         m.Name,
		ProductID:     m.ProductID,
		Columns:       m.Columns,
		Rows:          m.Rows,
		IconSize:      m.IconSize,
		KeyOrder:      order,
		KeyDataOffset: offset,
		PacketLen:     m.PacketLength,
		WireFormat:    wire,
	})
	if err := p.Validate(); err != nil {
		return deck.Properties{}, err
	}
	return p, nil
}
