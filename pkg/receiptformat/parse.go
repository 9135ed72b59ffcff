package receiptformat

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Parse parses a JSON template document.
func Parse(data []byte) (*Template, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return Decode(raw)
}

// ParseYAML parses a YAML template document.
func ParseYAML(data []byte) (*Template, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return Decode(raw)
}

// ParseTOML parses a TOML template document.
func ParseTOML(data []byte) (*Template, error) {
	raw := map[string]interface{}{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return Decode(raw)
}

// ParseFile parses a template file, choosing the decoder by extension.
// Unknown extensions are read as JSON.
func ParseFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	var t *Template
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		t, err = ParseYAML(data)
	case ".toml":
		t, err = ParseTOML(data)
	default:
		t, err = Parse(data)
	}
	if err != nil {
		return nil, err
	}

	if t.Name == "" {
		t.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return t, nil
}

// Decode validates an untyped template document and converts it.
// Formatting values are read leniently: sizes may be numbers or numeric
// strings, unknown alignments and fonts fall back to the defaults.
func Decode(raw interface{}) (*Template, error) {
	if err := ValidateDocument(raw); err != nil {
		return nil, err
	}
	doc := raw.(map[string]interface{})

	t := &Template{}
	t.Name, _ = doc["name"].(string)
	t.Content, _ = doc["content"].(string)
	if s, ok := doc["settings"].(map[string]interface{}); ok {
		d := DirectivesFromMap(s)
		t.Settings = &d
	}

	if segs, ok := doc["segments"].([]interface{}); ok && present(doc["segments"]) {
		t.Segments = make([]Segment, 0, len(segs))
		for _, s := range segs {
			m := s.(map[string]interface{})
			seg := Segment{}
			seg.Content, _ = m["content"].(string)
			if settings, ok := m["settings"].(map[string]interface{}); ok {
				d := DirectivesFromMap(settings)
				seg.Settings = &d
			}
			t.Segments = append(t.Segments, seg)
		}
	}

	if g, ok := doc["globalSettings"].(map[string]interface{}); ok {
		gs := &GlobalSettings{}
		if b, ok := g["beep"].(map[string]interface{}); ok {
			gs.Beep.Enabled = toBool(b["enabled"])
			gs.Beep.Count, _ = toInt(b["count"])
			gs.Beep.Duration, _ = toInt(b["duration"])
		}
		gs.Encoding, _ = g["encoding"].(string)
		if v, ok := g["paperCut"]; ok && v != nil {
			cut := toBool(v)
			gs.PaperCut = &cut
		}
		t.GlobalSettings = gs
	}

	return t, nil
}

// DirectivesFromMap reads formatting directives from an untyped map.
func DirectivesFromMap(m map[string]interface{}) Directives {
	d := Directives{}
	if s, ok := m["align"].(string); ok {
		d.Align = Align(strings.ToLower(s))
	}
	if s, ok := m["font"].(string); ok {
		d.Font = Font(strings.ToLower(s))
	}
	d.Size, _ = toInt(m["size"])
	d.Bold = toBool(m["bold"])
	d.Underline = toBool(m["underline"])
	d.Italic = toBool(m["italic"])
	return d.Normalized()
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}

func toBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "1"
	}
	n, ok := toInt(v)
	return ok && n != 0
}

// ToJSON converts a Template to indented JSON.
func (t *Template) ToJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}
