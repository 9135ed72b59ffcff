package receiptformat

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_SegmentedTemplate(t *testing.T) {
	data := []byte(`{
		"name": "new_order",
		"segments": [
			{"content": "Receipt #{id}", "settings": {"align": "center", "bold": true, "size": "1"}},
			{"content": "{hasDebt:if}Debt: {debt}{hasDebt:endif}"},
			{"content": ""}
		],
		"globalSettings": {"beep": {"enabled": true, "count": 2, "duration": 100}, "encoding": "cp1251", "paperCut": false}
	}`)

	tmpl, err := Parse(data)
	if err != nil {
		t.Fatalf("Expected valid template, got error: %v", err)
	}
	if tmpl.Name != "new_order" {
		t.Errorf("Expected name new_order, got %s", tmpl.Name)
	}
	if len(tmpl.Segments) != 3 {
		t.Fatalf("Expected 3 segments, got %d", len(tmpl.Segments))
	}

	d := tmpl.Segments[0].Directives()
	if d.Align != AlignCenter || !d.Bold || d.Size != 1 || d.Font != FontPrimary {
		t.Errorf("Unexpected directives for segment 0: %+v", d)
	}
	if tmpl.Segments[1].Settings != nil {
		t.Errorf("Expected no settings for segment 1")
	}
	if got := tmpl.Segments[1].Directives(); got != DefaultDirectives() {
		t.Errorf("Expected default directives, got %+v", got)
	}

	g := tmpl.GlobalSettings
	if g == nil {
		t.Fatal("Expected global settings")
	}
	if !g.Beep.Enabled || g.Beep.Count != 2 || g.Beep.Duration != 100 {
		t.Errorf("Unexpected beep settings: %+v", g.Beep)
	}
	if g.CharEncoding() != "cp1251" {
		t.Errorf("Expected cp1251, got %s", g.CharEncoding())
	}
	if g.CutPaper() {
		t.Error("Expected paper cut to be disabled")
	}
}

func TestParse_LegacyTemplate(t *testing.T) {
	tmpl, err := Parse([]byte(`{"name": "old", "content": "Hello {name}", "settings": {"align": "right"}}`))
	if err != nil {
		t.Fatalf("Expected valid template, got error: %v", err)
	}
	if tmpl.IsSegmented() {
		t.Error("Expected legacy template")
	}

	segs := tmpl.EffectiveSegments()
	if len(segs) != 1 {
		t.Fatalf("Expected 1 effective segment, got %d", len(segs))
	}
	if segs[0].Content != "Hello {name}" {
		t.Errorf("Unexpected content: %q", segs[0].Content)
	}
	if segs[0].Directives().Align != AlignRight {
		t.Errorf("Expected right alignment, got %s", segs[0].Directives().Align)
	}
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name     string
		raw      interface{}
		wantCode string
		wantSeg  int
	}{
		{"nil", nil, CodeMissing, -1},
		{"not an object", "text", CodeNotObject, -1},
		{"segments not array", map[string]interface{}{"segments": "abc"}, CodeSegmentsNotArray, -1},
		{"segments empty", map[string]interface{}{"segments": []interface{}{}}, CodeSegmentsEmpty, -1},
		{"no content", map[string]interface{}{"name": "x"}, CodeNoContent, -1},
		{"empty content", map[string]interface{}{"content": ""}, CodeNoContent, -1},
		{"segment not object", map[string]interface{}{"segments": []interface{}{"x"}}, CodeSegmentInvalid, 0},
		{"segment content number", map[string]interface{}{"segments": []interface{}{
			map[string]interface{}{"content": "ok"},
			map[string]interface{}{"content": 5.0},
		}}, CodeContentNotString, 1},
		{"segment settings string", map[string]interface{}{"segments": []interface{}{
			map[string]interface{}{"content": "ok", "settings": "bold"},
		}}, CodeSettingsNotObject, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.raw)
			if err == nil {
				t.Fatal("Expected error")
			}
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("Expected *FormatError, got %T", err)
			}
			if fe.Code != tt.wantCode {
				t.Errorf("Expected code %s, got %s", tt.wantCode, fe.Code)
			}
			if fe.Segment != tt.wantSeg {
				t.Errorf("Expected segment %d, got %d", tt.wantSeg, fe.Segment)
			}
		})
	}
}

func TestValidateDocument_Valid(t *testing.T) {
	valid := []interface{}{
		map[string]interface{}{"content": "Hello"},
		map[string]interface{}{"segments": []interface{}{map[string]interface{}{}}},
		map[string]interface{}{"segments": []interface{}{map[string]interface{}{"content": nil, "settings": nil}}},
	}
	for i, raw := range valid {
		if err := ValidateDocument(raw); err != nil {
			t.Errorf("case %d: expected valid document, got %v", i, err)
		}
	}
}

func TestDirectives_Normalized(t *testing.T) {
	tests := []struct {
		in   Directives
		want Directives
	}{
		{Directives{}, DefaultDirectives()},
		{Directives{Align: "middle", Font: "z", Size: 7}, Directives{Align: AlignLeft, Font: FontPrimary, Size: MaxSize}},
		{Directives{Align: AlignCenter, Font: "secondary", Size: -1}, Directives{Align: AlignCenter, Font: FontSecondary}},
	}
	for _, tt := range tests {
		if got := tt.in.Normalized(); got != tt.want {
			t.Errorf("Normalized(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseFile_Formats(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"order.json": `{"segments": [{"content": "A {id}", "settings": {"bold": true}}]}`,
		"order.yaml": "segments:\n  - content: \"A {id}\"\n    settings:\n      bold: true\n",
		"order.toml": "[[segments]]\ncontent = \"A {id}\"\n[segments.settings]\nbold = true\n",
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
			tmpl, err := ParseFile(path)
			if err != nil {
				t.Fatalf("Expected valid template, got error: %v", err)
			}
			if tmpl.Name != "order" {
				t.Errorf("Expected name from file, got %q", tmpl.Name)
			}
			if len(tmpl.Segments) != 1 || tmpl.Segments[0].Content != "A {id}" {
				t.Fatalf("Unexpected segments: %+v", tmpl.Segments)
			}
			if !tmpl.Segments[0].Directives().Bold {
				t.Error("Expected bold segment")
			}
		})
	}
}

func TestToJSON_RoundTrip(t *testing.T) {
	cut := false
	tmpl := &Template{
		Name:           "x",
		Segments:       []Segment{{Content: "hi", Settings: &Directives{Align: AlignCenter, Font: FontSecondary, Size: 2}}},
		GlobalSettings: &GlobalSettings{PaperCut: &cut},
	}
	data, err := tmpl.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Expected valid template, got error: %v", err)
	}
	if back.Segments[0].Directives() != *tmpl.Segments[0].Settings {
		t.Errorf("Directives changed: %+v", back.Segments[0].Directives())
	}
	if back.GlobalSettings.CutPaper() {
		t.Error("Expected paper cut to stay disabled")
	}
}

func TestAnalyze(t *testing.T) {
	tmpl := &Template{
		Name: "new_order",
		Segments: []Segment{
			{Content: "{hasDebt:if}Debt: {debt}{hasDebt:endif}"},
			{Content: "   "},
			{Content: "{notes:if}{notes}{notes:endif}", Settings: &Directives{Bold: true}},
		},
	}

	a := Analyze(tmpl)
	if !a.Valid {
		t.Errorf("Expected valid template, got %s", a.ValidationError)
	}
	if a.Structure.SegmentCount != 3 {
		t.Errorf("Expected 3 segments, got %d", a.Structure.SegmentCount)
	}
	if a.ConditionalCount() != 2 {
		t.Errorf("Expected 2 conditional segments, got %d", a.ConditionalCount())
	}
	if got := a.Segments[0].Placeholders; len(got) != 1 || got[0] != "debt" {
		t.Errorf("Unexpected placeholders: %v", got)
	}
	if !a.Segments[2].HasSettings {
		t.Error("Expected settings on segment 2")
	}

	want := []string{
		"1 empty segments detected",
		"All segments are conditional - template may be empty if conditions not met",
	}
	if strings.Join(a.Recommendations, "|") != strings.Join(want, "|") {
		t.Errorf("Unexpected recommendations: %v", a.Recommendations)
	}

	md := a.Markdown()
	if !strings.Contains(md, "# Template analysis: new_order") {
		t.Errorf("Markdown missing heading: %s", md)
	}
}

func TestAnalyze_Legacy(t *testing.T) {
	a := Analyze(&Template{Content: "Hello"})
	if len(a.Recommendations) != 1 || !strings.HasPrefix(a.Recommendations[0], "Template has no segments") {
		t.Errorf("Unexpected recommendations: %v", a.Recommendations)
	}
}
