package markup

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	ctx := Context{
		"id":      String("A1"),
		"hasDebt": Bool(true),
		"debt":    String("5000"),
		"noNotes": Bool(false),
		"notes":   String(""),
		"count":   Number(3),
		"zero":    Number(0),
		"price":   Number(12.5),
	}

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"plain text", "Hello", "Hello"},
		{"placeholder", "Receipt #{id}", "Receipt #A1"},
		{"repeated placeholder", "{id}-{id}", "A1-A1"},
		{"missing placeholder removed", "a{missing}b", "ab"},
		{"number formatting", "{count} x {price}", "3 x 12.5"},
		{"bool stringified", "{hasDebt}", "true"},
		{"truthy block kept", "{hasDebt:if}Debt: {debt}{hasDebt:endif}", "Debt: 5000"},
		{"false block dropped", "A{noNotes:if}hidden{noNotes:endif}B", "AB"},
		{"empty string block dropped", "{notes:if}N: {notes}{notes:endif}", ""},
		{"zero number block dropped", "{zero:if}z{zero:endif}", ""},
		{"non-zero number block kept", "{count:if}c{count:endif}", "c"},
		{"missing key block dropped", "{nope:if}x{nope:endif}", ""},
		{"multiline block", "{hasDebt:if}\nline1\nline2\n{hasDebt:endif}", "\nline1\nline2\n"},
		{"non-greedy pairing", "{hasDebt:if}a{hasDebt:endif}-{hasDebt:if}b{hasDebt:endif}", "a-b"},
		{"unterminated block left literal", "{hasDebt:if}tail", "{hasDebt:if}tail"},
		{"stray close left literal", "x{hasDebt:endif}", "x{hasDebt:endif}"},
		{"mismatched names left literal", "{hasDebt:if}x{noNotes:endif}", "{hasDebt:if}x{noNotes:endif}"},
		{"non-word braces untouched", "{ a } {a-b} {}", "{ a } {a-b} {}"},
		{"case sensitive keys", "{ID}", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.src, ctx))
		})
	}
}

func TestRenderDoesNotRescanValues(t *testing.T) {
	ctx := Context{
		"a": String("{b}"),
		"b": String("B"),
	}
	assert.Equal(t, "{b}", Render("{a}", ctx))
}

func TestRenderInnerBlockNotEvaluated(t *testing.T) {
	ctx := Context{"x": Bool(true), "y": Bool(false)}
	got := Render("{x:if}a{y:if}b{y:endif}c{x:endif}", ctx)
	assert.Equal(t, "a{y:if}b{y:endif}c", got)
}

func TestRenderIsDeterministic(t *testing.T) {
	ctx := Context{"a": String("1"), "b": Bool(true), "c": Number(2)}
	src := "{b:if}{a}{b:endif} {c} {d}"
	first := Render(src, ctx)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Render(src, ctx))
	}
}

func TestHasConditional(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"{a:if}x{a:endif}", true},
		{"{a:if}x{b:endif}", true},
		{"{a:if}x", false},
		{"x{a:endif}", false},
		{"{a} text", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, HasConditional(tt.src))
		})
	}
}

func TestCheckBlocks(t *testing.T) {
	assert.NoError(t, CheckBlocks("{a:if}x{a:endif}{b:if}y{b:endif}"))
	assert.NoError(t, CheckBlocks("{a:if}unterminated"))

	err := CheckBlocks("{a:if}x{b:if}y{b:endif}{a:endif}")
	require.Error(t, err)
	var nested *NestedBlockError
	require.ErrorAs(t, err, &nested)
	assert.Equal(t, "a", nested.Outer)
	assert.Equal(t, "b", nested.Inner)

	assert.Error(t, CheckBlocks("{a:if}{a:if}x{a:endif}{a:endif}"))
}

func TestScan(t *testing.T) {
	info := Scan("{hasDebt:if}Debt: {debt}{hasDebt:endif} {id} {debt} {x:endif}")
	assert.Equal(t, []string{"debt", "id"}, info.Placeholders)
	assert.Equal(t, []string{"hasDebt"}, info.Blocks)

	empty := Scan("nothing here")
	assert.Empty(t, empty.Placeholders)
	assert.Empty(t, empty.Blocks)
}

func TestValueOf(t *testing.T) {
	tests := []struct {
		name   string
		in     interface{}
		want   string
		truthy bool
		ok     bool
	}{
		{"string", "x", "x", true, true},
		{"empty string", "", "", false, true},
		{"bool", true, "true", true, true},
		{"float", 1500.0, "1500", true, true},
		{"int", 42, "42", true, true},
		{"zero", 0, "0", false, true},
		{"json number", json.Number("7"), "7", true, true},
		{"nil", nil, "", false, false},
		{"map", map[string]interface{}{"a": 1}, "", false, false},
		{"slice", []interface{}{1}, "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := ValueOf(tt.in)
			assert.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.want, v.String())
			assert.Equal(t, tt.truthy, v.Truthy())
		})
	}
}

func TestContextFrom(t *testing.T) {
	ctx := ContextFrom(map[string]interface{}{
		"id":    "A1",
		"items": []interface{}{1, 2},
		"nil":   nil,
	})
	assert.Len(t, ctx, 1)
	v, ok := ctx.Lookup("id")
	require.True(t, ok)
	assert.Equal(t, "A1", v.String())
}
