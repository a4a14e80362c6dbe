package wordfill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-wordfill/internal/docxtest"
)

func TestForeachPath(t *testing.T) {
	for text, want := range map[string]string{
		"@foreach {{items}}":         "items",
		"@foreach {{order.lines}} x": "order.lines",
		"@foreach {{Überschrift}}":   "Überschrift",
	} {
		got, ok := foreachPath(text)
		assert.True(t, ok, text)
		assert.Equal(t, want, got, text)
	}
	for _, text := range []string{"@foreach items", "@foreach {{}}", "@foreach {{a b}}"} {
		_, ok := foreachPath(text)
		assert.False(t, ok, text)
	}
}

func TestExpandForeach(t *testing.T) {
	doc := fillBody(t, docxtest.Paragraphs(
		"Items:",
		"@foreach {{items}}",
		"- {{name}} ({{items.name}})",
		"@endforeach",
		"done",
	), Data{"items": items("a", "b")})

	assert.Equal(t, []string{"Items:", "- a (a)", "- b (b)", "done"}, texts(doc))
}

func TestExpandForeachNested(t *testing.T) {
	doc := fillBody(t, docxtest.Paragraphs(
		"@foreach {{groups}}",
		"Group {{name}}",
		"@foreach {{members}}",
		"- {{name}} in {{groups.name}}",
		"@endforeach",
		"@endforeach",
	), Data{"groups": List{
		Map{"name": str("G1"), "members": items("m1", "m2")},
		Map{"name": str("G2"), "members": List{}},
	}})

	assert.Equal(t, []string{"Group G1", "- m1 in G1", "- m2 in G1", "Group G2"}, texts(doc))
}

func TestExpandForeachScalars(t *testing.T) {
	doc := fillBody(t, docxtest.Paragraphs("@foreach {{tags}}", "#{{tags}}", "@endforeach"),
		Data{"tags": List{str("go"), str("docx")}})

	assert.Equal(t, []string{"#go", "#docx"}, texts(doc))
}

func TestExpandForeachRemovesBody(t *testing.T) {
	body := docxtest.Paragraphs("before", "@foreach {{xs}}", "body {{x}}", "@endforeach", "after")

	for name, data := range map[string]Data{
		"empty list": {"xs": List{}},
		"absent":     {},
		"not a list": {"xs": Map{"a": str("b")}},
	} {
		t.Run(name, func(t *testing.T) {
			doc := fillBody(t, body, data)
			assert.Equal(t, []string{"before", "after"}, texts(doc))
		})
	}
}

func TestExpandForeachWithoutEnd(t *testing.T) {
	doc := fillBody(t, docxtest.Paragraphs("head", "@foreach {{items}}", "{{name}}", "tail {{name}}"),
		Data{"items": items("a", "b")})

	assert.Equal(t, []string{"head", "a", "tail a", "b", "tail b"}, texts(doc))
}

func TestExpandForeachWithBlocks(t *testing.T) {
	doc := fillBody(t, docxtest.Paragraphs(
		"@foreach {{items}}",
		"@if vip == false",
		"VIP {{name}}",
		"@endif",
		"{{name}}",
		"@endforeach",
	), Data{"items": List{
		Map{"name": str("a"), "vip": BoolValue(true)},
		Map{"name": str("b"), "vip": BoolValue(false)},
	}})

	// Boolean equality is inverted unless strict: "vip == false" holds for a.
	assert.Equal(t, []string{"VIP a", "a", "b"}, texts(doc))
}

func TestExpandForeachInCell(t *testing.T) {
	cell := "<w:tc>" + docxtest.Paragraphs("@foreach {{xs}}", "{{name}}", "@endforeach") + "</w:tc>"
	doc := fillBody(t, "<w:tbl><w:tr>"+cell+"</w:tr></w:tbl>", Data{"xs": items("a", "b")})

	assert.Equal(t, [][]string{{"a|b"}}, tableTexts(t, doc, 0))
}

func TestExpandForeachWithoutPath(t *testing.T) {
	doc := parseBody(t, docxtest.Paragraphs("{{title}}", "@foreach items", "x", "@endforeach"))

	err := testFiller(nil).fillPart(doc.Body, NewScope(Data{"title": str("T"), "items": items("a")}))
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Equal(t, []string{"{{title}}", "@foreach items", "x", "@endforeach"}, texts(doc))
}
