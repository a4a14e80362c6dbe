package wordfill

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-wordfill/internal/docxtest"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		left, op, right string
		strict          bool
		want            bool
	}{
		{"5", "==", "5.0", false, true},
		{"10", ">", "9", false, true},
		{"10", "<", "9", false, false},
		{"2.5", "<=", "2.5", false, true},
		{"9007199254740993", "==", "9007199254740992", false, false},
		{"9007199254740993", ">", "9007199254740992", false, true},
		{"5", "==", "five", false, false},
		{"2024-01-02", "<", "2024-02-01", false, true},
		{"2024-01-02 10:00:00", ">=", "2024-01-02", false, true},
		{"2024/05/01", "==", "2024-05-01", false, true},
		{"2024-01-02", "==", "soon", false, false},
		{"abc", "==", "abc", false, true},
		{"abc", "!=", "abd", false, true},
		{"abc", ">", "abb", false, false},
		{"NaN", "==", "NaN", false, true},
		{"x", "<>", "y", false, false},

		// Boolean equality is inverted unless strict.
		{"true", "==", "true", false, false},
		{"true", "==", "false", false, true},
		{"true", "!=", "true", false, true},
		{"FALSE", "!=", "true", false, false},
		{"true", "==", "true", true, true},
		{"true", "!=", "false", true, true},
		{"true", "==", "false", true, false},
		{"true", "==", "yes", true, false},
		{"true", ">", "false", true, false},
	}
	for _, tt := range tests {
		got := compare(tt.left, tt.op, tt.right, tt.strict)
		assert.Equal(t, tt.want, got, "%s %s %s (strict=%v)", tt.left, tt.op, tt.right, tt.strict)
	}
}

func TestTruthy(t *testing.T) {
	for s, want := range map[string]bool{
		"true": true, "False": false, "0": false, "0.0": false, "1.5": true,
		"": false, "  ": false, "no": true, "{{missing}}": true,
	} {
		assert.Equal(t, want, truthy(s), "truthy(%q)", s)
	}
}

func TestEvaluateInline(t *testing.T) {
	f := testFiller(nil)
	scope := NewScope(Data{"status": str("paid"), "count": IntValue(3)})

	tests := []struct {
		name, in, want string
	}{
		{"true keeps body", "Status: {{if(status,==,paid)if}}Paid{{endif}}.", "Status: Paid."},
		{"false drops region", "Status: {{if(status,==,open)if}}Open{{endif}}.", "Status: ."},
		{"numeric operand", "{{if(count,>,2)if}}many{{endif}}", "many"},
		{"unresolved operand is literal", "{{if(other,==,other)if}}same{{endif}}", "same"},
		{"two regions", "{{if(count,<,1)if}}none{{endif}}{{if(count,>=,1)if}}some{{endif}}", "some"},
		{"bare markers", "{{if(status,==,paid)if X endif}}", " X "},
		{"wrong arity", "{{if(status,==)if}}X{{endif}}", ""},
		{"unterminated", "{{if(status,==,paid)if}}X", "{{if(status,==,paid)if}}X"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.evaluateInline(tt.in, scope))
		})
	}
}

func TestBlockCondition(t *testing.T) {
	f := testFiller(nil)
	scope := NewScope(Data{"total": IntValue(150), "flag": BoolValue(true), "empty": str("")})

	assert.True(t, f.blockCondition("@if total > 100", scope))
	assert.False(t, f.blockCondition("@if total <= 100", scope))
	assert.True(t, f.blockCondition("@if flag", scope))
	assert.False(t, f.blockCondition("@if empty", scope))
	assert.False(t, f.blockCondition("@if total >", scope))
	assert.True(t, f.blockCondition("Note: @if total == 150 @endif", scope))
}

func TestStrictBooleansConfig(t *testing.T) {
	scope := NewScope(Data{"paid": BoolValue(true)})

	lenient := testFiller(nil)
	assert.False(t, lenient.blockCondition("@if paid == true", scope))

	cfg := testConfig()
	cfg.StrictBooleans = true
	strict := newFiller(cfg, quietLogger(), nil)
	assert.True(t, strict.blockCondition("@if paid == true", scope))
}

func TestDateConditionIgnoresDateLayout(t *testing.T) {
	due := TimeValue(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name   string
		layout string
	}{
		{"default layout", ""},
		{"day first", "02.01.2006"},
		{"long form", "January 2, 2006"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.layout != "" {
				cfg.DateLayout = tt.layout
			}
			f := newFiller(cfg, quietLogger(), nil)
			scope := NewScope(Data{"d": due})

			assert.True(t, f.blockCondition("@if d > 2020-01-01", scope))
			assert.True(t, f.blockCondition("@if d == 2024-03-05", scope))
			assert.False(t, f.blockCondition("@if d < 2024-01-01", scope))

			doc := parseBody(t, docxtest.Paragraphs("@if d > 2020-01-01", "BODY", "@endif"))
			require.NoError(t, f.fillPart(doc.Body, scope))
			assert.Equal(t, []string{"BODY"}, texts(doc))
		})
	}
}

func TestEvaluateBlocks(t *testing.T) {
	doc := fillBody(t, docxtest.Paragraphs(
		"before",
		"@if show", "kept", "@endif",
		"@if hide", "dropped", "@endif",
		"after",
	), Data{"show": BoolValue(true), "hide": BoolValue(false)})

	assert.Equal(t, []string{"before", "kept", "after"}, texts(doc))
}

func TestEvaluateNestedBlocks(t *testing.T) {
	doc := fillBody(t, docxtest.Paragraphs(
		"@if a", "x", "@if b", "y", "@endif", "z", "@endif",
		"@if b", "outer dropped", "@if a", "inner", "@endif", "@endif",
	), Data{"a": BoolValue(true), "b": BoolValue(false)})

	assert.Equal(t, []string{"x", "z"}, texts(doc))
}

func TestEvaluateBlocksWithoutEnd(t *testing.T) {
	doc := fillBody(t, docxtest.Paragraphs("keep", "@if no", "gone", "also gone"), Data{"no": BoolValue(false)})
	assert.Equal(t, []string{"keep"}, texts(doc))
}

func TestInlineIfInParagraph(t *testing.T) {
	doc := fillBody(t, docxtest.Paragraphs(
		"Status: {{if(status,==,paid)if}}Paid{{endif}}",
		"{{if(status,!=,paid)if}}Due {{amount}}{{endif}}",
	), Data{"status": str("paid"), "amount": IntValue(5)})

	assert.Equal(t, []string{"Status: Paid", ""}, texts(doc))
}
