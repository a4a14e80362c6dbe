package wordfill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-wordfill/internal/docxtest"
)

func issueCodes(r *ValidationReport) []IssueCode {
	var codes []IssueCode
	for _, is := range r.Issues {
		codes = append(codes, is.Code)
	}
	return codes
}

func TestValidateTemplate(t *testing.T) {
	body := docxtest.Paragraphs("Dear {{customer.name}}", "@foreach {{items}}", "{{name}}", "@endforeach") +
		docxtest.Table([]string{"{{rows.a}}", "{{rows.b}} {{other.c}}"})
	docx := docxtest.New(body).
		With("word/header1.xml", docxtest.Header(docxtest.Paragraph("{{title}}"))).
		Bytes(t)

	report, err := testEngine().ValidateTemplate(docx)
	require.NoError(t, err)

	assert.True(t, report.Valid)
	assert.Empty(t, report.Issues)
	assert.Len(t, report.Metadata.DocumentHash, 64)
	assert.Equal(t, []string{"word/header1.xml", "word/document.xml"}, report.Metadata.Parts)

	assert.Equal(t, []Placeholder{
		{Key: "title", Part: "word/header1.xml", Paragraph: 1},
		{Key: "customer.name", Part: "word/document.xml", Paragraph: 1},
		{Key: "items", Part: "word/document.xml", Paragraph: 2},
		{Key: "name", Part: "word/document.xml", Paragraph: 3},
		{Key: "rows.a", Part: "word/document.xml", Paragraph: 5},
		{Key: "rows.b", Part: "word/document.xml", Paragraph: 6},
		{Key: "other.c", Part: "word/document.xml", Paragraph: 6},
	}, report.Placeholders)

	assert.Equal(t, []RowBinding{{Part: "word/document.xml", Table: 1, Row: 1, Roots: []string{"rows", "other"}}}, report.Rows)

	require.Len(t, report.Blocks, 2)
	assert.Equal(t, blockForeachBegin, report.Blocks[0].Marker)
	assert.Equal(t, "@foreach {{items}}", report.Blocks[0].Statement)
	assert.Equal(t, blockForeachEnd, report.Blocks[1].Marker)
}

func TestValidateTemplateIssues(t *testing.T) {
	body := docxtest.Paragraphs("@foreach items", "x", "@if a", "broken {{tag") +
		docxtest.Table([]string{"{{a.x}} {{b.x}} {{c.x}}"})

	report, err := testEngine().ValidateTemplate(docxtest.New(body).Bytes(t))
	require.NoError(t, err)

	assert.False(t, report.Valid)
	assert.ElementsMatch(t, []IssueCode{
		IssueCodeRowBindings,
		IssueCodeForeachPath,
		IssueCodeUnterminatedTag,
		IssueCodeUnmatchedMarker,
		IssueCodeUnmatchedMarker,
	}, issueCodes(report))

	for _, is := range report.Issues {
		switch is.Code {
		case IssueCodeRowBindings:
			assert.Equal(t, IssueSeverityError, is.Severity)
			assert.Equal(t, "table 1, row 1", is.Location)
		case IssueCodeForeachPath:
			assert.Equal(t, IssueSeverityError, is.Severity)
			assert.Equal(t, "paragraph 1", is.Location)
		default:
			assert.Equal(t, IssueSeverityWarning, is.Severity)
		}
	}
}

func TestValidateTemplateWarningsKeepValid(t *testing.T) {
	report, err := testEngine().ValidateTemplate(docxtest.New(docxtest.Paragraphs("@if x", "body")).Bytes(t))
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, []IssueCode{IssueCodeUnmatchedMarker}, issueCodes(report))
}

func TestValidateTemplateMalformed(t *testing.T) {
	report, err := testEngine().ValidateTemplate([]byte("not a zip"))
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Equal(t, []IssueCode{IssueCodeMalformedPackage}, issueCodes(report))

	broken := docxtest.New("").With("word/header1.xml", "<w:hdr>").Bytes(t)
	report, err = testEngine().ValidateTemplate(broken)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	require.Equal(t, []IssueCode{IssueCodeUnparsablePart}, issueCodes(report))
	assert.Equal(t, "word/header1.xml", report.Issues[0].Part)
}

func TestParagraphMarker(t *testing.T) {
	for text, want := range map[string]string{
		"@foreach {{x}}":     blockForeachBegin,
		"@endforeach":        blockForeachEnd,
		"@if a > 1":          blockIfBegin,
		"@endif":             blockIfEnd,
		"@if a @endif":       blockIfEnd,
		"plain text":         "",
	} {
		assert.Equal(t, want, paragraphMarker(text), text)
	}
}
