package wordfill

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/benjaminschreck/go-wordfill/internal/docxtest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testEngine returns an engine with default settings, no cache and no log output.
func testEngine(opts ...Option) *Engine {
	return New(append([]Option{WithConfig(&Config{}), WithLogger(quietLogger())}, opts...)...)
}

func prepareBytes(t *testing.T, e *Engine, docx []byte) *PreparedTemplate {
	t.Helper()
	tmpl, err := e.Prepare(bytes.NewReader(docx))
	require.NoError(t, err)
	t.Cleanup(func() { tmpl.Close() })
	return tmpl
}

func renderBytes(t *testing.T, tmpl *PreparedTemplate, data Data) []byte {
	t.Helper()
	out, err := tmpl.Render(context.Background(), data)
	require.NoError(t, err)
	b, err := io.ReadAll(out)
	require.NoError(t, err)
	return b
}

func invoicePackage() *docxtest.Package {
	body := docxtest.Paragraphs("Dear {{customer.name}},", "@if total > 100", "Thank you for the large order.", "@endif") +
		docxtest.Table([]string{"Item", "Qty"}, []string{"{{items.name}}", "{{items.qty}}"}) +
		docxtest.Paragraph("Total: {{total}}")
	return docxtest.New(body).
		With("word/header1.xml", docxtest.Header(docxtest.Paragraph("Invoice {{number}}"))).
		With("word/footer2.xml", docxtest.Footer(docxtest.Paragraph("Footer {{number}}"))).
		With("word/footer1.xml", docxtest.Footer(docxtest.Paragraph("Page {{page}}")))
}

func TestPreparedTemplateParts(t *testing.T) {
	tmpl := prepareBytes(t, testEngine(), invoicePackage().Bytes(t))

	assert.Equal(t, []string{
		"word/header1.xml",
		"word/footer1.xml",
		"word/footer2.xml",
		"word/document.xml",
	}, tmpl.Parts())
}

func TestRender(t *testing.T) {
	tmpl := prepareBytes(t, testEngine(), invoicePackage().Bytes(t))

	out := renderBytes(t, tmpl, Data{
		"customer": Map{"name": str("Jane")},
		"total":    IntValue(150),
		"number":   str("INV-7"),
		"items": List{
			Map{"name": str("Widget"), "qty": IntValue(2)},
			Map{"name": str("Gadget"), "qty": IntValue(1)},
		},
	})

	assert.Equal(t, "Dear Jane,\nThank you for the large order.\nItem\nQty\nWidget\n2\nGadget\n1\nTotal: 150",
		docxtest.Text(docxtest.ReadPart(t, out, "word/document.xml")))
	assert.Equal(t, "Invoice INV-7", docxtest.Text(docxtest.ReadPart(t, out, "word/header1.xml")))
	assert.Equal(t, "Page {{page}}", docxtest.Text(docxtest.ReadPart(t, out, "word/footer1.xml")))
	assert.Equal(t, "Footer INV-7", docxtest.Text(docxtest.ReadPart(t, out, "word/footer2.xml")))

	// Parts the engine does not touch are copied as they are.
	assert.Equal(t, docxtest.ReadPart(t, invoicePackage().Bytes(t), "_rels/.rels"), docxtest.ReadPart(t, out, "_rels/.rels"))
}

func TestRenderIsRepeatable(t *testing.T) {
	tmpl := prepareBytes(t, testEngine(), docxtest.New(docxtest.Paragraph("Hello {{name}}")).Bytes(t))

	first := renderBytes(t, tmpl, Data{"name": str("a")})
	second := renderBytes(t, tmpl, Data{"name": str("b")})

	assert.Equal(t, "Hello a", docxtest.Text(docxtest.ReadPart(t, first, "word/document.xml")))
	assert.Equal(t, "Hello b", docxtest.Text(docxtest.ReadPart(t, second, "word/document.xml")))
}

func TestRenderConcurrently(t *testing.T) {
	tmpl := prepareBytes(t, testEngine(), docxtest.New(docxtest.Paragraph("#{{n}}")).Bytes(t))

	results := make([][]byte, 16)
	var g errgroup.Group
	for i := range results {
		i := i
		g.Go(func() error {
			var buf bytes.Buffer
			if err := tmpl.RenderTo(context.Background(), &buf, Data{"n": IntValue(int64(i))}); err != nil {
				return err
			}
			results[i] = buf.Bytes()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for i, out := range results {
		assert.Equal(t, fmt.Sprintf("#%d", i), docxtest.Text(docxtest.ReadPart(t, out, "word/document.xml")))
	}
}

func TestRenderHyperlinkRelationships(t *testing.T) {
	tmpl := prepareBytes(t, testEngine(), docxtest.New(docxtest.Paragraph("Visit {{site}}")).Bytes(t))

	out := renderBytes(t, tmpl, Data{"site": Hyperlink{URL: "https://example.com/?a=1&b=2", Text: "us"}})

	rels := docxtest.ReadPart(t, out, "word/_rels/document.xml.rels")
	assert.Contains(t, rels, `Id="rId1"`)
	assert.Contains(t, rels, `Target="https://example.com/?a=1&amp;b=2"`)
	assert.Contains(t, rels, `TargetMode="External"`)

	document := docxtest.ReadPart(t, out, "word/document.xml")
	assert.Contains(t, document, `r:id="rId1"`)
	assert.Equal(t, "Visit us", docxtest.Text(document))
}

func TestRenderPicture(t *testing.T) {
	existingRels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
		`</Relationships>`
	pkg := docxtest.New(docxtest.Paragraph("{{logo}}")).
		With("word/_rels/document.xml.rels", existingRels).
		With("word/header1.xml", docxtest.Header(docxtest.Paragraph("{{logo}}")))
	tmpl := prepareBytes(t, testEngine(), pkg.Bytes(t))

	png := []byte("\x89PNG\r\n\x1a\n fake image")
	out := renderBytes(t, tmpl, Data{"logo": Picture{Bytes: png, Width: 32, Height: 32}})

	assert.Contains(t, docxtest.PartNames(t, out), "word/media/wordfill_image1.png")
	assert.Equal(t, string(png), docxtest.ReadPart(t, out, "word/media/wordfill_image1.png"))

	rels := docxtest.ReadPart(t, out, "word/_rels/document.xml.rels")
	assert.Contains(t, rels, `Target="styles.xml"`)
	assert.Contains(t, rels, `Id="rId2"`)
	assert.Contains(t, rels, `Target="media/wordfill_image1.png"`)

	// The header shares the image but has its own relationships.
	headerRels := docxtest.ReadPart(t, out, "word/_rels/header1.xml.rels")
	assert.Contains(t, headerRels, `Id="rId1"`)
	assert.Contains(t, headerRels, `Target="media/wordfill_image1.png"`)

	types := docxtest.ReadPart(t, out, "[Content_Types].xml")
	assert.Contains(t, types, `Extension="png" ContentType="image/png"`)
	assert.Contains(t, types, `PartName="/word/document.xml"`)
}

func TestSaveAs(t *testing.T) {
	tmpl := prepareBytes(t, testEngine(), docxtest.New(docxtest.Paragraph("Hello {{name}}")).Bytes(t))
	path := filepath.Join(t.TempDir(), "out.docx")

	require.NoError(t, tmpl.SaveAs(context.Background(), path, Data{"name": str("file")}))

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Hello file", docxtest.Text(docxtest.ReadPart(t, out, "word/document.xml")))
}

func TestSaveAsUnwritable(t *testing.T) {
	tmpl := prepareBytes(t, testEngine(), docxtest.New(docxtest.Paragraph("x")).Bytes(t))

	err := tmpl.SaveAs(context.Background(), filepath.Join(t.TempDir(), "missing", "out.docx"), Data{})
	require.Error(t, err)
	assert.True(t, IsDocumentError(err))
}

func TestRenderCancelled(t *testing.T) {
	tmpl := prepareBytes(t, testEngine(), docxtest.New(docxtest.Paragraph("x")).Bytes(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := tmpl.RenderTo(ctx, &buf, Data{})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, buf.Len())
}

func TestRenderClosedTemplate(t *testing.T) {
	tmpl, err := testEngine().Prepare(bytes.NewReader(docxtest.New(docxtest.Paragraph("x")).Bytes(t)))
	require.NoError(t, err)
	require.NoError(t, tmpl.Close())
	require.NoError(t, tmpl.Close())

	_, err = tmpl.Render(context.Background(), Data{})
	assert.EqualError(t, err, "template is closed")
}

func TestRenderConfigurationError(t *testing.T) {
	body := docxtest.Paragraph("{{name}}") + docxtest.Table([]string{"{{a.x}}", "{{b.x}}", "{{c.x}}"})
	tmpl := prepareBytes(t, testEngine(), docxtest.New(body).Bytes(t))

	var buf bytes.Buffer
	err := tmpl.RenderTo(context.Background(), &buf, Data{"name": str("n")})
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "part=word/document.xml")
	assert.Contains(t, err.Error(), "table 1, row 1")
	assert.Zero(t, buf.Len())
}

func TestPrepareRejectsBadPackages(t *testing.T) {
	_, err := testEngine().Prepare(strings.NewReader("not a zip"))
	require.Error(t, err)
	assert.True(t, IsDocumentError(err))

	broken := docxtest.New("").With("word/document.xml", "<w:document><w:body>").Bytes(t)
	_, err = testEngine().Prepare(bytes.NewReader(broken))
	require.Error(t, err)
	assert.True(t, IsDocumentError(err))
	assert.Contains(t, err.Error(), "word/document.xml")
}
