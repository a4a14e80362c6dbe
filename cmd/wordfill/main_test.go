package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/benjaminschreck/go-wordfill/internal/docxtest"
	"github.com/benjaminschreck/go-wordfill/pkg/wordfill"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quietEngine(t *testing.T) *wordfill.Engine {
	t.Helper()
	e := wordfill.New(
		wordfill.WithConfig(&wordfill.Config{CacheMaxSize: 0}),
		wordfill.WithLogger(wordfill.NewLogger(io.Discard, wordfill.LogOff)),
	)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func writeTemplate(t *testing.T, dir string, paragraphs ...string) string {
	t.Helper()
	path := filepath.Join(dir, "template.docx")
	require.NoError(t, os.WriteFile(path, docxtest.New(docxtest.Paragraphs(paragraphs...)).Bytes(t), 0o644))
	return path
}

func writeData(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func documentText(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return docxtest.Text(docxtest.ReadPart(t, content, "word/document.xml"))
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseQueries(t *testing.T) {
	got, err := parseQueries([]string{"items=SELECT * FROM items", " totals = SELECT sum(x)=1 FROM t"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"items":  "SELECT * FROM items",
		"totals": " SELECT sum(x)=1 FROM t",
	}, got)

	for _, bad := range []string{"noequals", "=SELECT 1", "name="} {
		_, err := parseQueries([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "jane.docx", outputName(filepath.Join("customers", "jane.yaml")))
	assert.Equal(t, "a.b.docx", outputName("a.b.json"))
}

func TestRenderBatch(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemplate(t, dir, "Dear {{name}}")
	files := []string{
		writeData(t, dir, "ann.json", `{"name": "Ann"}`),
		writeData(t, dir, "bob.yaml", "name: Bob\n"),
		writeData(t, dir, "cy.yml", "name: Cy\n"),
	}
	outDir := filepath.Join(dir, "out")

	n, err := renderBatch(context.Background(), quietEngine(t), tpl, outDir, files, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "Dear Ann", documentText(t, filepath.Join(outDir, "ann.docx")))
	assert.Equal(t, "Dear Bob", documentText(t, filepath.Join(outDir, "bob.docx")))
	assert.Equal(t, "Dear Cy", documentText(t, filepath.Join(outDir, "cy.docx")))
}

func TestRenderBatchCollectsFailures(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemplate(t, dir, "{{name}}")
	files := []string{
		writeData(t, dir, "ok.json", `{"name": "ok"}`),
		writeData(t, dir, "broken.json", `{"name": `),
		filepath.Join(dir, "missing.yaml"),
	}

	n, err := renderBatch(context.Background(), quietEngine(t), tpl, filepath.Join(dir, "out"), files, 1)
	assert.Equal(t, 1, n)
	require.Error(t, err)
	var multi *wordfill.MultiError
	require.ErrorAs(t, err, &multi)
	assert.Equal(t, 2, multi.Len())
	assert.Contains(t, err.Error(), "broken.json")
	assert.Contains(t, err.Error(), "missing.yaml")
}

func TestWatcherRendersOnChange(t *testing.T) {
	dir := t.TempDir()
	data := writeData(t, dir, "data.json", `{"n": 1}`)

	var renders atomic.Int32
	w, err := newWatcher([]string{data}, 20*time.Millisecond, wordfill.NewLogger(io.Discard, wordfill.LogOff),
		func(ctx context.Context) error {
			renders.Add(1)
			return nil
		})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.run(ctx) }()

	require.Eventually(t, func() bool { return renders.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, os.WriteFile(data, []byte(`{"n": 2}`), 0o644))
	require.Eventually(t, func() bool { return renders.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)

	// Files outside the watched set are ignored.
	time.Sleep(100 * time.Millisecond)
	before := renders.Load()
	writeData(t, dir, "other.json", `{}`)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, before, renders.Load())

	cancel()
	require.NoError(t, <-done)
}

func TestCLIRender(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemplate(t, dir, "{{greeting}}, {{name}}")
	base := writeData(t, dir, "base.yaml", "greeting: Hello\nname: nobody\n")
	override := writeData(t, dir, "override.json", `{"name": "Jane"}`)
	out := filepath.Join(dir, "out.docx")

	_, err := runCLI(t, "render", "--env-file", writeData(t, dir, "test.env", "WORDFILL_LOG_LEVEL=error\n"),
		"-t", tpl, "-d", base, "-d", override, "-o", out)
	require.NoError(t, err)
	assert.Equal(t, "Hello, Jane", documentText(t, out))
}

func TestCLIRenderQueryNeedsDatabase(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemplate(t, dir, "{{x}}")
	_, err := runCLI(t, "render", "-t", tpl, "-o", filepath.Join(dir, "out.docx"), "--query", "rows=SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--query requires --sqlite")
}

func TestCLIValidate(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemplate(t, dir, "{{name}}", "@if {{flag}}", "shown", "@endif")

	out, err := runCLI(t, "validate", "-t", tpl)
	require.NoError(t, err)
	assert.Contains(t, out, "valid: true")
	assert.Contains(t, out, "key: name")
	assert.Contains(t, out, "@if")

	bad := filepath.Join(dir, "bad.docx")
	require.NoError(t, os.WriteFile(bad, docxtest.New(docxtest.Paragraphs("@foreach", "@endforeach")).Bytes(t), 0o644))
	out, err = runCLI(t, "validate", "-t", bad, "-f", "json")
	require.Error(t, err)
	assert.Contains(t, out, `"code": "FOREACH_PATH"`)
}

func TestCLIVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "wordfill dev\n", out)
}
