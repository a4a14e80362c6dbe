// Package docxtest builds small DOCX packages in memory for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"
)

const namespaces = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const packageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

// Paragraph returns a w:p with one plain run per fragment.
func Paragraph(fragments ...string) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	for _, f := range fragments {
		fmt.Fprintf(&b, `<w:r><w:t xml:space="preserve">%s</w:t></w:r>`, escape(f))
	}
	b.WriteString("</w:p>")
	return b.String()
}

// Paragraphs returns one single-run paragraph per text.
func Paragraphs(texts ...string) string {
	var b strings.Builder
	for _, t := range texts {
		b.WriteString(Paragraph(t))
	}
	return b.String()
}

// Table returns a w:tbl; each row is a list of cell texts.
func Table(rows ...[]string) string {
	var b strings.Builder
	b.WriteString("<w:tbl>")
	for _, row := range rows {
		b.WriteString("<w:tr>")
		for _, cell := range row {
			b.WriteString("<w:tc>" + Paragraph(cell) + "</w:tc>")
		}
		b.WriteString("</w:tr>")
	}
	b.WriteString("</w:tbl>")
	return b.String()
}

// Document wraps body markup in a w:document part.
func Document(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document ` + namespaces + `><w:body>` + body + `</w:body></w:document>`
}

// Header wraps block markup in a w:hdr part.
func Header(blocks string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:hdr ` + namespaces + `>` + blocks + `</w:hdr>`
}

// Footer wraps block markup in a w:ftr part.
func Footer(blocks string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:ftr ` + namespaces + `>` + blocks + `</w:ftr>`
}

// Package is a DOCX under construction.
type Package struct {
	files map[string]string
}

// New starts a package whose main document holds body.
func New(body string) *Package {
	return &Package{files: map[string]string{
		"[Content_Types].xml": contentTypes,
		"_rels/.rels":         packageRels,
		"word/document.xml":   Document(body),
	}}
}

// With adds or replaces a part.
func (p *Package) With(name, content string) *Package {
	p.files[name] = content
	return p
}

// Bytes zips the package.
func (p *Package) Bytes(t testing.TB) []byte {
	t.Helper()
	names := make([]string, 0, len(p.files))
	for name := range p.files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := io.WriteString(w, p.files[name]); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// ReadPart returns one part of a zipped package.
func ReadPart(t testing.TB, docx []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(docx), int64(len(docx)))
	if err != nil {
		t.Fatalf("open package: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return string(content)
	}
	t.Fatalf("part %s not found", name)
	return ""
}

// PartNames lists the parts of a zipped package in archive order.
func PartNames(t testing.TB, docx []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(docx), int64(len(docx)))
	if err != nil {
		t.Fatalf("open package: %v", err)
	}
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

// Text returns the concatenated w:t content of a part, paragraphs separated
// by newlines.
func Text(xmlContent string) string {
	var b strings.Builder
	rest := xmlContent
	for {
		i := strings.Index(rest, "<w:t")
		p := strings.Index(rest, "</w:p>")
		if i < 0 {
			break
		}
		if p >= 0 && p < i {
			b.WriteByte('\n')
			rest = rest[p+len("</w:p>"):]
			continue
		}
		rest = rest[i:]
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			break
		}
		tag := rest[:end+1]
		rest = rest[end+1:]
		if !strings.HasPrefix(tag, "<w:t>") && !strings.HasPrefix(tag, "<w:t ") {
			continue
		}
		if strings.HasSuffix(tag, "/>") {
			continue
		}
		stop := strings.Index(rest, "</w:t>")
		if stop < 0 {
			break
		}
		b.WriteString(unescape(rest[:stop]))
		rest = rest[stop+len("</w:t>"):]
	}
	return strings.TrimRight(b.String(), "\n")
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
var unescaper = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&#34;", `"`, "&#39;", "'", "&quot;", `"`, "&apos;", "'")

func escape(s string) string   { return escaper.Replace(s) }
func unescape(s string) string { return unescaper.Replace(s) }
