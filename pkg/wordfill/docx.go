package wordfill

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	packageXMLHeader      = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
	contentTypesPart      = "[Content_Types].xml"
	mainDocumentPart      = "word/document.xml"
	contentTypesNamespace = "http://schemas.openxmlformats.org/package/2006/content-types"
)

var (
	headerPartPattern = regexp.MustCompile(`^word/header(\d+)\.xml$`)
	footerPartPattern = regexp.MustCompile(`^word/footer(\d+)\.xml$`)
)

// extensionContentTypes maps media extensions to their MIME types.
var extensionContentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
	"svg":  "image/svg+xml",
	"webp": "image/webp",
	"emf":  "image/x-emf",
	"wmf":  "image/x-wmf",
}

// DocxReader handles reading and parsing DOCX files
type DocxReader struct {
	reader *zip.Reader
	Parts  map[string]*zip.File
}

// NewDocxReader creates a new DOCX reader
func NewDocxReader(r io.ReaderAt, size int64) (*DocxReader, error) {
	zipReader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, NewDocumentError("open package", "", err)
	}

	dr := &DocxReader{
		reader: zipReader,
		Parts:  make(map[string]*zip.File),
	}
	for _, file := range zipReader.File {
		dr.Parts[file.Name] = file
	}

	if _, ok := dr.Parts[mainDocumentPart]; !ok {
		return nil, NewDocumentError("open package", mainDocumentPart, fmt.Errorf("missing main document part"))
	}
	return dr, nil
}

// DocxReaderFromFile creates a DocxReader from a file path
func DocxReaderFromFile(path string) (*DocxReader, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, NewDocumentError("read", path, err)
	}
	return NewDocxReader(bytes.NewReader(content), int64(len(content)))
}

// GetPart retrieves the content of a specific part
func (dr *DocxReader) GetPart(partName string) ([]byte, error) {
	file, ok := dr.Parts[partName]
	if !ok {
		return nil, fmt.Errorf("part %s not found", partName)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", partName, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", partName, err)
	}
	return content, nil
}

// relsPath returns the relationships part of partName,
// e.g. "word/document.xml" -> "word/_rels/document.xml.rels".
func relsPath(partName string) string {
	dir, base := path.Split(partName)
	return dir + "_rels/" + base + ".rels"
}

// GetRelationships retrieves the relationships of a part. A part without a
// relationships file has none.
func (dr *DocxReader) GetRelationships(partName string) (*Relationships, error) {
	rp := relsPath(partName)
	if _, ok := dr.Parts[rp]; !ok {
		return &Relationships{Namespace: relationshipsNamespace}, nil
	}
	content, err := dr.GetPart(rp)
	if err != nil {
		return nil, err
	}
	var rels Relationships
	if err := unmarshalPart(content, &rels); err != nil {
		return nil, fmt.Errorf("failed to parse relationships %s: %w", rp, err)
	}
	return &rels, nil
}

// ListParts returns the names of all parts in package order.
func (dr *DocxReader) ListParts() []string {
	parts := make([]string, 0, len(dr.reader.File))
	for _, file := range dr.reader.File {
		parts = append(parts, file.Name)
	}
	return parts
}

// FillableParts returns the parts the engine fills, in fill order: headers,
// then footers, each by number, then the main document.
func (dr *DocxReader) FillableParts() []string {
	var headers, footers []string
	for name := range dr.Parts {
		switch {
		case headerPartPattern.MatchString(name):
			headers = append(headers, name)
		case footerPartPattern.MatchString(name):
			footers = append(footers, name)
		}
	}
	sortByPartNumber(headers, headerPartPattern)
	sortByPartNumber(footers, footerPartPattern)

	parts := append(headers, footers...)
	return append(parts, mainDocumentPart)
}

func sortByPartNumber(names []string, pattern *regexp.Regexp) {
	num := func(name string) int {
		n, _ := strconv.Atoi(pattern.FindStringSubmatch(name)[1])
		return n
	}
	sort.Slice(names, func(i, j int) bool { return num(names[i]) < num(names[j]) })
}

// ContentTypeDefault registers a content type for an extension.
type ContentTypeDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// ContentTypeOverride registers a content type for one part.
type ContentTypeOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// ContentTypes is the [Content_Types].xml part.
type ContentTypes struct {
	XMLName   xml.Name              `xml:"Types"`
	Namespace string                `xml:"xmlns,attr"`
	Defaults  []ContentTypeDefault  `xml:"Default"`
	Overrides []ContentTypeOverride `xml:"Override"`
}

// Register adds a Default entry for each extension that has none yet.
// It reports whether anything was added.
func (ct *ContentTypes) Register(exts ...string) bool {
	registered := make(map[string]bool, len(ct.Defaults))
	for _, def := range ct.Defaults {
		registered[strings.ToLower(def.Extension)] = true
	}
	added := false
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if ext == "" || registered[ext] {
			continue
		}
		contentType, ok := extensionContentTypes[ext]
		if !ok {
			contentType = "image/" + ext
		}
		ct.Defaults = append(ct.Defaults, ContentTypeDefault{Extension: ext, ContentType: contentType})
		registered[ext] = true
		added = true
	}
	return added
}

func unmarshalPart(data []byte, v any) error {
	return xml.Unmarshal(data, v)
}

func marshalPart(v any) ([]byte, error) {
	out, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append([]byte(packageXMLHeader), out...), nil
}

// writePackage copies the source package into w. Parts named in out replace
// the source part of the same name; the others are appended in sorted order.
func writePackage(w io.Writer, dr *DocxReader, out map[string][]byte) error {
	zw := zip.NewWriter(w)
	for _, file := range dr.reader.File {
		if content, ok := out[file.Name]; ok {
			if err := writeZipFile(zw, file.Name, content); err != nil {
				return err
			}
			continue
		}
		if err := copyZipFile(zw, file); err != nil {
			return err
		}
	}

	var added []string
	for name := range out {
		if _, exists := dr.Parts[name]; !exists {
			added = append(added, name)
		}
	}
	sort.Strings(added)
	for _, name := range added {
		if err := writeZipFile(zw, name, out[name]); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zip writer: %w", err)
	}
	return nil
}

func writeZipFile(zw *zip.Writer, name string, content []byte) error {
	fw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := fw.Write(content); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func copyZipFile(zw *zip.Writer, file *zip.File) error {
	fw, err := zw.Create(file.Name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", file.Name, err)
	}
	fr, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	defer fr.Close()
	if _, err := io.Copy(fw, fr); err != nil {
		return fmt.Errorf("failed to copy %s: %w", file.Name, err)
	}
	return nil
}
