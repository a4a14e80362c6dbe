package wordfill

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/xml"
)

// PreparedTemplate is a DOCX template ready for rendering. It keeps the
// source package only; every render parses its own copy of the parts, so
// one template may be rendered concurrently.
// Use Prepare() or PrepareFile() to create an instance.
type PreparedTemplate struct {
	source []byte
	reader *DocxReader
	parts  []string
	config *Config
	logger *Logger
	closed bool
	mu     sync.RWMutex
}

// prepare reads a package and checks that every fillable part parses.
func prepare(r io.Reader, config *Config, logger *Logger) (*PreparedTemplate, error) {
	source, err := io.ReadAll(r)
	if err != nil {
		return nil, NewDocumentError("read template", "", err)
	}
	dr, err := NewDocxReader(bytes.NewReader(source), int64(len(source)))
	if err != nil {
		return nil, err
	}

	parts := dr.FillableParts()
	for _, name := range parts {
		if _, err := parsePart(dr, name); err != nil {
			return nil, err
		}
	}
	logger.Debug("Prepared template with %d fillable parts", len(parts))

	return &PreparedTemplate{
		source: source,
		reader: dr,
		parts:  parts,
		config: config,
		logger: logger,
	}, nil
}

func parsePart(dr *DocxReader, name string) (*xml.Document, error) {
	content, err := dr.GetPart(name)
	if err != nil {
		return nil, NewDocumentError("read part", name, err)
	}
	doc, err := xml.ParseDocument(bytes.NewReader(content))
	if err != nil {
		return nil, NewDocumentError("parse part", name, err)
	}
	return doc, nil
}

// Parts returns the names of the parts a render fills, in fill order.
func (pt *PreparedTemplate) Parts() []string {
	return append([]string(nil), pt.parts...)
}

// Render fills the template with data and returns the resulting package.
func (pt *PreparedTemplate) Render(ctx context.Context, data Data) (io.Reader, error) {
	var buf bytes.Buffer
	if err := pt.RenderTo(ctx, &buf, data); err != nil {
		return nil, err
	}
	return bytes.NewReader(buf.Bytes()), nil
}

// SaveAs renders the template and writes the package to path atomically.
func (pt *PreparedTemplate) SaveAs(ctx context.Context, path string, data Data) error {
	var buf bytes.Buffer
	if err := pt.RenderTo(ctx, &buf, data); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return NewDocumentError("write", path, err)
	}
	return nil
}

// RenderTo fills the template with data and writes the package to w. Nothing
// is written when a part fails to fill.
func (pt *PreparedTemplate) RenderTo(ctx context.Context, w io.Writer, data Data) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	if pt.closed {
		return fmt.Errorf("template is closed")
	}

	out, err := pt.fill(data)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return writePackage(w, pt.reader, out)
}

// fill runs every fillable part through the pipeline and returns the parts
// to write: filled parts, changed relationships, new media and, when media
// was added, the updated content types.
func (pt *PreparedTemplate) fill(data Data) (map[string][]byte, error) {
	scope := NewScope(data)
	media := NewMedia()
	out := make(map[string][]byte)

	for _, name := range pt.parts {
		doc, err := parsePart(pt.reader, name)
		if err != nil {
			return nil, err
		}
		rels, err := pt.reader.GetRelationships(name)
		if err != nil {
			return nil, NewDocumentError("read relationships", name, err)
		}
		known := len(rels.Relationship)

		res := NewPartResources(path.Dir(name), rels, media)
		f := newFiller(pt.config, pt.logger.WithField("part", name), res)
		if err := f.fillPart(doc.Body, scope); err != nil {
			return nil, WithContext(err, "fill", map[string]any{"part": name})
		}

		content, err := doc.Marshal()
		if err != nil {
			return nil, NewDocumentError("serialize part", name, err)
		}
		out[name] = content

		if len(rels.Relationship) != known {
			relsContent, err := rels.Marshal()
			if err != nil {
				return nil, NewDocumentError("serialize relationships", name, err)
			}
			out[relsPath(name)] = relsContent
		}
	}

	for _, name := range media.Files() {
		content, _ := media.Get(name)
		out[name] = content
	}
	if exts := media.Extensions(); len(exts) > 0 {
		content, err := pt.contentTypes(exts)
		if err != nil {
			return nil, err
		}
		if content != nil {
			out[contentTypesPart] = content
		}
	}
	return out, nil
}

// contentTypes returns [Content_Types].xml with exts registered, or nil when
// they all are already.
func (pt *PreparedTemplate) contentTypes(exts []string) ([]byte, error) {
	ct := &ContentTypes{}
	if _, ok := pt.reader.Parts[contentTypesPart]; ok {
		content, err := pt.reader.GetPart(contentTypesPart)
		if err != nil {
			return nil, NewDocumentError("read", contentTypesPart, err)
		}
		if err := unmarshalPart(content, ct); err != nil {
			return nil, NewDocumentError("parse", contentTypesPart, err)
		}
	}
	if !ct.Register(exts...) {
		return nil, nil
	}
	if ct.Namespace == "" {
		ct.Namespace = contentTypesNamespace
	}
	content, err := marshalPart(ct)
	if err != nil {
		return nil, NewDocumentError("serialize", contentTypesPart, err)
	}
	return content, nil
}

// Close releases the template. After calling Close, the template should not be used.
func (pt *PreparedTemplate) Close() error {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if pt.closed {
		return nil
	}
	pt.closed = true
	pt.source = nil
	return nil
}
