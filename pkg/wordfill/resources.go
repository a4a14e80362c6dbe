package wordfill

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const (
	relationshipsNamespace = "http://schemas.openxmlformats.org/package/2006/relationships"
	hyperlinkRelationType  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	imageRelationType      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

// Resources registers the external objects a part references while it is
// filled. Both methods return the relationship id to use in the part.
type Resources interface {
	AddHyperlink(url string) string
	AddImage(data []byte, ext string) (string, error)
}

// Relationship represents a relationship in the DOCX package
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// Relationships is the content of a .rels part.
type Relationships struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Namespace    string         `xml:"xmlns,attr"`
	Relationship []Relationship `xml:"Relationship"`
}

// Add appends a relationship and returns its id. An existing relationship
// with the same type, target and mode is reused.
func (rs *Relationships) Add(typ, target, mode string) string {
	for _, rel := range rs.Relationship {
		if rel.Type == typ && rel.Target == target && rel.TargetMode == mode {
			return rel.ID
		}
	}
	id := rs.nextID()
	rs.Relationship = append(rs.Relationship, Relationship{ID: id, Type: typ, Target: target, TargetMode: mode})
	return id
}

func (rs *Relationships) nextID() string {
	maxID := 0
	for _, rel := range rs.Relationship {
		if num, err := strconv.Atoi(strings.TrimPrefix(rel.ID, "rId")); err == nil && num > maxID {
			maxID = num
		}
	}
	return fmt.Sprintf("rId%d", maxID+1)
}

// Marshal serializes the relationships with an XML declaration.
func (rs *Relationships) Marshal() ([]byte, error) {
	if rs.Namespace == "" {
		rs.Namespace = relationshipsNamespace
	}
	return marshalPart(rs)
}

// Media collects the images added while a package is filled, keyed by their
// path inside the package. Identical bytes are stored once.
type Media struct {
	mu    sync.Mutex
	files map[string][]byte
	bySum map[string]string
}

// NewMedia returns an empty media store.
func NewMedia() *Media {
	return &Media{files: make(map[string][]byte), bySum: make(map[string]string)}
}

// Add stores data and returns its package path, e.g. "word/media/wordfill_image3.png".
func (m *Media) Add(data []byte, ext string) string {
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:]) + "." + ext

	m.mu.Lock()
	defer m.mu.Unlock()
	if name, ok := m.bySum[key]; ok {
		return name
	}
	name := fmt.Sprintf("word/media/wordfill_image%d.%s", len(m.files)+1, ext)
	m.files[name] = data
	m.bySum[key] = name
	return name
}

// Files returns the stored package paths in sorted order.
func (m *Media) Files() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the bytes stored under name.
func (m *Media) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	return data, ok
}

// Extensions returns the distinct extensions of the stored files.
func (m *Media) Extensions() []string {
	seen := make(map[string]bool)
	var exts []string
	for _, name := range m.Files() {
		ext := strings.TrimPrefix(path.Ext(name), ".")
		if !seen[ext] {
			seen[ext] = true
			exts = append(exts, ext)
		}
	}
	return exts
}

// PartResources adds relationships to one part and images to the shared media.
type PartResources struct {
	Rels  *Relationships
	Media *Media
	// Dir is the directory of the part, used to make media targets relative.
	Dir string
}

// NewPartResources returns resources for a part in dir with the given
// relationships. A nil rels starts empty.
func NewPartResources(dir string, rels *Relationships, media *Media) *PartResources {
	if rels == nil {
		rels = &Relationships{Namespace: relationshipsNamespace}
	}
	if media == nil {
		media = NewMedia()
	}
	return &PartResources{Rels: rels, Media: media, Dir: dir}
}

// AddHyperlink registers an external hyperlink target.
func (pr *PartResources) AddHyperlink(url string) string {
	return pr.Rels.Add(hyperlinkRelationType, url, "External")
}

// AddImage stores the image and registers it with the part.
func (pr *PartResources) AddImage(data []byte, ext string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image data")
	}
	name := pr.Media.Add(data, ext)
	target := name
	if pr.Dir != "" {
		target = strings.TrimPrefix(name, pr.Dir+"/")
	}
	return pr.Rels.Add(imageRelationType, target, ""), nil
}
