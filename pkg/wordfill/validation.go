package wordfill

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/xml"
)

// IssueSeverity indicates validation issue severity.
type IssueSeverity string

const (
	IssueSeverityError   IssueSeverity = "error"
	IssueSeverityWarning IssueSeverity = "warning"
)

// IssueCode identifies the kind of a validation issue.
type IssueCode string

const (
	IssueCodeRowBindings      IssueCode = "ROW_BINDINGS"
	IssueCodeForeachPath      IssueCode = "FOREACH_PATH"
	IssueCodeUnmatchedMarker  IssueCode = "UNMATCHED_MARKER"
	IssueCodeUnterminatedTag  IssueCode = "UNTERMINATED_TAG"
	IssueCodeUnparsablePart   IssueCode = "UNPARSABLE_PART"
	IssueCodeMalformedPackage IssueCode = "MALFORMED_PACKAGE"
)

// Placeholder is one {{key}} found in a template.
type Placeholder struct {
	Key       string `json:"key" yaml:"key"`
	Part      string `json:"part" yaml:"part"`
	Paragraph int    `json:"paragraph" yaml:"paragraph"`
}

// RowBinding lists the list roots one table row binds.
type RowBinding struct {
	Part  string   `json:"part" yaml:"part"`
	Table int      `json:"table" yaml:"table"`
	Row   int      `json:"row" yaml:"row"`
	Roots []string `json:"roots" yaml:"roots"`
}

// BlockMarker is an @foreach, @endforeach, @if or @endif paragraph.
type BlockMarker struct {
	Part      string `json:"part" yaml:"part"`
	Paragraph int    `json:"paragraph" yaml:"paragraph"`
	Marker    string `json:"marker" yaml:"marker"`
	Statement string `json:"statement" yaml:"statement"`
}

// ValidationIssue is one problem found in a template.
type ValidationIssue struct {
	Severity IssueSeverity `json:"severity" yaml:"severity"`
	Code     IssueCode     `json:"code" yaml:"code"`
	Part     string        `json:"part,omitempty" yaml:"part,omitempty"`
	Location string        `json:"location,omitempty" yaml:"location,omitempty"`
	Message  string        `json:"message" yaml:"message"`
}

// ValidationMetadata identifies the validated package.
type ValidationMetadata struct {
	DocumentHash string   `json:"documentHash" yaml:"document_hash"`
	Parts        []string `json:"parts" yaml:"parts"`
}

// ValidationReport describes what a render of the template would bind and
// the errors it would raise. Valid is false when any issue is an error.
type ValidationReport struct {
	Valid        bool               `json:"valid" yaml:"valid"`
	Metadata     ValidationMetadata `json:"metadata" yaml:"metadata"`
	Placeholders []Placeholder      `json:"placeholders" yaml:"placeholders"`
	Rows         []RowBinding       `json:"rows,omitempty" yaml:"rows,omitempty"`
	Blocks       []BlockMarker      `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	Issues       []ValidationIssue  `json:"issues" yaml:"issues"`
}

func (r *ValidationReport) addIssue(sev IssueSeverity, code IssueCode, part, location, format string, args ...any) {
	r.Issues = append(r.Issues, ValidationIssue{
		Severity: sev,
		Code:     code,
		Part:     part,
		Location: location,
		Message:  fmt.Sprintf(format, args...),
	})
	if sev == IssueSeverityError {
		r.Valid = false
	}
}

var blockMarkers = []string{blockForeachEnd, blockForeachBegin, blockIfEnd, blockIfBegin}

// ValidateTemplate inspects a DOCX template without rendering it. A package
// that cannot be opened is reported as an issue, not as an error.
func (e *Engine) ValidateTemplate(docx []byte) (*ValidationReport, error) {
	sum := sha256.Sum256(docx)
	report := &ValidationReport{
		Valid:    true,
		Metadata: ValidationMetadata{DocumentHash: hex.EncodeToString(sum[:])},
	}

	dr, err := NewDocxReader(bytes.NewReader(docx), int64(len(docx)))
	if err != nil {
		report.addIssue(IssueSeverityError, IssueCodeMalformedPackage, "", "", "%v", err)
		return report, nil
	}

	for _, part := range dr.FillableParts() {
		report.Metadata.Parts = append(report.Metadata.Parts, part)
		doc, err := parsePart(dr, part)
		if err != nil {
			report.addIssue(IssueSeverityError, IssueCodeUnparsablePart, part, "", "%v", err)
			continue
		}
		if doc.Body != nil {
			validatePart(report, part, doc.Body.Elements)
		}
	}
	e.Logger().Debug("Validated template: %d placeholders, %d issues", len(report.Placeholders), len(report.Issues))
	return report, nil
}

func validatePart(report *ValidationReport, part string, elements []xml.BodyElement) {
	for ti, t := range xml.Tables(elements) {
		for ri, row := range t.Rows {
			_, roots := rowBindings(row.Text())
			if len(roots) == 0 {
				continue
			}
			report.Rows = append(report.Rows, RowBinding{Part: part, Table: ti + 1, Row: ri + 1, Roots: roots})
			if len(roots) > maxRowRoots {
				report.addIssue(IssueSeverityError, IssueCodeRowBindings, part,
					fmt.Sprintf("table %d, %s", ti+1, rowLocation(ri)),
					"row binds %d list roots (%s), at most %d are supported",
					len(roots), strings.Join(roots, ", "), maxRowRoots)
			}
		}
	}

	open := map[string]int{}
	for pi, p := range xml.Paragraphs(elements) {
		text := p.Text()
		for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
			report.Placeholders = append(report.Placeholders, Placeholder{
				Key:       strings.TrimSpace(m[1]),
				Part:      part,
				Paragraph: pi + 1,
			})
		}
		if strings.Count(text, "{{") != strings.Count(text, "}}") {
			report.addIssue(IssueSeverityWarning, IssueCodeUnterminatedTag, part,
				fmt.Sprintf("paragraph %d", pi+1), "unbalanced braces in %q", strings.TrimSpace(text))
		}

		marker := paragraphMarker(text)
		if marker == "" {
			continue
		}
		report.Blocks = append(report.Blocks, BlockMarker{
			Part:      part,
			Paragraph: pi + 1,
			Marker:    marker,
			Statement: strings.TrimSpace(text),
		})
		switch marker {
		case blockForeachBegin:
			open[blockForeachBegin]++
			if _, ok := foreachPath(text); !ok {
				report.addIssue(IssueSeverityError, IssueCodeForeachPath, part,
					fmt.Sprintf("paragraph %d", pi+1), "@foreach has no data path in %q", strings.TrimSpace(text))
			}
		case blockForeachEnd:
			open[blockForeachBegin]--
		case blockIfBegin:
			open[blockIfBegin]++
		case blockIfEnd:
			open[blockIfBegin]--
		}
	}

	for _, begin := range []string{blockForeachBegin, blockIfBegin} {
		if n := open[begin]; n != 0 {
			report.addIssue(IssueSeverityWarning, IssueCodeUnmatchedMarker, part, "",
				"%s markers are unbalanced by %d", begin, n)
		}
	}
}

// paragraphMarker returns the block marker named in text. An end marker wins
// when a paragraph names both.
func paragraphMarker(text string) string {
	for _, m := range blockMarkers {
		if strings.Contains(text, m) {
			return m
		}
	}
	return ""
}
