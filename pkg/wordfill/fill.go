package wordfill

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/render"
	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/xml"
)

// filler carries the settings of one fill run over a set of parts.
type filler struct {
	cfg   *Config
	log   *Logger
	res   Resources
	masks []*regexp.Regexp
	// drawings numbers the generated drawings of the current part.
	drawings int
}

func newFiller(cfg *Config, log *Logger, res Resources) *filler {
	if res == nil {
		res = NewPartResources("", nil, nil)
	}
	return &filler{
		cfg:   cfg,
		log:   log,
		res:   res,
		masks: render.CompileMasks(cfg.FieldCodeMasks),
		// Above the ids Word gives the drawings it creates itself.
		drawings: 1000,
	}
}

// rowLocation names a table row in error messages.
func rowLocation(i int) string {
	return fmt.Sprintf("row %d", i+1)
}

// validateStructure raises the ConfigurationErrors a fill would hit, before
// anything is modified.
func validateStructure(elements []xml.BodyElement) error {
	for ti, t := range xml.Tables(elements) {
		for ri, row := range t.Rows {
			if err := checkRow(row, fmt.Sprintf("table %d, %s", ti+1, rowLocation(ri))); err != nil {
				return err
			}
		}
	}
	for pi, p := range xml.Paragraphs(elements) {
		text := p.Text()
		if !strings.Contains(text, blockForeachBegin) {
			continue
		}
		if _, ok := foreachPath(text); !ok {
			return NewConfigurationError(fmt.Sprintf("paragraph %d", pi+1),
				"@foreach has no data path in %q", strings.TrimSpace(text))
		}
	}
	return nil
}

// fillPart runs the whole pipeline over one part's blocks.
func (f *filler) fillPart(body *xml.Body, scope *Scope) error {
	if body == nil {
		return nil
	}
	if err := validateStructure(body.Elements); err != nil {
		return err
	}

	healed, merged := 0, 0
	for _, p := range xml.Paragraphs(body.Elements) {
		healed += render.HealParagraph(p, f.cfg.HealLimit)
		merged += render.SimplifyFieldCodes(p, f.masks)
	}
	f.log.Debug("Prepared part: %d tags healed, %d field codes merged", healed, merged)

	if err := f.expandForeach(body, scope); err != nil {
		return err
	}
	if err := f.expandTables(body.Elements, scope); err != nil {
		return err
	}
	f.evaluateBlocks(body, scope)
	if err := f.substituteBlocks(body.Elements, scope); err != nil {
		return err
	}
	f.substituteFieldCodes(body.Elements, scope)
	return nil
}

// Fill substitutes data into doc in place, using the default engine's
// configuration. Rich payloads register their relationships with res; a nil
// res keeps them in memory.
func Fill(doc *xml.Document, data Data, res Resources) error {
	return DefaultEngine().Fill(doc, data, res)
}
