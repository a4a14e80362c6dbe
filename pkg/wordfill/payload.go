package wordfill

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/google/uuid"

	wxml "github.com/benjaminschreck/go-wordfill/pkg/wordfill/xml"
)

const pictureGraphicURI = "http://schemas.openxmlformats.org/drawingml/2006/picture"

// drawingNamespaces is declared on every generated drawing so the markup is
// valid whatever the part root declares.
var drawingNamespaces = fmt.Sprintf(`xmlns:wp=%q xmlns:a=%q xmlns:pic=%q xmlns:r=%q`,
	wxml.NamespaceWP, wxml.NamespaceA, wxml.NamespacePic, wxml.NamespaceR)

// hyperlinkElement builds a w:hyperlink bound to relationship relID.
func hyperlinkElement(link Hyperlink, relID string) *wxml.Hyperlink {
	attrs := []xml.Attr{
		{Name: xml.Name{Space: wxml.NamespaceR, Local: "id"}, Value: relID},
		wxml.WAttr("history", "1"),
	}
	if link.TargetFrame != "" {
		attrs = append(attrs, wxml.WAttr("tgtFrame", link.TargetFrame))
	}

	underline := link.Underline
	if underline == "" {
		underline = "single"
	}
	props := &wxml.RunProperties{}
	props.Set("rStyle", wxml.WAttr("val", "Hyperlink"))
	props.Set("color", wxml.WAttr("val", "0563C1"), wxml.WAttr("themeColor", "hyperlink"))
	props.Set("u", wxml.WAttr("val", underline))

	text := link.Text
	if text == "" {
		text = link.URL
	}
	run := &wxml.Run{Properties: props, Content: []wxml.RunContent{wxml.NewText(text)}}
	return &wxml.Hyperlink{Attrs: attrs, Content: []wxml.ParagraphContent{run}}
}

// coloredRun builds a run styled like base with the text's colours applied.
func coloredRun(base *wxml.Run, ct ColoredText) *wxml.Run {
	run := base.CloneEmpty()
	if run.Properties == nil {
		run.Properties = &wxml.RunProperties{}
	}
	if c := hexColor(ct.Color); c != "" {
		run.Properties.Set("color", wxml.WAttr("val", c))
	}
	if h := hexColor(ct.Highlight); h != "" {
		run.Properties.Set("shd", wxml.WAttr("val", "clear"), wxml.WAttr("color", "auto"), wxml.WAttr("fill", h))
	}
	run.Content = []wxml.RunContent{wxml.NewText(ct.Text)}
	return run
}

func hexColor(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "#")
}

// breakRun is a run holding a single line break, placed between inline items.
func breakRun(base *wxml.Run) *wxml.Run {
	run := base.CloneEmpty()
	run.Content = []wxml.RunContent{&wxml.Break{}}
	return run
}

// drawingElement builds the w:drawing for a picture embedded as relID.
// id must be unique among the drawings of the part.
func drawingElement(pic Picture, relID string, id int) *wxml.Drawing {
	graphic := pictureGraphic(pic, relID)
	cx, cy := pic.cx(), pic.cy()
	name := "Picture " + uuid.NewString()

	var inner string
	if pic.Anchor {
		inner = fmt.Sprintf(
			`<wp:anchor distT="0" distB="0" distL="114300" distR="114300" simplePos="0" relativeHeight="0" behindDoc="%s" locked="0" layoutInCell="1" allowOverlap="%s" %s>`+
				`<wp:simplePos x="0" y="0"/>`+
				`<wp:positionH relativeFrom="column"><wp:posOffset>%d</wp:posOffset></wp:positionH>`+
				`<wp:positionV relativeFrom="paragraph"><wp:posOffset>%d</wp:posOffset></wp:positionV>`+
				`<wp:extent cx="%d" cy="%d"/>`+
				`<wp:effectExtent l="0" t="0" r="0" b="0"/>`+
				`<wp:wrapNone/>`+
				`<wp:docPr id="%d" name="%s"/>`+
				`<wp:cNvGraphicFramePr><a:graphicFrameLocks noChangeAspect="1"/></wp:cNvGraphicFramePr>`+
				`%s</wp:anchor>`,
			flag(pic.BehindDoc), flag(pic.AllowOverlap), drawingNamespaces,
			pic.HorizontalOffset*emuPerPixel, pic.VerticalOffset*emuPerPixel,
			cx, cy, id, name, graphic)
	} else {
		inner = fmt.Sprintf(
			`<wp:inline distT="0" distB="0" distL="0" distR="0" %s>`+
				`<wp:extent cx="%d" cy="%d"/>`+
				`<wp:effectExtent l="0" t="0" r="0" b="0"/>`+
				`<wp:docPr id="%d" name="%s"/>`+
				`<wp:cNvGraphicFramePr><a:graphicFrameLocks noChangeAspect="1"/></wp:cNvGraphicFramePr>`+
				`%s</wp:inline>`,
			drawingNamespaces, cx, cy, id, name, graphic)
	}
	return &wxml.Drawing{RawXMLElement: wxml.RawXMLElement{Name: wxml.W("drawing"), Inner: []byte(inner)}}
}

func pictureGraphic(pic Picture, relID string) string {
	return fmt.Sprintf(
		`<a:graphic><a:graphicData uri="%s"><pic:pic>`+
			`<pic:nvPicPr><pic:cNvPr id="0" name="Image %s.%s"/><pic:cNvPicPr/></pic:nvPicPr>`+
			`<pic:blipFill><a:blip r:embed="%s" cstate="print"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
			`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
			`</pic:pic></a:graphicData></a:graphic>`,
		pictureGraphicURI, uuid.NewString(), pic.Ext(), relID, pic.cx(), pic.cy())
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
