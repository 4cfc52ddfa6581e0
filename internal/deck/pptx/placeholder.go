package pptx

import (
	"log/slog"
	"strings"

	"baliance.com/gooxml/measurement"
	"baliance.com/gooxml/presentation"
	"baliance.com/gooxml/schema/soo/dml"
	"baliance.com/gooxml/schema/soo/pml"

	"slidegen/internal/deck"
)

type placeholder struct {
	slide *slide
	ph    presentation.PlaceHolder
}

func roleOf(t pml.ST_PlaceholderType) deck.Role {
	switch t {
	case pml.ST_PlaceholderTypeTitle, pml.ST_PlaceholderTypeCtrTitle:
		return deck.RoleTitle
	case pml.ST_PlaceholderTypeBody, pml.ST_PlaceholderTypeObj, pml.ST_PlaceholderTypeUnset:
		return deck.RoleBody
	case pml.ST_PlaceholderTypePic:
		return deck.RolePicture
	default:
		return deck.RoleOther
	}
}

func (p *placeholder) Role() deck.Role {
	return roleOf(p.ph.Type())
}

func (p *placeholder) Text() string {
	body := p.ph.X().TxBody
	if body == nil {
		return ""
	}
	var paragraphs []string
	for _, para := range body.P {
		var sb strings.Builder
		for _, run := range para.EG_TextRun {
			if run.R != nil {
				sb.WriteString(run.R.T)
			}
		}
		paragraphs = append(paragraphs, sb.String())
	}
	return strings.Join(paragraphs, "\n")
}

func (p *placeholder) SetText(text string) {
	p.ph.SetText(text)
}

func (p *placeholder) ReplaceText(text string) {
	p.ph.ClearAll()
	p.ph.AddParagraph().AddRun().SetText(text)
}

// InsertPicture places the image inside the placeholder frame, scaled to fit
// and centered, then drops the placeholder shape. A placeholder without a
// transform takes the frame of its layout or master counterpart; when none is
// found the image goes to the fixed picture region.
func (p *placeholder) InsertPicture(path string) error {
	ref, err := p.slide.doc.addImage(path)
	if err != nil {
		return err
	}

	frame, ok := p.frame()
	if !ok {
		slog.Warn("Picture placeholder has no frame, using fixed region", "layout", p.slide.layout)
		frame = frameRect{
			x:  inches(6),
			y:  inches(1),
			cx: inches(3),
			cy: ref.RelativeHeight(inches(3)),
		}
	}

	w, h := fit(frame.cx, frame.cy, float64(ref.Size().X), float64(ref.Size().Y))
	pic := p.slide.s.AddImage(ref)
	pic.Properties().SetPosition(frame.x+(frame.cx-w)/2, frame.y+(frame.cy-h)/2)
	pic.Properties().SetSize(w, h)

	return p.ph.Remove()
}

func (p *placeholder) frame() (frameRect, bool) {
	sp := p.ph.X()
	if f, ok := frameOf(sp.SpPr); ok {
		return f, true
	}
	if sp.NvSpPr == nil || sp.NvSpPr.NvPr == nil || sp.NvSpPr.NvPr.Ph == nil {
		return frameRect{}, false
	}
	ph := sp.NvSpPr.NvPr.Ph

	if l, err := p.slide.doc.layout(p.slide.layout); err == nil {
		if match := findPlaceholder(l.X().CSld, ph, false); match != nil {
			if f, ok := frameOf(match.SpPr); ok {
				return f, true
			}
		}
	}
	for _, m := range p.slide.doc.p.SlideMasters() {
		if match := findPlaceholder(m.X().CSld, ph, true); match != nil {
			if f, ok := frameOf(match.SpPr); ok {
				return f, true
			}
		}
	}
	return frameRect{}, false
}

// findPlaceholder returns the shape in csld that want inherits from. Layout
// placeholders match on idx, then type. Masters only carry the title and body
// frames, so everything that is not a title resolves to the body.
func findPlaceholder(csld *pml.CT_CommonSlideData, want *pml.CT_Placeholder, master bool) *pml.CT_Shape {
	if csld == nil || csld.SpTree == nil {
		return nil
	}
	var shapes []*pml.CT_Shape
	for _, choice := range csld.SpTree.Choice {
		for _, sp := range choice.Sp {
			if sp.NvSpPr != nil && sp.NvSpPr.NvPr != nil && sp.NvSpPr.NvPr.Ph != nil {
				shapes = append(shapes, sp)
			}
		}
	}

	if master {
		typ := masterType(want.TypeAttr)
		for _, sp := range shapes {
			if masterType(sp.NvSpPr.NvPr.Ph.TypeAttr) == typ {
				return sp
			}
		}
		return nil
	}

	if want.IdxAttr != nil {
		for _, sp := range shapes {
			if idx := sp.NvSpPr.NvPr.Ph.IdxAttr; idx != nil && *idx == *want.IdxAttr {
				return sp
			}
		}
	}
	for _, sp := range shapes {
		if sp.NvSpPr.NvPr.Ph.TypeAttr == want.TypeAttr {
			return sp
		}
	}
	return nil
}

func masterType(t pml.ST_PlaceholderType) pml.ST_PlaceholderType {
	switch t {
	case pml.ST_PlaceholderTypeTitle, pml.ST_PlaceholderTypeCtrTitle:
		return pml.ST_PlaceholderTypeTitle
	case pml.ST_PlaceholderTypeDt, pml.ST_PlaceholderTypeFtr, pml.ST_PlaceholderTypeSldNum:
		return t
	default:
		return pml.ST_PlaceholderTypeBody
	}
}

type frameRect struct {
	x, y, cx, cy measurement.Distance
}

func frameOf(spPr *dml.CT_ShapeProperties) (frameRect, bool) {
	if spPr == nil || spPr.Xfrm == nil {
		return frameRect{}, false
	}
	xfrm := spPr.Xfrm
	if xfrm.Off == nil || xfrm.Ext == nil {
		return frameRect{}, false
	}
	x, y := xfrm.Off.XAttr.ST_CoordinateUnqualified, xfrm.Off.YAttr.ST_CoordinateUnqualified
	if x == nil || y == nil || xfrm.Ext.CxAttr == 0 || xfrm.Ext.CyAttr == 0 {
		return frameRect{}, false
	}
	return frameRect{
		x:  emu(*x),
		y:  emu(*y),
		cx: emu(xfrm.Ext.CxAttr),
		cy: emu(xfrm.Ext.CyAttr),
	}, true
}

// fit scales an image of the given pixel size to the largest size that fits
// in the frame while keeping its aspect ratio.
func fit(cx, cy measurement.Distance, px, py float64) (measurement.Distance, measurement.Distance) {
	if px <= 0 || py <= 0 {
		return cx, cy
	}
	scale := min(float64(cx)/px, float64(cy)/py)
	return measurement.Distance(px * scale), measurement.Distance(py * scale)
}

func emu(v int64) measurement.Distance {
	return measurement.Distance(float64(v) / emuPerPoint)
}
