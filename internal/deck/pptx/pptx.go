// Package pptx binds the deck model to gooxml presentations.
package pptx

import (
	"fmt"

	"baliance.com/gooxml/common"
	"baliance.com/gooxml/measurement"
	"baliance.com/gooxml/presentation"
	"baliance.com/gooxml/schema/soo/dml"
	"baliance.com/gooxml/schema/soo/pml"

	"slidegen/internal/deck"
)

const (
	emuPerInch  = 914400
	emuPerPoint = 12700
)

type Backend struct{}

func NewBackend() *Backend {
	return &Backend{}
}

func (b *Backend) New(width, height float64) deck.Document {
	p := presentation.New()
	if p.X().SldSz == nil {
		p.X().SldSz = pml.NewCT_SlideSize()
	}
	p.X().SldSz.CxAttr = int32(width * emuPerInch)
	p.X().SldSz.CyAttr = int32(height * emuPerInch)
	return &document{p: p}
}

func (b *Backend) Open(path string) (deck.Document, error) {
	p, err := presentation.Open(path)
	if err != nil {
		return nil, err
	}
	return &document{p: p}, nil
}

type document struct {
	p *presentation.Presentation
}

func (d *document) Slides() []deck.Slide {
	var out []deck.Slide
	for _, s := range d.p.Slides() {
		out = append(out, &slide{doc: d, s: s, layout: -1})
	}
	return out
}

func (d *document) LayoutCount() int {
	return len(d.p.SlideLayouts())
}

func (d *document) layout(index int) (presentation.SlideLayout, error) {
	layouts := d.p.SlideLayouts()
	if index < 0 || index >= len(layouts) {
		return presentation.SlideLayout{}, fmt.Errorf("layout %d out of range (%d layouts)", index, len(layouts))
	}
	return layouts[index], nil
}

func (d *document) AddSlide(layout int) (deck.Slide, error) {
	l, err := d.layout(layout)
	if err != nil {
		return nil, err
	}
	s, err := d.p.AddDefaultSlideWithLayout(l)
	if err != nil {
		return nil, fmt.Errorf("add slide from layout %d: %w", layout, err)
	}
	return &slide{doc: d, s: s, layout: layout}, nil
}

func (d *document) AddLayoutSlide(layout int) (deck.Slide, error) {
	l, err := d.layout(layout)
	if err != nil {
		return nil, err
	}
	s, err := d.p.AddSlideWithLayout(l)
	if err != nil {
		return nil, fmt.Errorf("add slide from layout %d: %w", layout, err)
	}
	return &slide{doc: d, s: s, layout: layout}, nil
}

func (d *document) AddBlankSlide() deck.Slide {
	return &slide{doc: d, s: d.p.AddSlide(), layout: -1}
}

func (d *document) RemoveSlide(index int) error {
	slides := d.p.Slides()
	if index < 0 || index >= len(slides) {
		return fmt.Errorf("slide %d out of range (%d slides)", index, len(slides))
	}
	return d.p.RemoveSlide(slides[index])
}

func (d *document) SaveToFile(path string) error {
	return d.p.SaveToFile(path)
}

type slide struct {
	doc *document
	s   presentation.Slide

	// layout is the index the slide was instantiated from, -1 when unknown.
	layout int
}

func (s *slide) Placeholders() []deck.Placeholder {
	var out []deck.Placeholder
	for _, ph := range s.s.PlaceHolders() {
		out = append(out, &placeholder{slide: s, ph: ph})
	}
	return out
}

func (s *slide) AddText(box deck.Box, style deck.TextStyle, text string) {
	tb := s.s.AddTextBox()
	tb.Properties().SetGeometry(dml.ST_ShapeTypeRect)
	tb.Properties().SetPosition(inches(box.Left), inches(box.Top))
	tb.Properties().SetSize(inches(box.Width), inches(box.Height))

	para := tb.AddParagraph()
	para.Properties().SetAlign(alignment(style.Align))
	run := para.AddRun()
	run.SetText(text)
	run.Properties().SetSize(measurement.Distance(style.Size))
	run.Properties().SetBold(style.Bold)
	if style.Font != "" {
		run.Properties().SetFont(style.Font)
	}
}

func (s *slide) AddPicture(path string, box deck.Box) error {
	ref, err := s.doc.addImage(path)
	if err != nil {
		return err
	}

	width := inches(box.Width)
	height := inches(box.Height)
	if box.Height == 0 {
		height = ref.RelativeHeight(width)
	}

	pic := s.s.AddImage(ref)
	pic.Properties().SetPosition(inches(box.Left), inches(box.Top))
	pic.Properties().SetSize(width, height)
	return nil
}

func (d *document) addImage(path string) (common.ImageRef, error) {
	img, err := common.ImageFromFile(path)
	if err != nil {
		return common.ImageRef{}, fmt.Errorf("read image %s: %w", path, err)
	}
	ref, err := d.p.AddImage(img)
	if err != nil {
		return common.ImageRef{}, fmt.Errorf("add image %s: %w", path, err)
	}
	return ref, nil
}

func inches(v float64) measurement.Distance {
	return measurement.Distance(v) * measurement.Inch
}

func alignment(a deck.Align) dml.ST_TextAlignType {
	if a == deck.AlignCenter {
		return dml.ST_TextAlignTypeCtr
	}
	return dml.ST_TextAlignTypeL
}
