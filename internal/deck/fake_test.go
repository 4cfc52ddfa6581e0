package deck

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakePlaceholder struct {
	role        Role
	paragraphs  []string
	picture     string
	failPicture bool
}

func (p *fakePlaceholder) Role() Role { return p.role }

func (p *fakePlaceholder) Text() string { return strings.Join(p.paragraphs, "\n") }

func (p *fakePlaceholder) SetText(text string) { p.paragraphs = []string{text} }

func (p *fakePlaceholder) ReplaceText(text string) { p.paragraphs = []string{text} }

func (p *fakePlaceholder) InsertPicture(path string) error {
	if p.failPicture {
		return errors.New("broken image")
	}
	p.picture = path
	return nil
}

type fakeText struct {
	box   Box
	style TextStyle
	text  string
}

type fakePicture struct {
	path string
	box  Box
}

type fakeSlide struct {
	layout       int
	verbatim     bool
	placeholders []*fakePlaceholder
	texts        []fakeText
	pictures     []fakePicture
}

func (s *fakeSlide) Placeholders() []Placeholder {
	out := make([]Placeholder, len(s.placeholders))
	for i, ph := range s.placeholders {
		out[i] = ph
	}
	return out
}

func (s *fakeSlide) AddText(box Box, style TextStyle, text string) {
	s.texts = append(s.texts, fakeText{box: box, style: style, text: text})
}

func (s *fakeSlide) AddPicture(path string, box Box) error {
	s.pictures = append(s.pictures, fakePicture{path: path, box: box})
	return nil
}

type fakeDoc struct {
	width   float64
	height  float64
	layouts [][]Role
	slides  []*fakeSlide
	saved   string
	saveErr error
}

func (d *fakeDoc) Slides() []Slide {
	out := make([]Slide, len(d.slides))
	for i, s := range d.slides {
		out[i] = s
	}
	return out
}

func (d *fakeDoc) LayoutCount() int { return len(d.layouts) }

func (d *fakeDoc) instantiate(layout int, verbatim bool) (*fakeSlide, error) {
	if layout < 0 || layout >= len(d.layouts) {
		return nil, fmt.Errorf("layout %d out of range", layout)
	}
	slide := &fakeSlide{layout: layout, verbatim: verbatim}
	for _, role := range d.layouts[layout] {
		slide.placeholders = append(slide.placeholders, &fakePlaceholder{role: role})
	}
	d.slides = append(d.slides, slide)
	return slide, nil
}

func (d *fakeDoc) AddSlide(layout int) (Slide, error) {
	return d.instantiate(layout, false)
}

func (d *fakeDoc) AddLayoutSlide(layout int) (Slide, error) {
	return d.instantiate(layout, true)
}

func (d *fakeDoc) AddBlankSlide() Slide {
	slide := &fakeSlide{layout: -1}
	d.slides = append(d.slides, slide)
	return slide
}

func (d *fakeDoc) RemoveSlide(index int) error {
	if index < 0 || index >= len(d.slides) {
		return fmt.Errorf("slide %d out of range", index)
	}
	d.slides = append(d.slides[:index], d.slides[index+1:]...)
	return nil
}

func (d *fakeDoc) SaveToFile(path string) error {
	if d.saveErr != nil {
		return d.saveErr
	}
	d.saved = path
	return nil
}

type fakeBackend struct {
	template *fakeDoc
	openErr  error
	opened   int
	created  *fakeDoc
}

func (b *fakeBackend) New(width, height float64) Document {
	b.created = &fakeDoc{width: width, height: height}
	return b.created
}

func (b *fakeBackend) Open(path string) (Document, error) {
	b.opened++
	if b.openErr != nil {
		return nil, b.openErr
	}
	return b.template, nil
}

var (
	titleLayoutRoles   = []Role{RoleTitle, RoleBody}
	contentLayoutRoles = []Role{RoleTitle, RoleBody, RolePicture}
	closingLayoutRoles = []Role{RoleTitle}
)

// newTemplate builds a template with the given slide count; slide i is an
// instance of layout i (or the last layout when there are fewer).
func newTemplate(slides int, layouts ...[]Role) *fakeDoc {
	if len(layouts) == 0 {
		layouts = [][]Role{titleLayoutRoles, contentLayoutRoles, closingLayoutRoles}
	}
	doc := &fakeDoc{layouts: layouts}
	for i := 0; i < slides; i++ {
		_, _ = doc.instantiate(min(i, len(layouts)-1), true)
	}
	return doc
}

func records(n int) []SlideRecord {
	out := make([]SlideRecord, n)
	for i := range out {
		out[i] = SlideRecord{
			Title: fmt.Sprintf("Title %d", i+1),
			Body:  fmt.Sprintf("Body %d", i+1),
		}
	}
	return out
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "img.png")
	if err := os.WriteFile(path, []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func allText(doc *fakeDoc) []string {
	var out []string
	for _, s := range doc.slides {
		for _, ph := range s.placeholders {
			out = append(out, ph.Text())
		}
		for _, text := range s.texts {
			out = append(out, text.text)
		}
	}
	return out
}
