package deck

// Canvas size in inches for freeform decks (16:9).
const (
	CanvasWidth  = 10.0
	CanvasHeight = 5.625
)

// Box is a region on the slide in inches. A zero Height keeps the
// aspect ratio of whatever is placed in it.
type Box struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
)

type TextStyle struct {
	Font  string
	Size  float64
	Bold  bool
	Align Align
}

type Placeholder interface {
	Role() Role
	Text() string
	SetText(text string)
	// ReplaceText clears the text frame and writes text as its only paragraph.
	ReplaceText(text string)
	// InsertPicture fills the placeholder with the image, keeping its frame.
	InsertPicture(path string) error
}

type Slide interface {
	Placeholders() []Placeholder
	AddText(box Box, style TextStyle, text string)
	AddPicture(path string, box Box) error
}

// Document is an in-memory deck. Slide and layout indexes are zero based.
type Document interface {
	Slides() []Slide
	LayoutCount() int
	// AddSlide appends a fresh instance of a layout with placeholder text cleared.
	AddSlide(layout int) (Slide, error)
	// AddLayoutSlide appends a layout instance verbatim.
	AddLayoutSlide(layout int) (Slide, error)
	AddBlankSlide() Slide
	RemoveSlide(index int) error
	SaveToFile(path string) error
}

type Backend interface {
	New(width, height float64) Document
	Open(path string) (Document, error)
}
