package deck

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	Extension         = ".pptx"
	DefaultOutputPath = "output.pptx"

	MinTemplateSlides = 3
	MaxTemplateSlides = 20

	// Slides reserved for the title and closing slides in template mode,
	// and for the title slide alone in freeform mode.
	TemplateReservedSlots = 2
	FreeformReservedSlots = 1
)

var (
	ErrEmptyInput  = errors.New("no slide records and no topic")
	ErrInvalidSpec = errors.New("invalid deck spec")
	ErrSave        = errors.New("save deck")

	ErrTemplateStructure    = errors.New("template structure")
	ErrTemplateLoad         = fmt.Errorf("%w: template cannot be loaded", ErrTemplateStructure)
	ErrTemplateShape        = fmt.Errorf("%w: template needs at least 2 slides", ErrTemplateStructure)
	ErrMissingContentLayout = fmt.Errorf("%w: template needs at least 2 layouts", ErrTemplateStructure)
)

// SlideRecord is the content of one slide. An empty ImagePath means no image.
type SlideRecord struct {
	Title     string
	Body      string
	ImagePath string
}

type Spec struct {
	Records      []SlideRecord
	TotalSlides  int
	Topic        string
	TemplateMode bool
	OutputPath   string
}

func (s Spec) Validate() error {
	if len(s.Records) == 0 && s.Topic == "" {
		return ErrEmptyInput
	}
	if s.TotalSlides < 1 {
		return fmt.Errorf("%w: slide count must be at least 1, got %d", ErrInvalidSpec, s.TotalSlides)
	}
	if s.TemplateMode {
		if err := ValidateTemplateCount(s.TotalSlides); err != nil {
			return err
		}
	}
	if s.OutputPath == "" {
		return fmt.Errorf("%w: output path is empty", ErrInvalidSpec)
	}
	return nil
}

func ValidateTemplateCount(n int) error {
	if n < MinTemplateSlides || n > MaxTemplateSlides {
		return fmt.Errorf("%w: template mode needs %d to %d slides, got %d",
			ErrInvalidSpec, MinTemplateSlides, MaxTemplateSlides, n)
	}
	return nil
}

// ContentSlots is how many content slides fit in total once the title
// (and, in template mode, the closing slide) are accounted for.
func ContentSlots(total int, templateMode bool) int {
	if templateMode {
		return total - TemplateReservedSlots
	}
	return total - FreeformReservedSlots
}

// NormalizeOutputPath returns path when it names a .pptx file and
// DefaultOutputPath otherwise.
func NormalizeOutputPath(path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasSuffix(path, Extension) {
		return DefaultOutputPath
	}
	return path
}

// FileName is the download name of a normalized output path.
func FileName(path string) string {
	name := filepath.Base(NormalizeOutputPath(path))
	if name == Extension || name == "." || name == string(filepath.Separator) {
		return DefaultOutputPath
	}
	return name
}
