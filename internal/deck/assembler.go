package deck

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

const DefaultTemplatePath = "templates/template.pptx"

const defaultFont = "Arial"

var (
	titleSlideBox   = Box{Left: 0, Top: 2, Width: CanvasWidth, Height: 1.5}
	contentTitleBox = Box{Left: 0, Top: 0.5, Width: CanvasWidth, Height: 1}
	bodyBox         = Box{Left: 0.5, Top: 1, Width: 5, Height: 4.5}
	pictureBox      = Box{Left: 6, Top: 1, Width: 3}

	titleSlideStyle   = TextStyle{Font: defaultFont, Size: 36, Bold: true, Align: AlignCenter}
	contentTitleStyle = TextStyle{Font: defaultFont, Size: 28, Bold: true, Align: AlignCenter}
	bodyStyle         = TextStyle{Font: defaultFont, Size: 14, Align: AlignLeft}
)

const (
	contentLayout = 1
	closingLayout = 2
)

type Assembler struct {
	backend      Backend
	templatePath string
}

type AssemblerOptions struct {
	Backend      Backend
	TemplatePath string
}

type Result struct {
	Path   string
	Slides int
}

func NewAssembler(opts AssemblerOptions) *Assembler {
	if opts.TemplatePath == "" {
		opts.TemplatePath = DefaultTemplatePath
	}
	return &Assembler{
		backend:      opts.Backend,
		templatePath: opts.TemplatePath,
	}
}

func (a *Assembler) TemplatePath() string {
	return a.templatePath
}

// Assemble validates spec, builds the deck and writes it to spec.OutputPath.
func (a *Assembler) Assemble(ctx context.Context, spec Spec) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		doc Document
		err error
	)
	if spec.TemplateMode {
		doc, err = a.BuildFromTemplate(spec)
	} else {
		doc, err = a.BuildFreeform(spec)
	}
	if err != nil {
		return nil, err
	}

	if err := doc.SaveToFile(spec.OutputPath); err != nil {
		slog.Error("Failed to save deck", "path", spec.OutputPath, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSave, err)
	}

	count := len(doc.Slides())
	slog.Info("Deck saved", "path", spec.OutputPath, "slides", count, "template", spec.TemplateMode)

	return &Result{Path: spec.OutputPath, Slides: count}, nil
}

func (a *Assembler) BuildFreeform(spec Spec) (Document, error) {
	if len(spec.Records) == 0 && spec.Topic == "" {
		return nil, ErrEmptyInput
	}

	doc := a.backend.New(CanvasWidth, CanvasHeight)

	limit := spec.TotalSlides
	if spec.Topic != "" {
		slide := doc.AddBlankSlide()
		slide.AddText(titleSlideBox, titleSlideStyle, spec.Topic)
		limit--
	}

	for i, rec := range truncate(spec.Records, limit) {
		slide := doc.AddBlankSlide()
		if rec.Title != "" {
			slide.AddText(contentTitleBox, contentTitleStyle, rec.Title)
		}
		if rec.Body != "" {
			slide.AddText(bodyBox, bodyStyle, rec.Body)
		}
		if !imageExists(rec.ImagePath) {
			continue
		}
		if err := slide.AddPicture(rec.ImagePath, pictureBox); err != nil {
			slog.Error("Failed to add image", "slide", i+1, "path", rec.ImagePath, "error", err)
		}
	}

	return doc, nil
}

func (a *Assembler) BuildFromTemplate(spec Spec) (Document, error) {
	doc, err := a.backend.Open(a.templatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTemplateLoad, a.templatePath, err)
	}

	slides := doc.Slides()
	if len(slides) < 2 {
		return nil, fmt.Errorf("%w: %s has %d", ErrTemplateShape, a.templatePath, len(slides))
	}
	if doc.LayoutCount() < 2 {
		return nil, fmt.Errorf("%w: %s has %d", ErrMissingContentLayout, a.templatePath, doc.LayoutCount())
	}
	original := len(slides)

	if ph, ok := FindFirst(slides[0].Placeholders(), RoleTitle); ok {
		ph.SetText(spec.Topic)
	} else {
		slog.Warn("Title slide has no title placeholder", "template", a.templatePath)
	}

	// Sample slides after the title are replaced by fresh layout instances.
	for i := original - 1; i >= 1; i-- {
		if err := doc.RemoveSlide(i); err != nil {
			return nil, fmt.Errorf("remove template slide %d: %w", i, err)
		}
	}

	for i, rec := range truncate(spec.Records, ContentSlots(spec.TotalSlides, true)) {
		slide, err := doc.AddSlide(contentLayout)
		if err != nil {
			return nil, fmt.Errorf("add content slide %d: %w", i+1, err)
		}
		fillTemplateSlide(slide, rec, i+1)
	}

	switch {
	case original < 3:
		slog.Warn("Template has no closing slide, skipping", "template", a.templatePath)
	case doc.LayoutCount() <= closingLayout:
		slog.Warn("Template has no closing layout, skipping", "template", a.templatePath, "layouts", doc.LayoutCount())
	default:
		if _, err := doc.AddLayoutSlide(closingLayout); err != nil {
			return nil, fmt.Errorf("add closing slide: %w", err)
		}
	}

	return doc, nil
}

func fillTemplateSlide(slide Slide, rec SlideRecord, index int) {
	placeholders := slide.Placeholders()

	switch ph, ok := FindFirst(placeholders, RoleTitle); {
	case !ok:
		slog.Warn("Slide has no title placeholder", "slide", index)
	case rec.Title == "":
		slog.Debug("Empty title, placeholder left blank", "slide", index)
	default:
		ph.SetText(rec.Title)
	}

	switch ph, ok := FindFirst(placeholders, RoleBody); {
	case !ok:
		slog.Warn("Slide has no body placeholder", "slide", index)
	case rec.Body == "":
		slog.Debug("Empty body, placeholder left blank", "slide", index)
	default:
		ph.ReplaceText(rec.Body)
	}

	if !imageExists(rec.ImagePath) {
		if rec.ImagePath != "" {
			slog.Warn("Image not found", "slide", index, "path", rec.ImagePath)
		}
		return
	}

	var err error
	if ph, ok := FindFirst(placeholders, RolePicture); ok {
		err = ph.InsertPicture(rec.ImagePath)
	} else {
		err = slide.AddPicture(rec.ImagePath, pictureBox)
	}
	if err != nil {
		slog.Error("Failed to add image", "slide", index, "path", rec.ImagePath, "error", err)
	}
}

func truncate(records []SlideRecord, limit int) []SlideRecord {
	if limit <= 0 {
		return nil
	}
	if len(records) > limit {
		return records[:limit]
	}
	return records
}

func imageExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
