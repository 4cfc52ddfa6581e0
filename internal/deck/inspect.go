package deck

import "fmt"

// TemplateReport describes how well a template fits template mode.
type TemplateReport struct {
	Path           string
	Slides         int
	Layouts        int
	TitleOnFirst   bool
	ContentTitle   bool
	ContentBody    bool
	ContentPicture bool
	HasClosing     bool
	Problems       []string
}

// Usable reports whether template mode can run against the template.
func (r TemplateReport) Usable() bool {
	return r.Slides >= 2 && r.Layouts >= 2
}

func InspectTemplate(doc Document) TemplateReport {
	slides := doc.Slides()
	report := TemplateReport{
		Slides:  len(slides),
		Layouts: doc.LayoutCount(),
	}

	if report.Slides < 2 {
		report.Problems = append(report.Problems, fmt.Sprintf("needs at least 2 slides (title and content), has %d", report.Slides))
	}
	if report.Layouts < 2 {
		report.Problems = append(report.Problems, fmt.Sprintf("needs at least 2 layouts, has %d", report.Layouts))
	}
	if report.Slides == 0 {
		return report
	}

	_, report.TitleOnFirst = FindFirst(slides[0].Placeholders(), RoleTitle)
	if !report.TitleOnFirst {
		report.Problems = append(report.Problems, "title slide has no title placeholder")
	}

	if report.Slides > 1 {
		content := slides[1].Placeholders()
		_, report.ContentTitle = FindFirst(content, RoleTitle)
		_, report.ContentBody = FindFirst(content, RoleBody)
		_, report.ContentPicture = FindFirst(content, RolePicture)
	}

	report.HasClosing = report.Slides > 2
	if !report.HasClosing {
		report.Problems = append(report.Problems, "no closing slide, none will be added")
	} else if report.Layouts < 3 {
		report.Problems = append(report.Problems, "closing slide present but no third layout to instantiate it from")
	}

	return report
}

// Inspect opens the template at path and reports on it.
func Inspect(backend Backend, path string) (TemplateReport, error) {
	doc, err := backend.Open(path)
	if err != nil {
		return TemplateReport{Path: path}, fmt.Errorf("%w: %s: %w", ErrTemplateLoad, path, err)
	}
	report := InspectTemplate(doc)
	report.Path = path
	return report, nil
}
