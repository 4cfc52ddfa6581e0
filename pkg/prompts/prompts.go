package prompts

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultPromptsPath = "prompts.yaml"

//go:embed default.yaml
var defaultPrompts []byte

type Prompts struct {
	System SystemPrompts `yaml:"system"`
	Slides SlidePrompts  `yaml:"slides"`
	Image  ImagePrompts  `yaml:"image"`
}

type SystemPrompts struct {
	Slides string `yaml:"slides"`
}

type SlidePrompts struct {
	Generate string `yaml:"generate"`
}

type ImagePrompts struct {
	Generate string `yaml:"generate"`
}

type SlidesParams struct {
	Topic    string
	Count    int
	Language string
}

type ImageParams struct {
	Title       string
	Description string
}

// Load reads prompts.yaml from the working directory, falling back to the
// built-in prompts when the file does not exist.
func Load() (*Prompts, error) {
	p, err := LoadFrom(defaultPromptsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Default()
	}
	return p, err
}

func LoadFrom(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	p, err := parse(data)
	if err != nil {
		return nil, err
	}
	p.fillFrom(mustDefault())
	return p, nil
}

func Default() (*Prompts, error) {
	return parse(defaultPrompts)
}

func mustDefault() *Prompts {
	p, err := Default()
	if err != nil {
		panic(fmt.Sprintf("built-in prompts: %v", err))
	}
	return p
}

func parse(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	return &p, nil
}

func (p *Prompts) fillFrom(d *Prompts) {
	if p.System.Slides == "" {
		p.System.Slides = d.System.Slides
	}
	if p.Slides.Generate == "" {
		p.Slides.Generate = d.Slides.Generate
	}
	if p.Image.Generate == "" {
		p.Image.Generate = d.Image.Generate
	}
}

func (p *Prompts) RenderSlides(params SlidesParams) (string, error) {
	return render(p.Slides.Generate, params)
}

func (p *Prompts) RenderImage(params ImageParams) (string, error) {
	return render(p.Image.Generate, params)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
