package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(originalWd) }()

	promptsContent := `
system:
  slides: "Custom system"

slides:
  generate: "Make {{.Count}} slides about {{.Topic}}"
`
	if err := os.WriteFile(filepath.Join(tmpDir, "prompts.yaml"), []byte(promptsContent), 0644); err != nil {
		t.Fatal(err)
	}

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}

	p, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if p.System.Slides != "Custom system" {
		t.Errorf("System.Slides = %q, want %q", p.System.Slides, "Custom system")
	}
	if p.Image.Generate == "" {
		t.Error("Image.Generate should fall back to the built-in prompt")
	}
}

func TestLoadWithoutFile(t *testing.T) {
	originalWd, _ := os.Getwd()
	defer func() { _ = os.Chdir(originalWd) }()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	p, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.System.Slides != "The output is in JSON format" {
		t.Errorf("System.Slides = %q", p.System.Slides)
	}
}

func TestLoadFromMissing(t *testing.T) {
	_, err := LoadFrom("/nonexistent/path.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	promptsPath := filepath.Join(tmpDir, "invalid.yaml")

	if err := os.WriteFile(promptsPath, []byte("not: valid: yaml: content:"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(promptsPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestDefaultRenderSlides(t *testing.T) {
	p, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	result, err := p.RenderSlides(SlidesParams{Topic: "Космос", Count: 4, Language: "ru"})
	if err != nil {
		t.Fatalf("RenderSlides() error = %v", err)
	}

	for _, want := range []string{`"Космос"`, "exactly 4", "zagolovok", "opisanie", `"ru"`} {
		if !strings.Contains(result, want) {
			t.Errorf("RenderSlides() missing %q in %q", want, result)
		}
	}
}

func TestRenderImage(t *testing.T) {
	p := &Prompts{
		Image: ImagePrompts{
			Generate: "{{.Title}}: {{.Description}}",
		},
	}

	result, err := p.RenderImage(ImageParams{Title: "Mars", Description: "Red planet"})
	if err != nil {
		t.Fatalf("RenderImage() error = %v", err)
	}

	if result != "Mars: Red planet" {
		t.Errorf("RenderImage() = %q, want %q", result, "Mars: Red planet")
	}
}

func TestRenderInvalidTemplate(t *testing.T) {
	p := &Prompts{
		Slides: SlidePrompts{
			Generate: "{{.Invalid",
		},
	}

	_, err := p.RenderSlides(SlidesParams{Topic: "test"})
	if err == nil {
		t.Error("expected error for invalid template")
	}
}
