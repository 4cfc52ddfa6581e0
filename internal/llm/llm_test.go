package llm

import (
	"errors"
	"strings"
	"testing"

	"slidegen/pkg/prompts"
)

func TestParseSlides(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []SlideDraft
		wantErr bool
	}{
		{
			name:    "bareArray",
			content: `[{"zagolovok": "Планеты", "opisanie": "Восемь планет."}]`,
			want:    []SlideDraft{{Title: "Планеты", Description: "Восемь планет."}},
		},
		{
			name:    "slidesEnvelope",
			content: `{"slides": [{"zagolovok": "A", "opisanie": "a"}, {"zagolovok": "B", "opisanie": "b"}]}`,
			want:    []SlideDraft{{Title: "A", Description: "a"}, {Title: "B", Description: "b"}},
		},
		{
			name:    "fencedJSON",
			content: "```json\n[{\"zagolovok\": \"A\", \"opisanie\": \"a\"}]\n```",
			want:    []SlideDraft{{Title: "A", Description: "a"}},
		},
		{
			name:    "emptyFieldsAccepted",
			content: `[{"zagolovok": "", "opisanie": ""}]`,
			want:    []SlideDraft{{}},
		},
		{
			name:    "emptyArray",
			content: `[]`,
			want:    []SlideDraft{},
		},
		{name: "notJSON", content: "Here are your slides", wantErr: true},
		{name: "null", content: "null", wantErr: true},
		{name: "paddedNull", content: "  null ", wantErr: true},
		{name: "nullSlides", content: `{"slides": null}`, wantErr: true},
		{name: "objectWithoutSlides", content: `{"items": []}`, wantErr: true},
		{name: "missingTitle", content: `[{"opisanie": "a"}]`, wantErr: true},
		{name: "missingDescription", content: `[{"zagolovok": "A"}]`, wantErr: true},
		{name: "elementNotObject", content: `["A", "B"]`, wantErr: true},
		{name: "singleObject", content: `{"zagolovok": "A", "opisanie": "a"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSlides(tt.content)
			if tt.wantErr {
				if !errors.Is(err, ErrGenerationFormat) {
					t.Errorf("ParseSlides() error = %v, want ErrGenerationFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSlides() unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseSlides() returned %d slides, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("slide %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuildRequest(t *testing.T) {
	p := &prompts.Prompts{
		System: prompts.SystemPrompts{Slides: "JSON only"},
		Slides: prompts.SlidePrompts{Generate: "{{.Count}} slides about {{.Topic}} in {{.Language}}"},
	}

	req, err := BuildRequest(p, "Python", 3, "en")
	if err != nil {
		t.Fatalf("BuildRequest() error = %v", err)
	}
	if req.System != "JSON only" {
		t.Errorf("System = %q", req.System)
	}
	if req.User != "3 slides about Python in en" {
		t.Errorf("User = %q", req.User)
	}

	p.Slides.Generate = "{{.Broken"
	if _, err := BuildRequest(p, "Python", 3, "en"); err == nil || !strings.Contains(err.Error(), "render prompt") {
		t.Errorf("BuildRequest() with bad template error = %v", err)
	}
}
