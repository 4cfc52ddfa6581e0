package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"slidegen/internal/content"
	"slidegen/internal/deck"
	"slidegen/internal/deck/pptx"
	"slidegen/internal/history"
	"slidegen/internal/llm"
	"slidegen/internal/storage"
	"slidegen/pkg/config"
)

type fakeContent struct {
	records []deck.SlideRecord
	err     error
	req     content.Request
	calls   int
}

func (f *fakeContent) Generate(_ context.Context, req content.Request) ([]deck.SlideRecord, error) {
	f.calls++
	f.req = req
	if req.ImageDir != "" {
		if _, err := os.Stat(req.ImageDir); err != nil {
			return nil, err
		}
	}
	return f.records, f.err
}

type fakeArchiver struct {
	err  error
	ids  []string
	path string
}

func (f *fakeArchiver) Archive(_ context.Context, localPath, id string) (string, error) {
	f.ids = append(f.ids, id)
	f.path = localPath
	if f.err != nil {
		return "", f.err
	}
	return "gs://bucket/" + id, nil
}

type fakeHistory struct {
	entries []history.Entry
	err     error
}

func (f *fakeHistory) Record(_ context.Context, e history.Entry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeHistory) List(_ context.Context, _ int) ([]history.Entry, error) {
	return f.entries, nil
}

type testEnv struct {
	pipeline *Pipeline
	storage  *storage.LocalStorage
	content  *fakeContent
}

func newTestEnv(t *testing.T, opts ServiceOptions) *testEnv {
	t.Helper()
	root := t.TempDir()
	store := storage.NewLocalStorage(filepath.Join(root, "uploads"), filepath.Join(root, "output"))
	if err := store.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	fc, _ := opts.Content.(*fakeContent)
	if fc == nil {
		fc = &fakeContent{}
		opts.Content = fc
	}
	if opts.Config == nil {
		opts.Config = &config.Config{}
	}
	opts.Storage = store
	opts.Assembler = deck.NewAssembler(deck.AssemblerOptions{
		Backend:      pptx.NewBackend(),
		TemplatePath: filepath.Join(root, "missing-template.pptx"),
	})

	return &testEnv{
		pipeline: NewPipeline(NewService(opts)),
		storage:  store,
		content:  fc,
	}
}

func TestServiceGetters(t *testing.T) {
	cfg := &config.Config{}
	svc := NewService(ServiceOptions{Config: cfg})

	if svc.Config() != cfg {
		t.Error("Config() returned wrong config")
	}
	if svc.Content() != nil {
		t.Error("Content() should return nil when set to nil")
	}
	if svc.Assembler() != nil {
		t.Error("Assembler() should return nil when set to nil")
	}
	if svc.Storage() != nil {
		t.Error("Storage() should return nil when set to nil")
	}
	if svc.Archiver() != nil {
		t.Error("Archiver() should return nil when set to nil")
	}
	if svc.History() != nil {
		t.Error("History() should return nil when set to nil")
	}
}

func TestFromSlides(t *testing.T) {
	archiver := &fakeArchiver{}
	hist := &fakeHistory{}
	env := newTestEnv(t, ServiceOptions{Archiver: archiver, History: hist})

	result, err := env.pipeline.FromSlides(context.Background(), SlidesRequest{
		Slides: []deck.SlideRecord{
			{Title: "Первый", Body: "Текст"},
			{Title: "Второй", Body: "Ещё текст"},
			{Title: "Лишний", Body: "Не войдёт"},
		},
		SlideCount: 2,
		OutputPath: "report.pptx",
	})
	if err != nil {
		t.Fatalf("FromSlides() error = %v", err)
	}

	if result.FileName != "report.pptx" {
		t.Errorf("FileName = %q", result.FileName)
	}
	if result.OutputPath != filepath.Join(env.storage.OutputDir(), result.ID, "report.pptx") {
		t.Errorf("OutputPath = %q", result.OutputPath)
	}
	if _, err := os.Stat(result.OutputPath); err != nil {
		t.Errorf("deck not written: %v", err)
	}
	if result.Slides != 2 {
		t.Errorf("Slides = %d, want 2", result.Slides)
	}
	if env.content.calls != 0 {
		t.Error("content source should not be called for explicit slides")
	}

	if result.ArchiveURL != "gs://bucket/"+result.ID || archiver.path != result.OutputPath {
		t.Errorf("archive = %q from %q", result.ArchiveURL, archiver.path)
	}
	if len(hist.entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(hist.entries))
	}
	if e := hist.entries[0]; e.ID != result.ID || e.Mode != ModeSlides || e.SlideCount != 2 || e.ArchiveURL != result.ArchiveURL {
		t.Errorf("history entry = %+v", e)
	}
}

func TestFromSlidesOutputPathNormalized(t *testing.T) {
	tests := []struct {
		name       string
		outputPath string
		want       string
	}{
		{name: "empty", outputPath: "", want: "output.pptx"},
		{name: "wrongExtension", outputPath: "deck.ppt", want: "output.pptx"},
		{name: "nestedPath", outputPath: "../../etc/deck.pptx", want: "deck.pptx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, ServiceOptions{})
			result, err := env.pipeline.FromSlides(context.Background(), SlidesRequest{
				Slides:     []deck.SlideRecord{{Title: "A"}},
				SlideCount: 1,
				OutputPath: tt.outputPath,
			})
			if err != nil {
				t.Fatalf("FromSlides() error = %v", err)
			}
			if result.FileName != tt.want {
				t.Errorf("FileName = %q, want %q", result.FileName, tt.want)
			}
			if filepath.Dir(filepath.Dir(result.OutputPath)) != env.storage.OutputDir() {
				t.Errorf("OutputPath %q escapes output dir", result.OutputPath)
			}
		})
	}
}

func TestFromSlidesSeparateOutputs(t *testing.T) {
	env := newTestEnv(t, ServiceOptions{})
	req := SlidesRequest{Slides: []deck.SlideRecord{{Title: "A"}}, SlideCount: 1}

	first, err := env.pipeline.FromSlides(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	second, err := env.pipeline.FromSlides(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if first.OutputPath == second.OutputPath {
		t.Error("default-named decks must not share an output path")
	}
}

func TestFromSlidesValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     SlidesRequest
		wantErr error
	}{
		{name: "zeroCount", req: SlidesRequest{Slides: []deck.SlideRecord{{Title: "A"}}}, wantErr: ErrValidation},
		{name: "noSlides", req: SlidesRequest{SlideCount: 3}, wantErr: deck.ErrEmptyInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, ServiceOptions{})
			_, err := env.pipeline.FromSlides(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FromSlides() error = %v, want %v", err, tt.wantErr)
			}
			entries, _ := os.ReadDir(env.storage.OutputDir())
			if len(entries) != 0 {
				t.Errorf("failed generation left %d output entries", len(entries))
			}
		})
	}
}

func TestFromTopic(t *testing.T) {
	fc := &fakeContent{records: []deck.SlideRecord{
		{Title: "Синтаксис", Body: "Отступы."},
		{Title: "Типы", Body: "Динамические."},
	}}
	hist := &fakeHistory{}
	env := newTestEnv(t, ServiceOptions{Content: fc, History: hist})

	result, err := env.pipeline.FromTopic(context.Background(), TopicRequest{
		Topic:      "  Python  ",
		SlideCount: 3,
	})
	if err != nil {
		t.Fatalf("FromTopic() error = %v", err)
	}

	if fc.req.Topic != "Python" || fc.req.SlideCount != 3 || fc.req.TemplateMode {
		t.Errorf("content request = %+v", fc.req)
	}
	if fc.req.ImageDir != "" {
		t.Error("image dir should be empty when images are disabled")
	}
	if result.Slides != 3 {
		t.Errorf("Slides = %d, want 3 (title + 2 content)", result.Slides)
	}
	if result.FileName != "output.pptx" {
		t.Errorf("FileName = %q", result.FileName)
	}
	if len(hist.entries) != 1 || hist.entries[0].Topic != "Python" || hist.entries[0].Mode != ModeTopic {
		t.Errorf("history = %+v", hist.entries)
	}

	entries, _ := os.ReadDir(env.storage.UploadDir())
	if len(entries) != 0 {
		t.Errorf("workspace not released, %d entries in upload dir", len(entries))
	}
}

func TestFromTopicImagesUseWorkspace(t *testing.T) {
	cfg := &config.Config{}
	cfg.Images.Enabled = true
	env := newTestEnv(t, ServiceOptions{Config: cfg})

	if _, err := env.pipeline.FromTopic(context.Background(), TopicRequest{Topic: "x", SlideCount: 2}); err != nil {
		t.Fatalf("FromTopic() error = %v", err)
	}
	if filepath.Dir(env.content.req.ImageDir) != env.storage.UploadDir() {
		t.Errorf("ImageDir = %q, want a workspace under %q", env.content.req.ImageDir, env.storage.UploadDir())
	}
	if _, err := os.Stat(env.content.req.ImageDir); !os.IsNotExist(err) {
		t.Error("workspace should be removed after generation")
	}
}

func TestFromTopicValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     TopicRequest
		wantErr error
	}{
		{name: "blankTopic", req: TopicRequest{Topic: "  ", SlideCount: 3}, wantErr: ErrValidation},
		{name: "zeroCount", req: TopicRequest{Topic: "x"}, wantErr: ErrValidation},
		{name: "templateTooFew", req: TopicRequest{Topic: "x", SlideCount: 2, TemplateMode: true}, wantErr: deck.ErrInvalidSpec},
		{name: "templateTooMany", req: TopicRequest{Topic: "x", SlideCount: 21, TemplateMode: true}, wantErr: deck.ErrInvalidSpec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, ServiceOptions{})
			_, err := env.pipeline.FromTopic(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FromTopic() error = %v, want %v", err, tt.wantErr)
			}
			if env.content.calls != 0 {
				t.Error("content source must not be called for invalid requests")
			}
		})
	}
}

func TestFromTopicErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     TopicRequest
		content *fakeContent
		wantErr error
	}{
		{
			name:    "malformedModelOutput",
			req:     TopicRequest{Topic: "x", SlideCount: 4},
			content: &fakeContent{err: llm.ErrGenerationFormat},
			wantErr: llm.ErrGenerationFormat,
		},
		{
			name:    "missingTemplate",
			req:     TopicRequest{Topic: "x", SlideCount: 4, TemplateMode: true},
			content: &fakeContent{records: []deck.SlideRecord{{Title: "A"}, {Title: "B"}}},
			wantErr: deck.ErrTemplateStructure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hist := &fakeHistory{}
			env := newTestEnv(t, ServiceOptions{Content: tt.content, History: hist})

			_, err := env.pipeline.FromTopic(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FromTopic() error = %v, want %v", err, tt.wantErr)
			}
			if len(hist.entries) != 0 {
				t.Error("failed generation must not be recorded")
			}
			entries, _ := os.ReadDir(env.storage.OutputDir())
			if len(entries) != 0 {
				t.Errorf("failed generation left %d output entries", len(entries))
			}
		})
	}
}

func TestArchiveAndHistoryFailuresDegrade(t *testing.T) {
	env := newTestEnv(t, ServiceOptions{
		Archiver: &fakeArchiver{err: errors.New("bucket unavailable")},
		History:  &fakeHistory{err: errors.New("database locked")},
	})

	result, err := env.pipeline.FromSlides(context.Background(), SlidesRequest{
		Slides:     []deck.SlideRecord{{Title: "A"}},
		SlideCount: 1,
	})
	if err != nil {
		t.Fatalf("FromSlides() error = %v", err)
	}
	if result.ArchiveURL != "" {
		t.Errorf("ArchiveURL = %q, want empty", result.ArchiveURL)
	}
}
