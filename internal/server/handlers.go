package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"slidegen/internal/app"
	"slidegen/internal/deck"
	"slidegen/internal/history"
	"slidegen/internal/storage"
)

const requestField = "request"

type slideInput struct {
	Title *string `json:"zagolovok"`
	Body  *string `json:"opisanie"`
	Photo *string `json:"photo"`
}

type presentationRequest struct {
	Slides     *[]slideInput `json:"slides"`
	SlideCount *int          `json:"slide_count"`
	OutputPath *string       `json:"output_path"`
}

func (p presentationRequest) validate() error {
	var missing []string
	if p.Slides == nil {
		missing = append(missing, "slides")
	}
	if p.SlideCount == nil {
		missing = append(missing, "slide_count")
	}
	if p.Slides != nil {
		for i, s := range *p.Slides {
			if s.Title == nil {
				missing = append(missing, fmt.Sprintf("slides.%d.zagolovok", i))
			}
			if s.Body == nil {
				missing = append(missing, fmt.Sprintf("slides.%d.opisanie", i))
			}
		}
	}
	return missingFields(missing)
}

type topicRequest struct {
	Topic        *string `json:"topic"`
	SlideCount   *int    `json:"slide_count"`
	OutputPath   *string `json:"output_path"`
	TemplateMode *bool   `json:"template_mode"`
}

func (t topicRequest) validate() error {
	var missing []string
	if t.Topic == nil {
		missing = append(missing, "topic")
	}
	if t.SlideCount == nil {
		missing = append(missing, "slide_count")
	}
	return missingFields(missing)
}

func missingFields(fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	return fmt.Errorf("%w: field required: %s", app.ErrValidation, strings.Join(fields, ", "))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": WelcomeMessage})
}

func (s *Server) handleGeneratePresentation(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var req presentationRequest
	if err := decodeRequestField(r, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Ошибка валидации данных: "+err.Error())
		return
	}

	ws, err := s.workspaces.NewWorkspace()
	if err != nil {
		writeError(w, err)
		return
	}
	defer func() { _ = ws.Close() }()

	records, err := stageSlides(r, ws, *req.Slides)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.generator.FromSlides(r.Context(), app.SlidesRequest{
		Slides:     records,
		SlideCount: *req.SlideCount,
		OutputPath: valueOr(req.OutputPath, deck.DefaultOutputPath),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeDeck(w, r, result)
}

// stageSlides copies uploaded files into the workspace. The i-th file part
// belongs to the i-th slide and is used only when that slide names a photo.
func stageSlides(r *http.Request, ws *storage.Workspace, slides []slideInput) ([]deck.SlideRecord, error) {
	records := make([]deck.SlideRecord, len(slides))
	for i, sl := range slides {
		records[i] = deck.SlideRecord{Title: *sl.Title, Body: *sl.Body}
	}

	if r.MultipartForm == nil {
		return records, nil
	}
	for i, fh := range r.MultipartForm.File["files"] {
		if i >= len(slides) || valueOr(slides[i].Photo, "") == "" {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("ошибка сохранения файла %s: %w", fh.Filename, err)
		}
		path, err := ws.Save(i, fh.Filename, f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("ошибка сохранения файла %s: %w", fh.Filename, err)
		}
		records[i].ImagePath = path
	}
	return records, nil
}

func (s *Server) handleGenerateFromTopic(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	if isJSON(r) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "Неверный формат JSON в теле запроса")
			return
		}
	} else {
		if err := s.parseMultipart(w, r); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if err := decodeRequestField(r, &req); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}
	if err := req.validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Ошибка валидации данных: "+err.Error())
		return
	}

	result, err := s.generator.FromTopic(r.Context(), app.TopicRequest{
		Topic:        *req.Topic,
		SlideCount:   *req.SlideCount,
		OutputPath:   valueOr(req.OutputPath, deck.DefaultOutputPath),
		TemplateMode: valueOr(req.TemplateMode, false),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeDeck(w, r, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeDetail(w, http.StatusNotFound, "history is disabled")
		return
	}

	limit := history.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeDetail(w, http.StatusUnprocessableEntity, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.history.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return fmt.Errorf("ожидается multipart/form-data с полем '%s'", requestField)
	}
	return nil
}

func decodeRequestField(r *http.Request, v any) error {
	raw, ok := r.MultipartForm.Value[requestField]
	if !ok || len(raw) == 0 {
		return fmt.Errorf("ошибка валидации данных: field required: %s", requestField)
	}
	if err := json.Unmarshal([]byte(raw[0]), v); err != nil {
		return fmt.Errorf("неверный формат JSON в поле '%s'", requestField)
	}
	return nil
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
