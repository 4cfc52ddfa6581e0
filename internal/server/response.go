package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"os"

	"slidegen/internal/app"
	"slidegen/internal/deck"
	"slidegen/internal/storage"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeError maps pipeline errors to 422 for bad input and 500 otherwise.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Generation failed", "error", err)
	} else {
		slog.Warn("Request rejected", "error", err)
	}
	writeDetail(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrValidation),
		errors.Is(err, deck.ErrInvalidSpec),
		errors.Is(err, deck.ErrEmptyInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeDeck(w http.ResponseWriter, r *http.Request, result *app.Result) {
	f, err := os.Open(result.OutputPath)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Не удалось сгенерировать презентацию")
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Не удалось сгенерировать презентацию")
		return
	}

	w.Header().Set("Content-Type", storage.PresentationMIME)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.FileName}))
	w.Header().Set("X-Generation-ID", result.ID)
	if result.ArchiveURL != "" {
		w.Header().Set("X-Archive-URL", result.ArchiveURL)
	}
	http.ServeContent(w, r, result.FileName, info.ModTime(), f)
}
