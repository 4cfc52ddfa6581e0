package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sashabaranov/go-openai"

	"slidegen/pkg/httputil"
	"slidegen/pkg/prompts"
)

const maxImageBytes = 20 << 20

var (
	ErrNoImage      = errors.New("image service returned no image")
	ErrInvalidImage = errors.New("downloaded data is not an image")
)

type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	Size            string
	Timeout         time.Duration
	DownloadRetries int
}

type imageAPI interface {
	CreateImage(ctx context.Context, request openai.ImageRequest) (openai.ImageResponse, error)
}

type Generator struct {
	api        imageAPI
	downloader *httputil.RetryClient
	model      string
	size       string
	prompts    *prompts.Prompts
}

func New(cfg Config, p *prompts.Prompts) *Generator {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	config.HTTPClient = httpClient

	retry := httputil.DefaultRetryConfig()
	retry.MaxRetries = cfg.DownloadRetries

	return &Generator{
		api:        openai.NewClientWithConfig(config),
		downloader: httputil.NewRetryClient(httpClient, retry),
		model:      cfg.Model,
		size:       cfg.Size,
		prompts:    p,
	}
}

// Generate renders an illustration for one slide and stores it as
// <dir>/slide_<n>.png, returning the file path.
func (g *Generator) Generate(ctx context.Context, dir string, n int, title, description string) (string, error) {
	prompt, err := g.prompts.RenderImage(prompts.ImageParams{Title: title, Description: description})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	resp, err := g.api.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          g.model,
		N:              1,
		Size:           g.size,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", ErrNoImage
	}

	data, err := g.imageBytes(ctx, resp.Data[0])
	if err != nil {
		return "", err
	}
	if !ValidImage(data) {
		return "", ErrInvalidImage
	}

	path := Path(dir, n)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	slog.Debug("Image generated", "slide", n, "path", path, "bytes", len(data))
	return path, nil
}

func (g *Generator) imageBytes(ctx context.Context, item openai.ImageResponseDataInner) ([]byte, error) {
	if item.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
		return data, nil
	}
	if item.URL == "" {
		return nil, ErrNoImage
	}

	data, err := g.downloader.Fetch(ctx, item.URL, maxImageBytes)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	return data, nil
}

func Path(dir string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("slide_%d.png", n))
}

// ValidImage reports whether data is a JPEG, PNG or another registered
// image format.
func ValidImage(data []byte) bool {
	if bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}) {
		return true
	}
	if bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47}) {
		return true
	}
	_, _, err := image.DecodeConfig(bytes.NewReader(data))
	return err == nil
}
