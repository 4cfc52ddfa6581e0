package app

import (
	"context"

	"slidegen/internal/content"
	"slidegen/internal/deck"
	"slidegen/internal/history"
	"slidegen/internal/storage"
	"slidegen/pkg/config"
)

type ContentSource interface {
	Generate(ctx context.Context, req content.Request) ([]deck.SlideRecord, error)
}

type History interface {
	Record(ctx context.Context, e history.Entry) error
	List(ctx context.Context, limit int) ([]history.Entry, error)
}

type Service struct {
	cfg       *config.Config
	content   ContentSource
	assembler *deck.Assembler
	storage   *storage.LocalStorage
	archiver  storage.Archiver
	history   History
}

type ServiceOptions struct {
	Config    *config.Config
	Content   ContentSource
	Assembler *deck.Assembler
	Storage   *storage.LocalStorage
	Archiver  storage.Archiver
	History   History
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		cfg:       opts.Config,
		content:   opts.Content,
		assembler: opts.Assembler,
		storage:   opts.Storage,
		archiver:  opts.Archiver,
		history:   opts.History,
	}
}

func (s *Service) Config() *config.Config { return s.cfg }
func (s *Service) Content() ContentSource { return s.content }
func (s *Service) Assembler() *deck.Assembler { return s.assembler }
func (s *Service) Storage() *storage.LocalStorage { return s.storage }
func (s *Service) Archiver() storage.Archiver { return s.archiver }
func (s *Service) History() History { return s.history }
