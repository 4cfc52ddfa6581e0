package storage

import "context"

const PresentationMIME = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// Archiver copies a finished deck somewhere durable and returns its URL.
type Archiver interface {
	Archive(ctx context.Context, localPath, id string) (string, error)
}
