package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

type secretAccessor interface {
	Access(ctx context.Context, name string) (string, error)
	Close() error
}

type secretAccessorFactory func(ctx context.Context, project string) (secretAccessor, error)

type secretManager struct {
	client  *secretmanager.Client
	project string
}

func newSecretManager(ctx context.Context, project string) (secretAccessor, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create secret manager client: %w", err)
	}
	return &secretManager{client: client, project: project}, nil
}

func (s *secretManager) Access(ctx context.Context, name string) (string, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.project, name),
	})
	if err != nil {
		return "", err
	}
	return string(resp.GetPayload().GetData()), nil
}

func (s *secretManager) Close() error {
	return s.client.Close()
}

// loadSecrets fills API keys that the environment left empty.
func loadSecrets(ctx context.Context, cfg *Config, factory secretAccessorFactory) error {
	targets := []struct {
		secret string
		dest   *string
	}{
		{cfg.Secrets.OpenAIKey, &cfg.OpenAIAPIKey},
		{cfg.Secrets.GroqKey, &cfg.GroqAPIKey},
		{cfg.Secrets.GeminiKey, &cfg.GeminiAPIKey},
		{cfg.Secrets.DeepSeekKey, &cfg.DeepSeekAPIKey},
		{cfg.Secrets.ImageKey, &cfg.ImageAPIKey},
		{cfg.Secrets.SearchKey, &cfg.SearchAPIKey},
	}

	var pending []int
	for i, t := range targets {
		if t.secret != "" && *t.dest == "" {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	if cfg.GCPProject == "" {
		return errors.New("secrets enabled but GOOGLE_CLOUD_PROJECT is not set")
	}

	client, err := factory(ctx, cfg.GCPProject)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	for _, i := range pending {
		value, err := client.Access(ctx, targets[i].secret)
		if err != nil {
			return fmt.Errorf("access secret %s: %w", targets[i].secret, err)
		}
		*targets[i].dest = strings.TrimSpace(value)
		slog.Debug("Loaded secret", "name", targets[i].secret)
	}
	return nil
}
