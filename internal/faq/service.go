package faq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// ErrNotConfigured is returned when no embedding model is available.
var ErrNotConfigured = errors.New("faq: embedding model not configured")

// Service ingests clinic FAQs and answers semantic searches over them.
type Service struct {
	embedder Embedder
	index    *MemoryIndex
	repo     Repository
	s3       S3API
	logger   *logging.Logger
}

type Option func(*Service)

// WithRepository persists embedded entries and hydrates the index in Setup.
func WithRepository(repo Repository) Option {
	return func(s *Service) { s.repo = repo }
}

// WithS3 enables s3:// sources for IngestFile.
func WithS3(client S3API) Option {
	return func(s *Service) { s.s3 = client }
}

func NewService(embedder Embedder, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		embedder: embedder,
		index:    NewMemoryIndex(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Setup loads previously ingested entries from the repository into the index.
// It is safe to call more than once.
func (s *Service) Setup(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	vectors, err := s.repo.LoadAll(ctx)
	if err != nil {
		return err
	}
	s.index.Upsert(vectors...)
	s.logger.Info("faq index hydrated", "entries", len(vectors))
	return nil
}

// Ingest embeds entries and upserts them by id. It returns the number ingested.
func (s *Service) Ingest(ctx context.Context, entries []Entry) (int, error) {
	if s.embedder == nil {
		return 0, ErrNotConfigured
	}
	if len(entries) == 0 {
		return 0, ErrNoEntries
	}

	docs := make([]string, len(entries))
	for i, e := range entries {
		docs[i] = e.document()
	}
	embeddings, err := s.embedder.Embed(ctx, docs)
	if err != nil {
		return 0, err
	}
	if len(embeddings) != len(entries) {
		return 0, errors.New("faq: embedding response size mismatch")
	}

	vectors := make([]Vector, len(entries))
	for i, e := range entries {
		vectors[i] = Vector{Entry: e, Embedding: embeddings[i]}
	}
	if s.repo != nil {
		if err := s.repo.Save(ctx, vectors); err != nil {
			return 0, err
		}
	}
	s.index.Upsert(vectors...)
	s.logger.Info("faq entries ingested", "count", len(vectors), "indexed", s.index.Len())
	return len(vectors), nil
}

// IngestFile reads a FAQ document from a local path or an s3://bucket/key URI.
func (s *Service) IngestFile(ctx context.Context, location string) (int, error) {
	data, err := s.readSource(ctx, location)
	if err != nil {
		return 0, err
	}
	entries, err := ParseEntries(data)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", location, err)
	}
	return s.Ingest(ctx, entries)
}

// Search returns the closest entries to query, best first.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 || s.index.Len() == 0 {
		return nil, nil
	}
	if s.embedder == nil {
		return nil, ErrNotConfigured
	}
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, nil
	}
	return s.index.Search(vecs[0], limit), nil
}
