// Package storage keeps ticket documents on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/travel-approval/internal/application/port"
)

// ErrPathEscapes is returned for paths resolving outside the base directory
var ErrPathEscapes = errors.New("path escapes base directory")

const ticketFolder = "tickets"

// LocalDocumentStore implements port.DocumentStore for the local filesystem.
// Documents are laid out as tickets/{requestId}/{filename} under baseDir.
type LocalDocumentStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalDocumentStore creates a new LocalDocumentStore
func NewLocalDocumentStore(baseDir string, logger *zap.Logger) *LocalDocumentStore {
	return &LocalDocumentStore{
		baseDir: baseDir,
		logger:  logger,
	}
}

var _ port.DocumentStore = (*LocalDocumentStore)(nil)

// Save writes content for a request and returns its path relative to baseDir
func (s *LocalDocumentStore) Save(ctx context.Context, requestID, filename string, content []byte) (string, error) {
	folder := SanitizeName(requestID)
	name := SanitizeFilename(filename)
	if folder == "" || name == "" {
		return "", fmt.Errorf("invalid document name %q for request %q", filename, requestID)
	}

	relPath := filepath.ToSlash(filepath.Join(ticketFolder, folder, name))
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create document folder",
			zap.String("path", filepath.Dir(fullPath)),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write document",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("Document saved",
		zap.String("request_id", requestID),
		zap.String("path", relPath),
		zap.Int("size", len(content)))

	return relPath, nil
}

// Read returns the content stored at a path previously returned by Save
func (s *LocalDocumentStore) Read(ctx context.Context, relPath string) ([]byte, error) {
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("document %s: %w", relPath, port.ErrDocumentNotFound)
		}
		s.logger.Error("Failed to read document",
			zap.String("path", fullPath),
			zap.Error(err))
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return content, nil
}

// Delete removes a stored document. Missing files are not an error.
func (s *LocalDocumentStore) Delete(ctx context.Context, relPath string) error {
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Error("Failed to delete document",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// resolve joins relPath onto baseDir and rejects anything outside it
func (s *LocalDocumentStore) resolve(relPath string) (string, error) {
	if strings.TrimSpace(relPath) == "" {
		return "", fmt.Errorf("empty document path")
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(s.baseDir, filepath.FromSlash(relPath)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, relPath)
	}
	return absPath, nil
}
