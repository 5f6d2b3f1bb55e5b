package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// LocalStore keeps objects as files under basePath.
type LocalStore struct {
	basePath   string
	compressor *Compressor
	logger     *zap.Logger
}

func NewLocalStore(basePath string, compressor *Compressor, logger *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0750); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &LocalStore{basePath: basePath, compressor: compressor, logger: logger}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(cleaned)+".zst"), nil
}

func (s *LocalStore) Put(_ context.Context, key string, data []byte) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	compressed, err := s.compressor.Compress(data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(fullPath, compressed, 0600); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	s.logger.Debug("blob stored",
		zap.String("key", key),
		zap.Int("size", len(data)),
		zap.Int("stored_size", len(compressed)))
	return nil
}

func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	fullPath, err := s.path(key)
	if err != nil {
		return nil, err
	}
	compressed, err := os.ReadFile(fullPath) // #nosec G304 -- path is confined to basePath by cleanKey
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return s.compressor.Decompress(compressed)
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
