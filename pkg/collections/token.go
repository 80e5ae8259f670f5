package collections

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// TokenProvider yields the bearer token for a request. An empty token sends no
// Authorization header.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenInvalidator is implemented by providers that must forget a token the
// backend rejected with 401.
type TokenInvalidator interface {
	Invalidate(ctx context.Context)
}

// StaticToken always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// TokenFunc adapts a function to TokenProvider.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// FileToken reads the token from a file on every request so rotated
// credentials are picked up. After a 401 the file is skipped until its
// content changes.
type FileToken struct {
	Path string

	mu       sync.Mutex
	rejected string
}

func NewFileToken(path string) *FileToken {
	return &FileToken{Path: path}
}

func (f *FileToken) Token(context.Context) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	f.mu.Lock()
	defer f.mu.Unlock()
	if token == f.rejected {
		return "", nil
	}
	return token, nil
}

func (f *FileToken) Invalidate(context.Context) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return
	}
	f.mu.Lock()
	f.rejected = strings.TrimSpace(string(data))
	f.mu.Unlock()
}
