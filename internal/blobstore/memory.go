package blobstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Blob is a stored object as kept by Memory.
type Blob struct {
	Data        []byte
	ContentType string
}

// Memory is an in-process Store for tests and the offline CLI.
type Memory struct {
	mu      sync.RWMutex
	baseURL string
	blobs   map[string]Blob
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty store whose URLs start with baseURL.
func NewMemory(baseURL string) *Memory {
	return &Memory{baseURL: strings.TrimRight(baseURL, "/"), blobs: make(map[string]Blob)}
}

func (m *Memory) Upload(_ context.Context, path string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("blobstore.Memory.Upload: read body: %w", err)
	}
	m.mu.Lock()
	m.blobs[cleanKey(path)] = Blob{Data: data, ContentType: contentType}
	m.mu.Unlock()
	return nil
}

func (m *Memory) URL(_ context.Context, path string) (string, error) {
	return m.baseURL + "/" + cleanKey(path), nil
}

func (m *Memory) Delete(_ context.Context, ref string) error {
	key := cleanKey(strings.TrimPrefix(ref, m.baseURL+"/"))
	m.mu.Lock()
	delete(m.blobs, key)
	m.mu.Unlock()
	return nil
}

// Get returns the blob stored at path.
func (m *Memory) Get(path string) (Blob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[cleanKey(path)]
	return b, ok
}

// Paths returns every stored path in no particular order.
func (m *Memory) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.blobs))
	for p := range m.blobs {
		out = append(out, p)
	}
	return out
}
