package testutil

import (
	"context"
	"strings"
	"sync"

	domain "github.com/hireloop/resume-import/internal/domain/resumeimport"
)

type ExtractorFunc func(ctx context.Context, content []byte, fileName string) (domain.ExtractedFields, error)

func (f ExtractorFunc) Extract(ctx context.Context, content []byte, fileName string) (domain.ExtractedFields, error) {
	return f(ctx, content, fileName)
}

// NameFromContent extracts a candidate named after the first line of the file.
func NameFromContent() ExtractorFunc {
	return func(_ context.Context, content []byte, _ string) (domain.ExtractedFields, error) {
		name, _, _ := strings.Cut(string(content), "\n")
		return domain.ExtractedFields{
			FullName: name,
			Skills:   []string{"Go", "SQL"},
		}, nil
	}
}

// MemoryObjectStore keeps Put payloads by key.
type MemoryObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{objects: make(map[string][]byte)}
}

func (s *MemoryObjectStore) Put(_ context.Context, key string, content []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), content...)
	return key, nil
}

func (s *MemoryObjectStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}
