package configfile

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/goto/salt/log"
	"gopkg.in/yaml.v2"

	"github.com/incepto/searchbridge/core/schema"
)

// Store is a schema.MappingStore backed by one YAML file keyed by
// index namespace. The file mutex guards concurrent readers against a
// writer within one process; the single-writer-per-pass contract for a
// given namespace is still the caller's responsibility.
type Store struct {
	path   string
	logger log.Logger
	mu     sync.Mutex
}

func NewStore(logger log.Logger, path string) *Store {
	return &Store{
		path:   path,
		logger: logger,
	}
}

func (s *Store) Mapping(namespace string) (schema.IndexMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return schema.IndexMapping{}, err
	}

	mapping, ok := all[namespace]
	if !ok {
		return schema.IndexMapping{}, fmt.Errorf("%w: %q", schema.ErrNoMapping, namespace)
	}
	return mapping, nil
}

func (s *Store) SaveMapping(namespace string, mapping schema.IndexMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	all[namespace] = mapping

	out, err := yaml.Marshal(all)
	if err != nil {
		return fmt.Errorf("serialize mappings: %w", err)
	}
	if err := os.WriteFile(s.path, out, 0o644); err != nil {
		return fmt.Errorf("write mappings file: %w", err)
	}
	s.logger.Debug("mapping saved", "namespace", namespace, "path", s.path)
	return nil
}

func (s *Store) load() (map[string]schema.IndexMapping, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]schema.IndexMapping{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mappings file: %w", err)
	}

	all := map[string]schema.IndexMapping{}
	if err := yaml.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("parse mappings file: %w", err)
	}
	return all, nil
}
