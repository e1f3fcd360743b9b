package cache

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// SetJSON marshals v and stores it under key.
func SetJSON[T any](s *Store, key string, v T, opts ...SetOption) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache %s: marshal %q: %w", s.name, key, err)
	}
	s.Set(key, data, opts...)
	return nil
}

// GetJSON loads key into a T. A payload that does not decode is reported as a miss.
func GetJSON[T any](s *Store, key string) (T, bool) {
	var v T
	raw, ok := s.Get(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Warn().Err(err).Msgf("[cache] %s: undecodable payload under %q", s.name, key)
		return v, false
	}
	return v, true
}
