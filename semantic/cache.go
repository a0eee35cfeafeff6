package semantic

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// SessionCache caches loaded OnnxRunner instances keyed by
// (model_path, tokenizer_path), so a caller that builds runners can load
// each model/tokenizer once and reuse it thereafter. Semanticize does not
// consult it; it uses the runner passed in Deps.Runner. Backed by
// hashicorp/golang-lru (declared but unused in the teacher's own go.mod;
// this is its first real caller) for bounded-size eviction rather than an
// unbounded map.
type SessionCache struct {
	mu    sync.Mutex
	cache *lru.Cache
}

// NewSessionCache constructs a cache holding at most capacity entries.
func NewSessionCache(capacity int) (*SessionCache, error) {
	if capacity <= 0 {
		capacity = 8
	}
	c, err := lru.New(capacity)
	if err != nil {
		return nil, err
	}
	return &SessionCache{cache: c}, nil
}

func cacheKey(modelPath, tokenizerPath string) string {
	return modelPath + "\x00" + tokenizerPath
}

// Get returns the cached runner for (modelPath, tokenizerPath), if present.
func (s *SessionCache) Get(modelPath, tokenizerPath string) (OnnxRunner, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache.Get(cacheKey(modelPath, tokenizerPath))
	if !ok {
		return nil, false
	}
	return v.(OnnxRunner), true
}

// Put stores runner under (modelPath, tokenizerPath), evicting the least
// recently used entry if the cache is at capacity.
func (s *SessionCache) Put(modelPath, tokenizerPath string, runner OnnxRunner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(cacheKey(modelPath, tokenizerPath), runner)
}
