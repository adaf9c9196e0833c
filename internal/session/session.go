// Package session holds the per-user state a form host passes into the pipeline.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/atomic"

	"github.com/basel-ax/avatargen/internal/domain"
)

// Session is the state of one user interaction: the credential they supplied,
// whether a generation is running and the most recent image.
type Session struct {
	ID     string
	apiKey string

	generating atomic.Bool

	mu    sync.RWMutex
	image *domain.GeneratedImage
}

// New creates a session holding apiKey in memory only
func New(apiKey string) *Session {
	return &Session{ID: uuid.NewString(), apiKey: apiKey}
}

// APIKey returns the credential supplied for this session
func (s *Session) APIKey() string {
	return s.apiKey
}

// Begin marks a generation as started. It returns false when one is already running.
func (s *Session) Begin() bool {
	return s.generating.CompareAndSwap(false, true)
}

// End marks the running generation as finished
func (s *Session) End() {
	s.generating.Store(false)
}

// Generating reports whether a generation is in flight
func (s *Session) Generating() bool {
	return s.generating.Load()
}

// SetImage replaces the most recent image
func (s *Session) SetImage(img *domain.GeneratedImage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = img
}

// Image returns the most recent image, or nil
func (s *Session) Image() *domain.GeneratedImage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.image
}

// Store keeps sessions in memory and forgets them after a period of inactivity
type Store struct {
	// mu makes the lookup and TTL refresh in Get atomic with respect to Delete
	mu    sync.Mutex
	cache *cache.Cache
	ttl   time.Duration
}

// NewStore creates a store whose sessions expire after ttl without access
func NewStore(ttl time.Duration) *Store {
	return &Store{cache: cache.New(ttl, ttl/2), ttl: ttl}
}

// Create starts a new session
func (st *Store) Create(apiKey string) *Session {
	s := New(apiKey)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.cache.Set(s.ID, s, st.ttl)
	return s
}

// Get returns a live session and extends its lifetime
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	v, ok := st.cache.Get(id)
	if !ok {
		return nil, false
	}
	s := v.(*Session)
	st.cache.Set(id, s, st.ttl)
	return s, true
}

// Delete ends a session, dropping its image and credential
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.cache.Delete(id)
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	return st.cache.ItemCount()
}
