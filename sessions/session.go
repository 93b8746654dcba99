package sessions

import (
	"sync"

	"github.com/jrsteele09/go-lms-client/storage"
	"github.com/jrsteele09/go-lms-client/token"
	"github.com/jrsteele09/go-lms-client/users"
)

// State is the in-memory view of one track's session.
// IsAuthenticated is true exactly when User is set.
type State struct {
	User            *users.User // Cached profile of the signed-in user, nil when signed out
	IsAuthenticated bool        // Derived from User
	IsLoading       bool        // An auth use-case is in progress for this track
}

// Listener is notified after every mutation with the track's new state.
type Listener func(token.Track, State)

// Slice holds the session state of both tracks and keeps it consistent with the
// token store. It is safe for concurrent use.
type Slice struct {
	store     *storage.TokenStore
	states    map[token.Track]State
	listeners map[int]Listener
	nextID    int
	lock      sync.RWMutex
}

// NewSlice reads both tracks from store. A track starts authenticated only when
// both a cached user and an access token are stored.
func NewSlice(store *storage.TokenStore) *Slice {
	s := &Slice{
		store:     store,
		states:    make(map[token.Track]State, len(token.Tracks)),
		listeners: make(map[int]Listener),
	}
	for _, tr := range token.Tracks {
		s.states[tr] = s.rehydrate(tr)
	}
	return s
}

func (s *Slice) rehydrate(track token.Track) State {
	user, ok := s.store.User(track)
	if !ok {
		return State{}
	}
	if _, ok := s.store.Get(track, token.Access); !ok {
		return State{}
	}
	return State{User: user, IsAuthenticated: true}
}

// Get returns a copy of the track's state.
func (s *Slice) Get(track token.Track) State {
	s.lock.RLock()
	defer s.lock.RUnlock()
	st := s.states[track]
	st.User = st.User.Clone()
	return st
}

// SetUser sets the user and the authenticated flag together. A nil user signs
// the track out of the in-memory state without touching the store.
func (s *Slice) SetUser(track token.Track, user *users.User) {
	s.mutate(track, func(st *State) {
		st.User = user.Clone()
		st.IsAuthenticated = user != nil
	})
}

func (s *Slice) SetLoading(track token.Track, loading bool) {
	s.mutate(track, func(st *State) {
		st.IsLoading = loading
	})
}

// Establish stores the pair and user for the track and marks it
// authenticated. Store and state change under one lock, so a concurrent Clear
// lands either before or after it, never in between.
func (s *Slice) Establish(track token.Track, pair token.Pair, user *users.User) {
	s.apply(track, func() {
		s.store.SetPair(track, pair)
		s.store.SetUser(track, user)
	}, func(st *State) {
		st.User = user.Clone()
		st.IsAuthenticated = user != nil
		st.IsLoading = false
	})
}

// Clear removes the track from the token store and resets its state.
// Calling it on a signed-out track is harmless.
func (s *Slice) Clear(track token.Track) {
	s.apply(track, func() {
		s.store.Clear(track)
	}, func(st *State) {
		*st = State{}
	})
}

// Subscribe registers fn and returns a function that removes it.
func (s *Slice) Subscribe(fn Listener) func() {
	s.lock.Lock()
	defer s.lock.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.lock.Lock()
		defer s.lock.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Slice) mutate(track token.Track, fn func(*State)) {
	s.apply(track, nil, fn)
}

// apply runs persist and fn under the lock, then notifies listeners outside it.
func (s *Slice) apply(track token.Track, persist func(), fn func(*State)) {
	s.lock.Lock()
	if persist != nil {
		persist()
	}
	st := s.states[track]
	fn(&st)
	s.states[track] = st

	snapshot := st
	snapshot.User = st.User.Clone()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.lock.Unlock()

	for _, l := range listeners {
		l(track, snapshot)
	}
}
