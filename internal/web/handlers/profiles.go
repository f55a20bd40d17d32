package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/mburuwhiz/idmaker-sub000/internal/calibration"
)

// ProfileStore guards a calibration profile set shared by handlers. When
// path is set every change is written back to it.
type ProfileStore struct {
	set  *calibration.ProfileSet
	path string
	mu   sync.RWMutex
}

// NewProfileStore wraps set. path may be empty.
func NewProfileStore(set *calibration.ProfileSet, path string) *ProfileStore {
	if set == nil {
		set = calibration.Defaults()
	}
	return &ProfileStore{set: set, path: path}
}

// Find looks a profile up by ID or name; empty returns the default.
func (s *ProfileStore) Find(key string) (calibration.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Find(key)
}

// List returns a copy of all profiles.
func (s *ProfileStore) List() []calibration.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]calibration.Profile(nil), s.set.Profiles...)
}

// Upsert validates p, stores it and persists the set. When the set cannot be
// written the previous profiles stay in effect.
func (s *ProfileStore) Upsert(p calibration.Profile) (calibration.Profile, error) {
	if err := p.Validate(); err != nil {
		return calibration.Profile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.set.Clone()
	saved := next.Upsert(p)
	next.Normalize()
	if s.path != "" {
		if err := next.Save(s.path); err != nil {
			return calibration.Profile{}, err
		}
	}
	s.set = next
	return saved, nil
}

// ProfilesHandler exposes calibration profiles.
type ProfilesHandler struct {
	store *ProfileStore
}

// NewProfilesHandler creates a new profiles handler
func NewProfilesHandler(store *ProfileStore) *ProfilesHandler {
	return &ProfilesHandler{store: store}
}

// List returns every profile.
func (h *ProfilesHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.List())
}

// Get returns one profile by ID or name.
func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Find(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, profileStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// Save creates or replaces a profile.
func (h *ProfilesHandler) Save(w http.ResponseWriter, r *http.Request) {
	var p calibration.Profile
	if err := decodeJSON(w, r, &p); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		p.ID = id
	}
	if p.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	saved, err := h.store.Upsert(p)
	if err != nil {
		var validationErr *calibration.ValidationError
		if errors.As(err, &validationErr) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save profile: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// profileStatus maps profile lookup failures to HTTP status codes.
func profileStatus(err error) int {
	var validationErr *calibration.ValidationError
	switch {
	case errors.Is(err, calibration.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, calibration.ErrNoProfiles):
		return http.StatusServiceUnavailable
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
