package server

import (
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/desertthunder/reeladmin/internal/models"
)

type storedImage struct {
	contentType string
	data        []byte
}

// Store holds the sandbox backend's records in memory. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	movies    []models.Movie
	users     []models.User
	payments  []models.RawPayment
	messages  []models.ContactMessage
	admins    map[string]models.Profile // by identity uid
	images    map[string]storedImage
	nextMovie int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		admins:    make(map[string]models.Profile),
		images:    make(map[string]storedImage),
		nextMovie: 1,
	}
}

// AddAdmin grants back office access to the identity uid.
func (s *Store) AddAdmin(uid string, profile models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[uid] = profile
}

// Admin returns the staff profile for uid.
func (s *Store) Admin(uid string) (models.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.admins[uid]
	return p, ok
}

// Movies returns a copy of the catalog.
func (s *Store) Movies() []models.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.movies)
}

// AddMovie assigns identifiers to m, activates it and appends it to the catalog.
func (s *Store) AddMovie(m models.Movie) models.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = uuid.NewString()
	m.MovieID = fmt.Sprintf("MOV-%04d", s.nextMovie)
	m.IsActive = true
	s.nextMovie++
	s.movies = append(s.movies, m)
	return m
}

// Movie looks up a movie by its public id.
func (s *Store) Movie(movieID string) (models.Movie, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.movies {
		if m.MovieID == movieID {
			return m, true
		}
	}
	return models.Movie{}, false
}

// UpdateMovie applies fn to the movie with movieID.
func (s *Store) UpdateMovie(movieID string, fn func(*models.Movie)) (models.Movie, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.movies {
		if s.movies[i].MovieID == movieID {
			fn(&s.movies[i])
			return s.movies[i], true
		}
	}
	return models.Movie{}, false
}

// Users returns a copy of the user accounts.
func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users)
}

// AddUser appends u.
func (s *Store) AddUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.users = append(s.users, u)
}

// ToggleUser flips isActive for userID.
func (s *Store) ToggleUser(userID string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].UserID == userID {
			s.users[i].IsActive = !s.users[i].IsActive
			return s.users[i], true
		}
	}
	return models.User{}, false
}

// Payments returns a copy of the payments exactly as stored.
func (s *Store) Payments() []models.RawPayment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.payments)
}

// AddPayment appends p.
func (s *Store) AddPayment(p models.RawPayment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.payments = append(s.payments, p)
}

// Messages returns a copy of the contact messages.
func (s *Store) Messages() []models.ContactMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages)
}

// AddMessage appends m.
func (s *Store) AddMessage(m models.ContactMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	s.messages = append(s.messages, m)
}

// SaveImage keeps an uploaded image and returns its reference, served under urlPrefix.
func (s *Store) SaveImage(urlPrefix string, data []byte) *models.Image {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.images[id] = storedImage{contentType: http.DetectContentType(data), data: data}
	return &models.Image{URL: urlPrefix + "/" + id, PublicID: id}
}

// Image returns an uploaded image by public id.
func (s *Store) Image(publicID string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[publicID]
	return img.data, img.contentType, ok
}
