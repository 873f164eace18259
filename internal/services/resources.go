package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/desertthunder/reeladmin/internal/models"
)

// MovieService manages the movie catalog.
type MovieService struct {
	client *Client
}

func NewMovieService(c *Client) *MovieService { return &MovieService{client: c} }

// List fetches the full catalog. The listing is public, so it is sent without a token when signed out.
func (s *MovieService) List(ctx context.Context) ([]models.Movie, error) {
	var movies []models.Movie
	req := &Request{Method: http.MethodGet, Path: "/movies", Resource: "movies"}
	if err := s.client.Do(ctx, req, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// Create uploads a new movie with its images.
func (s *MovieService) Create(ctx context.Context, form models.MovieForm) (*models.Movie, error) {
	return s.submit(ctx, http.MethodPost, "/movies", form)
}

// Update replaces the fields of movieID. Images left empty keep their current value.
func (s *MovieService) Update(ctx context.Context, movieID string, form models.MovieForm) (*models.Movie, error) {
	return s.submit(ctx, http.MethodPut, "/movies/"+url.PathEscape(movieID), form)
}

func (s *MovieService) submit(ctx context.Context, method, path string, form models.MovieForm) (*models.Movie, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	body, contentType, err := EncodeMovieForm(form)
	if err != nil {
		return nil, err
	}

	req := &Request{
		Method:      method,
		Path:        path,
		Body:        body,
		ContentType: contentType,
		RequireAuth: true,
		Resource:    "movies",
	}

	var movie models.Movie
	if err := s.client.Do(ctx, req, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// ToggleStatus flips isActive for movieID.
func (s *MovieService) ToggleStatus(ctx context.Context, movieID string) (*models.Movie, error) {
	var movie models.Movie
	if err := s.client.Do(ctx, toggleRequest("movies", "/movies/", movieID), &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// UserService manages customer accounts.
type UserService struct {
	client *Client
}

func NewUserService(c *Client) *UserService { return &UserService{client: c} }

// List fetches every user.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	req := &Request{Method: http.MethodGet, Path: "/admin/getAllUsers", RequireAuth: true, Resource: "users"}
	if err := s.client.Do(ctx, req, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ToggleStatus flips isActive for userID.
func (s *UserService) ToggleStatus(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.client.Do(ctx, toggleRequest("users", "/users/", userID), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// PaymentService reads payment history.
type PaymentService struct {
	client *Client
}

func NewPaymentService(c *Client) *PaymentService { return &PaymentService{client: c} }

// List fetches every payment, normalizing statuses.
func (s *PaymentService) List(ctx context.Context) ([]models.Payment, error) {
	var raw []models.RawPayment
	req := &Request{Method: http.MethodGet, Path: "/payments", RequireAuth: true, Resource: "payments"}
	if err := s.client.Do(ctx, req, &raw); err != nil {
		return nil, err
	}

	payments := make([]models.Payment, len(raw))
	for i, r := range raw {
		payments[i] = r.Normalize()
	}
	return payments, nil
}

// MessageService reads contact form submissions.
type MessageService struct {
	client *Client
}

func NewMessageService(c *Client) *MessageService { return &MessageService{client: c} }

// List fetches every contact message.
func (s *MessageService) List(ctx context.Context) ([]models.ContactMessage, error) {
	var messages []models.ContactMessage
	req := &Request{Method: http.MethodGet, Path: "/contact/get", RequireAuth: true, Resource: "messages"}
	if err := s.client.Do(ctx, req, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func toggleRequest(resource, prefix, id string) *Request {
	return &Request{
		Method:      http.MethodPut,
		Path:        prefix + url.PathEscape(id) + "/toggle-status",
		RequireAuth: true,
		Resource:    resource,
	}
}
