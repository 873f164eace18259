package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/reeladmin/internal/models"
)

const maxUpload = 32 << 20

// Backend serves the back office REST API over a [Store].
type Backend struct {
	store  *Store
	issuer *TokenIssuer
	logger *log.Logger
	prefix string
}

// NewBackend creates a backend mounted under prefix, e.g. "/api".
func NewBackend(store *Store, issuer *TokenIssuer, prefix string, logger *log.Logger) *Backend {
	return &Backend{store: store, issuer: issuer, logger: logger, prefix: strings.TrimSuffix(prefix, "/")}
}

// Register adds every API route to r.
func (b *Backend) Register(r *BasicRouter) {
	admin := []Middleware{RequireBearer(b.issuer), b.requireAdmin}
	p := b.prefix

	r.HandleFunc(http.MethodPost, p+"/auth/login", b.login)
	r.HandleFunc(http.MethodGet, p+"/movies", b.listMovies, OptionalBearer(b.issuer))
	r.HandleFunc(http.MethodPost, p+"/movies", b.createMovie, admin...)
	r.HandleFunc(http.MethodPut, p+"/movies/{id}", b.updateMovie, admin...)
	r.HandleFunc(http.MethodPut, p+"/movies/{id}/toggle-status", b.toggleMovie, admin...)
	r.HandleFunc(http.MethodGet, p+"/admin/getAllUsers", b.listUsers, admin...)
	r.HandleFunc(http.MethodPut, p+"/users/{id}/toggle-status", b.toggleUser, admin...)
	r.HandleFunc(http.MethodGet, p+"/payments", b.listPayments, admin...)
	r.HandleFunc(http.MethodGet, p+"/contact/get", b.listMessages, admin...)
	r.HandleFunc(http.MethodGet, p+"/images/{id}", b.image)
}

func (b *Backend) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := b.store.Admin(UID(r.Context())); !ok {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type loginRequest struct {
	FirebaseToken string `json:"firebaseToken"`
}

// login exchanges an identity token for the staff profile. A bad token is a 400, not a 401, since refreshing it
// cannot help.
func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FirebaseToken == "" {
		writeError(w, http.StatusBadRequest, "firebaseToken is required")
		return
	}

	uid, ok := b.issuer.Verify(req.FirebaseToken)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid firebase token")
		return
	}

	profile, ok := b.store.Admin(uid)
	if !ok {
		writeError(w, http.StatusForbidden, "This account is not a staff account")
		return
	}

	b.logger.Info("staff login", "uid", uid, "user", profile.UserID)
	writeJSON(w, http.StatusOK, map[string]any{"result": profile})
}

func (b *Backend) listMovies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.store.Movies())
}

func (b *Backend) createMovie(w http.ResponseWriter, r *http.Request) {
	form, err := b.parseForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var movie models.Movie
	form.apply(&movie)
	writeJSON(w, http.StatusCreated, b.store.AddMovie(movie))
}

func (b *Backend) updateMovie(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := b.store.Movie(id); !ok {
		writeError(w, http.StatusNotFound, "Movie not found")
		return
	}

	form, err := b.parseForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	movie, ok := b.store.UpdateMovie(id, form.apply)
	if !ok {
		writeError(w, http.StatusNotFound, "Movie not found")
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

type badRequest string

func (e badRequest) Error() string { return string(e) }

// movieFields is a decoded movie form. Nil images leave the current image in place.
type movieFields struct {
	models.Movie
}

func (f movieFields) apply(m *models.Movie) {
	m.Title = f.Title
	m.Year = f.Year
	m.Genres = f.Genres
	m.Description = f.Description
	m.Duration = f.Duration
	m.VideoLink = f.VideoLink
	m.TrailerLink = f.TrailerLink
	m.Price = f.Price
	m.IsUpcoming = f.IsUpcoming
	if f.PortraitImage != nil {
		m.PortraitImage = f.PortraitImage
	}
	if f.LandscapeImage != nil {
		m.LandscapeImage = f.LandscapeImage
	}
}

// parseForm decodes the multipart movie form and stores any uploaded images.
func (b *Backend) parseForm(r *http.Request) (movieFields, error) {
	var f movieFields
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return f, badRequest("Expected a multipart form")
	}

	f.Title = strings.TrimSpace(r.FormValue("title"))
	if f.Title == "" {
		return f, badRequest("Title is required")
	}

	var err error
	if f.Year, err = strconv.Atoi(r.FormValue("year")); err != nil {
		return f, badRequest("Year must be a number")
	}
	if v := r.FormValue("price"); v != "" {
		if f.Price, err = strconv.ParseFloat(v, 64); err != nil {
			return f, badRequest("Price must be a number")
		}
	}
	if v := r.FormValue("genres"); v != "" {
		if err := json.Unmarshal([]byte(v), &f.Genres); err != nil {
			f.Genres = models.ParseGenres(v)
		}
	}

	f.Description = r.FormValue("description")
	f.Duration = r.FormValue("duration")
	f.VideoLink = r.FormValue("videoLink")
	f.TrailerLink = r.FormValue("trailerLink")
	f.IsUpcoming, _ = strconv.ParseBool(r.FormValue("isUpcoming"))

	if f.PortraitImage, err = b.upload(r, "portraitImage"); err != nil {
		return f, err
	}
	if f.LandscapeImage, err = b.upload(r, "landscapeImage"); err != nil {
		return f, err
	}
	return f, nil
}

func (b *Backend) upload(r *http.Request, field string) (*models.Image, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, badRequest("Invalid " + field + " upload")
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		return nil, badRequest("Invalid " + field + " upload")
	}
	return b.store.SaveImage(b.prefix+"/images", data), nil
}

func (b *Backend) toggleMovie(w http.ResponseWriter, r *http.Request) {
	movie, ok := b.store.UpdateMovie(r.PathValue("id"), func(m *models.Movie) { m.IsActive = !m.IsActive })
	if !ok {
		writeError(w, http.StatusNotFound, "Movie not found")
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (b *Backend) listUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.store.Users())
}

func (b *Backend) toggleUser(w http.ResponseWriter, r *http.Request) {
	user, ok := b.store.ToggleUser(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (b *Backend) listPayments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.store.Payments())
}

func (b *Backend) listMessages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.store.Messages())
}

func (b *Backend) image(w http.ResponseWriter, r *http.Request) {
	data, contentType, ok := b.store.Image(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Image not found")
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(data)
}
