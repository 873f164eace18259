// Package services talks to the movie-streaming admin API.
//
// # Client
//
// [Client] is the single HTTP path for every call. It attaches the bearer token from an [auth.TokenProvider] and,
// when the backend answers 401, force-refreshes the token and resends exactly once. Each logical request carries one
// X-Request-ID across both attempts, and the steps taken are recorded in the response trace as [AttemptState] values.
//
// If the retry also gets 401, or no fresh token can be obtained, the session is invalidated (once) and the caller
// receives an [APIError] whose kind is [shared.ErrSessionExpired]. The client never redirects or prompts; what to show
// is up to the caller.
//
// # Resource services
//
// [MovieService], [UserService], [PaymentService] and [MessageService] wrap the REST endpoints of each resource family.
// They pass every error through unchanged apart from attaching the resource name. Movie create and update bodies are
// multipart forms built once by [EncodeMovieForm] so they can be replayed.
//
// [AuthService] performs the login exchange (provider sign in, then POST /auth/login) and logout.
//
// # Error Handling
//
// Failures are [APIError] values whose Kind is one of:
//   - [shared.ErrUnauthenticated] : no token and the request requires one; nothing was sent
//   - [shared.ErrSessionExpired] : 401 after the retry; matches [shared.ErrUnauthorized]
//   - [shared.ErrValidation] : 4xx with a server message, kept verbatim in Message
//   - [shared.ErrNetwork] : transport failure
//   - [shared.ErrServer] : 5xx or a 4xx without explanation
//   - [shared.ErrDecode] : 2xx with a body that does not match the expected shape
package services
