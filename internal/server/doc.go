// Package server runs a local stand-in for the back office backend so the client can be exercised without a
// deployed API or a Firebase project.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] uses [http.ServeMux]
// internally, registering "METHOD /path" patterns. [Middleware] wraps handlers in reverse order (last added
// executes first), and [BasicRouter.Handle] accepts extra per-route middleware such as [RequireBearer].
//
// # Identity Emulator
//
// [IdentityHandler] answers the two Firebase Auth REST calls the client makes: password sign in under
// {prefix}/accounts:signInWithPassword and the OAuth2 refresh_token grant under {prefix}/token. ID tokens are
// HS256 JWTs minted by a [TokenIssuer], which keeps account passwords as bcrypt hashes.
// [TokenIssuer.ExpireTokens] and [TokenIssuer.RevokeRefresh] let tests force the 401 retry path and the session
// expiry path.
//
// # Back Office API
//
// [Backend] serves the REST endpoints under /api over an in-memory [Store]:
//
//	POST /api/auth/login                  exchange an identity token for the staff profile
//	GET  /api/movies                      catalog (token optional)
//	POST /api/movies                      create from a multipart form
//	PUT  /api/movies/{id}                 edit from a multipart form
//	PUT  /api/movies/{id}/toggle-status   flip isActive
//	GET  /api/admin/getAllUsers           user accounts
//	PUT  /api/users/{id}/toggle-status    flip isActive
//	GET  /api/payments                    raw payment records
//	GET  /api/contact/get                 contact form submissions
//	GET  /api/images/{id}                 uploaded images
//
// Errors are JSON objects with a "message" field. [SeedAdmin] registers the staff account and [Seed] fills the store
// with a small catalog.
package server
