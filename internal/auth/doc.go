// Package auth defines the [TokenProvider] contract the API client authenticates with and implements it for
// Firebase email/password accounts.
//
// # Firebase
//
// [FirebaseProvider] signs in through the Identity Toolkit REST API (accounts:signInWithPassword) and refreshes
// identity tokens through the secure token endpoint using an [oauth2.Config] refresh grant.
// The Firebase ID token travels in the token response's id_token field and is what the backend verifies.
//
// Non-forced [FirebaseProvider.Token] calls reuse the cached token until it nears expiry.
// Forced calls always hit the secure token endpoint.
//
// Credentials survive restarts through a [CredentialStore]; see repositories.CredentialRepository.
package auth
