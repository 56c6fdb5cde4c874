// Package jwt issues and verifies the bearer tokens handed out by the admin
// session endpoint.
//
// It includes:
//   - Claims carrying the admin principal and its role.
//   - A symmetric HS512 implementation.
//   - Context helpers for storing and retrieving the authenticated principal.
package jwt
