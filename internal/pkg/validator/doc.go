// Package validator provides a small validation abstraction for request and
// domain structs, backed by go-playground/validator v10.
//
// Field errors are keyed by the struct's json tag so they line up with the
// request payload the client sent.
package validator
