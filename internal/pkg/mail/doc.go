// Package mail sends email messages.
//
// Callers depend on the Mail interface and the provider-agnostic Message; the
// SMTP implementation is built on gopkg.in/gomail.v2.
package mail
