package entity

import "time"

// OTPMail is a request to deliver a freshly issued code to an address.
type OTPMail struct {
	To           string
	Code         string
	Organization string
	Subject      string
	Purpose      string
	TTL          time.Duration
}
