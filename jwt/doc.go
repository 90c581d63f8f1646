// Package jwt signs and verifies the access and refresh tokens issued by the
// authcore engine. Access and refresh tokens share a key but carry a type
// claim, so one can never be accepted as the other.
package jwt
