// Package httpapi exposes an authcore Engine over JSON/HTTP.
//
// Every response uses the envelope {"success", "message", "data"}. Failures
// carry the engine's external message only; internal reasons never leave
// the process.
package httpapi
