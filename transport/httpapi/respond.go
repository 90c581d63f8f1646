package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/authcore"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

const (
	msgRegistered      = "Registration successful"
	msgVerified        = "OTP verified"
	msgLoggedIn        = "Login successful"
	msgRefreshed       = "Token refreshed"
	msgLoggedOut       = "Logout successful"
	msgResetSent       = "Reset instructions sent"
	msgPasswordReset   = "Password reset successful"
	msgAuthenticated   = "Authenticated"
	msgSessionsRevoked = "Sessions revoked"
	msgForbidden       = "Forbidden"
	msgHealthy         = "OK"
	msgInvalidBody     = "Invalid request body"
	msgInternalError   = "Internal server error"
	msgNotFound        = "Not found"
	msgMethodRejected  = "Method not allowed"
)

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// writeError translates an engine error into its status and external
// message.
func writeError(w http.ResponseWriter, err error) {
	status, message := statusOf(err)
	writeFailure(w, status, message)
}

func statusOf(err error) (int, string) {
	var ae *authcore.Error
	if errors.As(err, &ae) {
		switch ae.Kind {
		case authcore.KindConflict:
			return http.StatusConflict, ae.Message
		case authcore.KindInvalidCredential, authcore.KindInvalidRequest:
			return http.StatusBadRequest, ae.Message
		case authcore.KindUnauthorized:
			return http.StatusUnauthorized, ae.Message
		case authcore.KindDependencyUnavailable:
			return http.StatusServiceUnavailable, ae.Message
		}
	}
	if errors.Is(err, authcore.ErrEngineNotReady) {
		return http.StatusServiceUnavailable, authcore.MessageUnavailable
	}
	return http.StatusInternalServerError, msgInternalError
}
