package flows

// FailureKind classifies flow failures for root-level mapping.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureInvalidRequest
	FailureConflict
	FailureInvalidCredential
	FailureUnauthorized
	FailureDependency
)

// Internal failure reasons. They reach logs, audit and metrics only.
const (
	ReasonInvalidInput     = "invalid_input"
	ReasonUserExists       = "user_exists"
	ReasonUserNotFound     = "user_not_found"
	ReasonUnverified       = "unverified"
	ReasonAccountDisabled  = "account_disabled"
	ReasonPasswordMismatch = "password_mismatch"
	ReasonLockedOut        = "locked_out"
	ReasonOTPMissing       = "otp_missing"
	ReasonOTPMismatch      = "otp_mismatch"
	ReasonOTPExhausted     = "otp_exhausted"
	ReasonTicketMissing    = "ticket_missing"
	ReasonTicketMismatch   = "ticket_mismatch"
	ReasonInvalidToken     = "invalid_token"
	ReasonRevoked          = "revoked"
	ReasonReused           = "reused"
	ReasonDirectory        = "directory_unavailable"
	ReasonStore            = "store_unavailable"
	ReasonCrypto           = "crypto_failure"
)

// Outcome is embedded in every flow result. A zero Outcome is success.
type Outcome struct {
	Failure FailureKind
	Reason  string
	Err     error
}

// Failed reports whether the flow did not complete.
func (o Outcome) Failed() bool {
	return o.Failure != FailureNone
}

func fail(kind FailureKind, reason string, err error) Outcome {
	return Outcome{Failure: kind, Reason: reason, Err: err}
}

func dependency(reason string, err error) Outcome {
	return fail(FailureDependency, reason, err)
}
