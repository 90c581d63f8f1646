package flows

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"
)

// Request shape limits.
const (
	MaxEmailLength    = 255
	MaxUsernameLength = 50
	MaxFullNameLength = 100
	MaxPasswordLength = 128
	MinPasswordLength = 8
	MaxTokenLength    = 2000
	MaxTicketLength   = 200
	MinOTPLength      = 6
	MaxOTPLength      = 10
)

const e164Pattern = `^\+[1-9][0-9]{1,14}$`

// ErrInvalidInput is wrapped by every request shape violation.
var ErrInvalidInput = errors.New("invalid input")

func invalid(field, problem string) Outcome {
	return fail(FailureInvalidRequest, ReasonInvalidInput, fmt.Errorf("%w: %s %s", ErrInvalidInput, field, problem))
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkEmail(email string) (Outcome, bool) {
	if email == "" {
		return invalid("email", "is required"), false
	}
	if len(email) > MaxEmailLength {
		return invalid("email", "is too long"), false
	}
	if !govalidator.IsEmail(email) {
		return invalid("email", "is malformed"), false
	}
	return Outcome{}, true
}

func checkPassword(field, password string, min int) (Outcome, bool) {
	if len(password) < min {
		return invalid(field, fmt.Sprintf("must be at least %d bytes", min)), false
	}
	if len(password) > MaxPasswordLength {
		return invalid(field, fmt.Sprintf("must be at most %d bytes", MaxPasswordLength)), false
	}
	return Outcome{}, true
}

func checkToken(field, token string, max int) (Outcome, bool) {
	if token == "" {
		return invalid(field, "is required"), false
	}
	if len(token) > max {
		return invalid(field, "is too long"), false
	}
	return Outcome{}, true
}

func checkRegister(in RegisterInput) (Outcome, bool) {
	if o, ok := checkEmail(in.Email); !ok {
		return o, false
	}
	if in.Username == "" {
		return invalid("username", "is required"), false
	}
	if utf8.RuneCountInString(in.Username) > MaxUsernameLength {
		return invalid("username", "is too long"), false
	}
	if utf8.RuneCountInString(in.FullName) > MaxFullNameLength {
		return invalid("fullName", "is too long"), false
	}
	if in.Phone != "" && !govalidator.Matches(in.Phone, e164Pattern) {
		return invalid("phone", "must be in E.164 format"), false
	}
	return checkPassword("password", in.Password, MinPasswordLength)
}

func checkOTP(code string) (Outcome, bool) {
	if len(code) < MinOTPLength || len(code) > MaxOTPLength || !govalidator.IsNumeric(code) {
		return invalid("otp", fmt.Sprintf("must be %d to %d digits", MinOTPLength, MaxOTPLength)), false
	}
	return Outcome{}, true
}
