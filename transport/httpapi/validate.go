package httpapi

import (
	"github.com/asaskevich/govalidator"

	"github.com/MrEthical07/authcore"
)

// Shape checks run before the engine sees a request. The engine applies the
// full input policy again, so these only reject what is obviously malformed.

const maxTokenBytes = 2000

func invalid(message string) error {
	return &authcore.Error{Kind: authcore.KindInvalidRequest, Message: message, Reason: "malformed_request"}
}

func checkEmail(email string) error {
	if !govalidator.StringLength(email, "3", "255") || !govalidator.IsEmail(email) {
		return invalid("invalid email")
	}
	return nil
}

func checkPassword(field, password, min string) error {
	if !govalidator.StringLength(password, min, "128") {
		return invalid("invalid " + field)
	}
	return nil
}

func validateRegister(req authcore.RegisterRequest) error {
	if err := checkEmail(req.Email); err != nil {
		return err
	}
	if !govalidator.StringLength(req.Username, "1", "50") {
		return invalid("invalid username")
	}
	if req.FullName != "" && !govalidator.StringLength(req.FullName, "1", "100") {
		return invalid("invalid fullName")
	}
	if req.Phone != "" && !govalidator.IsE164(req.Phone) {
		return invalid("invalid phone")
	}
	return checkPassword("password", req.Password, "8")
}

func validateVerify(req authcore.VerifyOTPRequest) error {
	if err := checkEmail(req.Email); err != nil {
		return err
	}
	if !govalidator.IsNumeric(req.OTP) || !govalidator.StringLength(req.OTP, "6", "10") {
		return invalid("invalid otp")
	}
	return nil
}

func validateLogin(req authcore.LoginRequest) error {
	if err := checkEmail(req.Email); err != nil {
		return err
	}
	return checkPassword("password", req.Password, "0")
}

// An empty refresh token passes; the engine rejects it as unauthorized.
func validateRefreshToken(token string) error {
	if !govalidator.IsByteLength(token, 0, maxTokenBytes) {
		return invalid("invalid refreshToken")
	}
	return nil
}

func validateLogout(req authcore.LogoutRequest) error {
	if err := validateRefreshToken(req.RefreshToken); err != nil {
		return err
	}
	if !govalidator.IsByteLength(req.AccessToken, 0, maxTokenBytes) {
		return invalid("invalid accessToken")
	}
	return nil
}

func validateForgot(req authcore.ForgotPasswordRequest) error {
	return checkEmail(req.Email)
}

func validateReset(req authcore.ResetPasswordRequest) error {
	if err := checkEmail(req.Email); err != nil {
		return err
	}
	if !govalidator.StringLength(req.ResetToken, "1", "200") {
		return invalid("invalid resetToken")
	}
	return checkPassword("newPassword", req.NewPassword, "8")
}
