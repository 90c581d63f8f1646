package flows

// Keys builds ephemeral store keys under an optional namespace.
type Keys struct {
	Namespace string
}

// OTP returns otp:<email>.
func (k Keys) OTP(email string) string {
	return k.Namespace + "otp:" + email
}

// Refresh returns refresh:<userID>:<tokenID>.
func (k Keys) Refresh(userID, tokenID string) string {
	return k.Namespace + "refresh:" + userID + ":" + tokenID
}

// RefreshPattern matches every refresh session of userID.
func (k Keys) RefreshPattern(userID string) string {
	return k.Namespace + "refresh:" + userID + ":*"
}

// Reset returns reset:<userID>.
func (k Keys) Reset(userID string) string {
	return k.Namespace + "reset:" + userID
}

// Blacklist returns blacklist:<rawAccessToken>.
func (k Keys) Blacklist(accessToken string) string {
	return k.Namespace + "blacklist:" + accessToken
}
