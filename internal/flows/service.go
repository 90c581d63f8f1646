package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Guard.Tokens != nil
}

func (s Service) Register(ctx context.Context, in RegisterInput) RegisterResult {
	return RunRegister(ctx, in, s.deps.Register)
}

func (s Service) VerifyOTP(ctx context.Context, email, code string) VerifyResult {
	return RunVerifyOTP(ctx, email, code, s.deps.Verify)
}

func (s Service) Login(ctx context.Context, email, password string) LoginResult {
	return RunLogin(ctx, email, password, s.deps.Login)
}

func (s Service) Refresh(ctx context.Context, refreshToken string) RefreshResult {
	return RunRefresh(ctx, refreshToken, s.deps.Refresh)
}

func (s Service) Logout(ctx context.Context, refreshToken, accessToken string) LogoutResult {
	return RunLogout(ctx, refreshToken, accessToken, s.deps.Logout)
}

func (s Service) RevokeAll(ctx context.Context, userID string) RevokeResult {
	return RunRevokeAll(ctx, userID, s.deps.Refresh.Revoke)
}

func (s Service) ForgotPassword(ctx context.Context, email string) ForgotResult {
	return RunForgotPassword(ctx, email, s.deps.Reset)
}

func (s Service) ResetPassword(ctx context.Context, email, newPassword, ticket string) ResetResult {
	return RunResetPassword(ctx, email, newPassword, ticket, s.deps.Reset)
}

func (s Service) Validate(ctx context.Context, accessToken string) GuardResult {
	return RunValidate(ctx, accessToken, s.deps.Guard)
}
