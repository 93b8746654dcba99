package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-lms-client/users"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	User         *users.User `json:"user,omitempty"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type verifyOTPResponse struct {
	IsValid            bool   `json:"is_valid"`
	PasswordResetToken string `json:"password_reset_token"`
	ErrorMessage       string `json:"error_message"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) issuePair(user *users.User) (authResponse, error) {
	access, err := s.issuer.CreateAccessToken(user, s.generation.Load())
	if err != nil {
		return authResponse{}, err
	}
	refresh, err := s.issuer.CreateRefreshToken(user)
	if err != nil {
		return authResponse{}, err
	}
	return authResponse{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if status := s.takeLoginFailure(); status != 0 {
			writeError(w, status, "login temporarily unavailable")
			return
		}
		if strings.TrimSpace(req.Email) == "" {
			writeError(w, http.StatusUnauthorized, "email is required")
			return
		}

		s.lock.RLock()
		a, ok := s.accountByEmail(req.Email)
		var user users.User
		var hash string
		if ok {
			user, hash = a.user, a.passwordHash
		}
		s.lock.RUnlock()

		if !ok {
			writeError(w, http.StatusUnauthorized, "user not found")
			return
		}
		if !CheckPasswordHash(req.Password, hash) {
			writeError(w, http.StatusUnauthorized, "invalid password")
			return
		}

		resp, err := s.issuePair(&user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if s.Faults().LoginWithoutUser {
			resp.User = nil
		}
		s.logger.Debug().Str("user_id", user.ID).Msg("login")
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Username) == "" {
			writeError(w, http.StatusBadRequest, "email and username are required")
			return
		}
		if err := ValidatePasswordStrength(req.Password); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		s.lock.Lock()
		a, err := s.addAccount(users.User{
			Username: strings.TrimSpace(req.Username),
			Email:    req.Email,
			Role:     users.RoleStudent,
			Status:   users.StatusPending,
		}, req.Password)
		var user users.User
		if err == nil {
			user = a.user
		}
		s.lock.Unlock()

		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if s.Faults().RegisterReturnsUser {
			writeJSON(w, http.StatusCreated, user)
			return
		}
		resp, err := s.issuePair(&user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// VerifyHandler reports the caller's identity. Like the gateway it uses, the
// default answer carries the identity in X-User-* headers with no body.
func (s *Server) VerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.verifyCalls.Add(1)
		faults := s.Faults()
		if faults.VerifyStatus != 0 {
			w.WriteHeader(faults.VerifyStatus)
			return
		}

		if _, ok := bearerToken(r); !ok {
			writeError(w, http.StatusBadRequest, "Token is required")
			return
		}
		user, status, _ := s.authenticate(r)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		if required := r.Header.Get("X-Required-Role"); required != "" && required != string(user.Role) {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		switch faults.VerifyMode {
		case VerifyBody:
			writeJSON(w, http.StatusOK, user)
		case VerifyEmpty:
			w.WriteHeader(http.StatusOK)
		default:
			w.Header().Set("X-User-ID", user.ID)
			w.Header().Set("X-User-Email", user.Email)
			w.Header().Set("X-User-Role", string(user.Role))
			w.WriteHeader(http.StatusOK)
		}
	}
}

func (s *Server) RefreshTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.refreshCalls.Add(1)
		faults := s.Faults()
		if faults.RefreshDelay > 0 {
			select {
			case <-time.After(faults.RefreshDelay):
			case <-r.Context().Done():
				return
			}
		}
		if faults.RefreshStatus != 0 {
			writeError(w, faults.RefreshStatus, "invalid refresh token")
			return
		}

		var req refreshRequest
		if !decodeBody(w, r, &req) {
			return
		}
		claims, err := s.issuer.Parse(req.RefreshToken, tokenTypeRefresh)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		user, ok := s.lookupUser(claims.UserID)
		if !ok {
			writeError(w, http.StatusUnauthorized, "user not found")
			return
		}
		if faults.RefreshWithoutAccessToken {
			writeJSON(w, http.StatusOK, refreshResponse{})
			return
		}

		var resp refreshResponse
		if resp.AccessToken, err = s.issuer.CreateAccessToken(&user, s.generation.Load()); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if faults.RotateRefreshTokens {
			if resp.RefreshToken, err = s.issuer.CreateRefreshToken(&user); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		s.logger.Debug().Str("user_id", user.ID).Msg("access token refreshed")
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req emailRequest
		if !decodeBody(w, r, &req) {
			return
		}
		s.lock.Lock()
		a, ok := s.accountByEmail(req.Email)
		if ok {
			s.otps[a.user.Email] = DemoOTP
		}
		s.lock.Unlock()

		if !ok {
			writeError(w, http.StatusBadRequest, "user not found")
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "OTP sent to your email"})
	}
}

func (s *Server) VerifyOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyOTPRequest
		if !decodeBody(w, r, &req) {
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))

		s.lock.Lock()
		expected, pending := s.otps[email]
		valid := pending && expected == req.OTP
		var resetToken string
		if valid {
			delete(s.otps, email)
			resetToken = uuid.New().String()
			s.resetTokens[resetToken] = s.byEmail[email]
		}
		s.lock.Unlock()

		if !valid {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid OTP", Details: "otp does not match"})
			return
		}
		writeJSON(w, http.StatusOK, verifyOTPResponse{IsValid: true, PasswordResetToken: resetToken})
	}
}

func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetPasswordRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := ValidatePasswordStrength(req.NewPassword); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		hash, err := HashPassword(req.NewPassword)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		s.lock.Lock()
		userID, ok := s.resetTokens[req.Token]
		if ok {
			delete(s.resetTokens, req.Token)
			if a, exists := s.accounts[userID]; exists {
				a.passwordHash = hash
				a.user.UpdatedAt = s.now().UTC()
			}
		}
		s.lock.Unlock()

		if !ok {
			writeError(w, http.StatusBadRequest, "invalid or expired reset token")
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Password reset successfully"})
	}
}
