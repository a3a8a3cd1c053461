package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/go_outdoor/internal/hash"
	"github.com/Skotchmaster/go_outdoor/internal/logging"
	authmw "github.com/Skotchmaster/go_outdoor/internal/middleware/auth"
	"github.com/Skotchmaster/go_outdoor/internal/oauth"
	"github.com/Skotchmaster/go_outdoor/internal/service"
	"github.com/Skotchmaster/go_outdoor/internal/tokens"
	"github.com/Skotchmaster/go_outdoor/internal/transport"
)

const (
	stateCookie = "oauthState"
	stateTTL    = 10 * time.Minute
)

type GoogleAuth interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth.Profile, error)
}

type AuthHTTP struct {
	Svc *service.AuthService
	// Google is nil when OAuth is not configured.
	Google  GoogleAuth
	BaseURL string
}

func setSession(c echo.Context, pair *tokens.Pair) {
	for _, ck := range tokens.SessionCookies(pair) {
		c.SetCookie(ck)
	}
}

func clearSession(c echo.Context) {
	for _, ck := range tokens.ClearSessionCookies() {
		c.SetCookie(ck)
	}
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return message(c, http.StatusBadRequest, "Semua kolom wajib diisi.")
	}

	_, err := h.Svc.Register(ctx, service.RegisterInput{
		Fullname: req.Fullname,
		Email:    req.Email,
		Password: req.Password,
	})
	switch {
	case err == nil:
		return message(c, http.StatusCreated, "Registrasi berhasil! Silakan cek email untuk verifikasi.")
	case errors.Is(err, service.ErrValidation):
		return message(c, http.StatusBadRequest, "Semua kolom wajib diisi.")
	case errors.Is(err, service.ErrConflict):
		return message(c, http.StatusConflict, "Email sudah terdaftar.")
	default:
		l.Error("register_error", "status", 500, "error", err)
		return message(c, http.StatusInternalServerError, msgServerError)
	}
}

func (h *AuthHTTP) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.verify")

	var req transport.VerifyRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("verify_error", "status", 400, "error", err)
		return message(c, http.StatusBadRequest, "Email dan kode verifikasi wajib diisi.")
	}

	err := h.Svc.Verify(ctx, req.Email, req.Code)
	switch {
	case err == nil:
		return message(c, http.StatusOK, "Akun berhasil diverifikasi! Anda sekarang bisa login.")
	case errors.Is(err, service.ErrValidation):
		return message(c, http.StatusBadRequest, "Email dan kode verifikasi wajib diisi.")
	case errors.Is(err, service.ErrInvalidCode):
		l.Warn("verify_error", "status", 400, "reason", "wrong code")
		return message(c, http.StatusBadRequest, "Kode verifikasi atau email salah.")
	case errors.Is(err, service.ErrCodeExpired):
		l.Warn("verify_error", "status", 400, "reason", "code expired")
		return message(c, http.StatusBadRequest, "Kode verifikasi telah kedaluwarsa.")
	default:
		l.Error("verify_error", "status", 500, "error", err)
		return message(c, http.StatusInternalServerError, msgServerError)
	}
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return message(c, http.StatusBadRequest, msgBadRequest)
	}

	res, err := h.Svc.Login(ctx, req.Login(), req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNotVerified):
		return message(c, http.StatusUnauthorized, "Akun Anda belum diverifikasi.")
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrValidation):
		return message(c, http.StatusUnauthorized, "Email atau password salah.")
	default:
		l.Error("login_error", "status", 500, "error", err)
		return message(c, http.StatusInternalServerError, msgServerError)
	}

	setSession(c, res.Pair)
	l.Info("login_successful", "user_id", res.User.ID.String())
	return message(c, http.StatusOK, "Selamat datang kembali, "+res.User.Fullname+"!")
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	ck, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || ck.Value == "" {
		return message(c, http.StatusUnauthorized, msgDenied)
	}

	pair, err := h.Svc.Refresh(ctx, ck.Value)
	if errors.Is(err, service.ErrUnauthorized) {
		clearSession(c)
		return message(c, http.StatusUnauthorized, msgDenied)
	}
	if err != nil {
		l.Error("refresh_error", "status", 500, "error", err)
		return message(c, http.StatusInternalServerError, msgServerError)
	}

	setSession(c, pair)
	return message(c, http.StatusOK, "Sesi berhasil diperbarui.")
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	var refresh string
	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil {
		refresh = ck.Value
	}
	clearSession(c)

	if err := h.Svc.LogOut(ctx, refresh); err != nil {
		l.Error("logout_failed", "status", 500, "error", err)
		return message(c, http.StatusInternalServerError, "Gagal menghancurkan sesi.")
	}
	return message(c, http.StatusOK, "Anda berhasil logout.")
}

func (h *AuthHTTP) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.forgot_password")

	var req transport.ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Email wajib diisi.")
	}

	err := h.Svc.ForgotPassword(ctx, req.Email)
	if errors.Is(err, service.ErrValidation) {
		return message(c, http.StatusBadRequest, "Email wajib diisi.")
	}
	if err != nil {
		l.Error("forgot_password_error", "status", 500, "error", err)
		return message(c, http.StatusInternalServerError, msgServerError)
	}
	return message(c, http.StatusOK, "Jika email Anda terdaftar, link untuk reset password telah dikirim.")
}

func (h *AuthHTTP) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.reset_password")

	var req transport.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Token dan password baru wajib diisi.")
	}

	err := h.Svc.ResetPassword(ctx, req.Token, req.NewPassword)
	switch {
	case err == nil:
		return message(c, http.StatusOK, "Password berhasil direset. Silakan login kembali.")
	case errors.Is(err, service.ErrValidation):
		return message(c, http.StatusBadRequest, "Token dan password baru wajib diisi.")
	case errors.Is(err, service.ErrInvalidResetToken):
		return message(c, http.StatusBadRequest, "Token reset password tidak valid atau telah kedaluwarsa.")
	default:
		l.Error("reset_password_error", "status", 500, "error", err)
		return message(c, http.StatusInternalServerError, msgServerError)
	}
}

func (h *AuthHTTP) Profile(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := authmw.UserID(c)
	if err != nil {
		return message(c, http.StatusUnauthorized, msgDenied)
	}

	user, err := h.Svc.Profile(ctx, userID)
	if errors.Is(err, service.ErrNotFound) {
		return message(c, http.StatusUnauthorized, msgDenied)
	}
	if err != nil {
		logging.FromContext(ctx).Error("profile_error", "status", 500, "error", err)
		return message(c, http.StatusInternalServerError, msgServerError)
	}
	return c.JSON(http.StatusOK, transport.NewProfile(user))
}

func (h *AuthHTTP) GoogleStart(c echo.Context) error {
	state, err := hash.RandomHex(16)
	if err != nil {
		return message(c, http.StatusInternalServerError, msgServerError)
	}
	c.SetCookie(tokens.CreateCookie(stateCookie, state, "/auth/google", time.Now().Add(stateTTL)))
	return c.Redirect(http.StatusFound, h.Google.AuthCodeURL(state))
}

func (h *AuthHTTP) GoogleCallback(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.google_callback")
	fail := func(reason string, err error) error {
		l.Warn("google_login_failed", "reason", reason, "error", err)
		return c.Redirect(http.StatusFound, h.BaseURL+"/login.html")
	}

	ck, err := c.Cookie(stateCookie)
	c.SetCookie(tokens.DeleteCookie(stateCookie, "/auth/google"))
	if err != nil || ck.Value == "" || ck.Value != c.QueryParam("state") {
		return fail("state mismatch", err)
	}

	profile, err := h.Google.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		return fail("exchange", err)
	}
	res, err := h.Svc.GoogleLogin(ctx, profile)
	if err != nil {
		return fail("login", err)
	}

	setSession(c, res.Pair)
	l.Info("google_login_successful", "user_id", res.User.ID.String())
	return c.Redirect(http.StatusFound, h.BaseURL+"/index.html")
}
