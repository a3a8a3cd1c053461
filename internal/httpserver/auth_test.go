package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/go_outdoor/internal/oauth"
	"github.com/Skotchmaster/go_outdoor/internal/tokens"
	"github.com/Skotchmaster/go_outdoor/internal/transport"
)

func TestRegisterVerifyLogin(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/register", transport.RegisterRequest{
		Fullname: "Ana", Email: "ana@x.com", Password: "pw123456",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Registrasi berhasil! Silakan cek email untuk verifikasi.", messageOf(t, rec))

	rec = s.do(t, http.MethodPost, "/auth/login", transport.LoginRequest{Identifier: "ana@x.com", Password: "pw123456"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Akun Anda belum diverifikasi.", messageOf(t, rec))

	rec = s.do(t, http.MethodPost, "/auth/verify", transport.VerifyRequest{Email: "ana@x.com", Code: "000000"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Kode verifikasi atau email salah.", messageOf(t, rec))

	rec = s.do(t, http.MethodPost, "/auth/verify", transport.VerifyRequest{Email: "ana@x.com", Code: s.mailer.codes["ana@x.com"]})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Akun berhasil diverifikasi! Anda sekarang bisa login.", messageOf(t, rec))

	rec = s.do(t, http.MethodPost, "/auth/login", transport.LoginRequest{Identifier: "ana@x.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Email atau password salah.", messageOf(t, rec))

	rec = s.do(t, http.MethodPost, "/auth/login", transport.LoginRequest{Identifier: "ana@x.com", Password: "pw123456"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Selamat datang kembali, Ana!", messageOf(t, rec))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)

	rec = s.do(t, http.MethodGet, "/auth/profile", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[map[string]any](t, rec)
	assert.Equal(t, "ana@x.com", profile["email"])
	assert.Equal(t, true, profile["is_verified"])
	assert.NotContains(t, profile, "password")
}

func TestRegister_Errors(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/register", transport.RegisterRequest{Email: "ana@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Semua kolom wajib diisi.", messageOf(t, rec))

	body := transport.RegisterRequest{Fullname: "Ana", Email: "ana@x.com", Password: "pw123456"}
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/auth/register", body).Code)

	rec = s.do(t, http.MethodPost, "/auth/register", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email sudah terdaftar.", messageOf(t, rec))
}

func TestVerify_MissingFields(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/auth/verify", transport.VerifyRequest{Email: "ana@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email dan kode verifikasi wajib diisi.", messageOf(t, rec))
}

func TestProfile_RequiresSession(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/auth/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Akses ditolak. Silakan login terlebih dahulu.", messageOf(t, rec))
}

func TestForgotAndResetPassword(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.signIn(t, "ana@x.com")

	rec := s.do(t, http.MethodPost, "/auth/forgot-password", transport.ForgotPasswordRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email wajib diisi.", messageOf(t, rec))

	for _, email := range []string{"ghost@x.com", "ana@x.com"} {
		rec = s.do(t, http.MethodPost, "/auth/forgot-password", transport.ForgotPasswordRequest{Email: email})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Jika email Anda terdaftar, link untuk reset password telah dikirim.", messageOf(t, rec))
	}

	rec = s.do(t, http.MethodPost, "/auth/reset-password", transport.ResetPasswordRequest{Token: "nope", NewPassword: "newpass1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Token reset password tidak valid atau telah kedaluwarsa.", messageOf(t, rec))

	rec = s.do(t, http.MethodPost, "/auth/reset-password", transport.ResetPasswordRequest{Token: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Token dan password baru wajib diisi.", messageOf(t, rec))

	token := s.mailer.resets["ana@x.com"]
	rec = s.do(t, http.MethodPost, "/auth/reset-password", transport.ResetPasswordRequest{Token: token, NewPassword: "newpass1"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password berhasil direset. Silakan login kembali.", messageOf(t, rec))

	rec = s.do(t, http.MethodPost, "/auth/login", transport.LoginRequest{Email: "ana@x.com", Password: "newpass1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	_, cookies := s.signIn(t, "ana@x.com")

	rec := s.do(t, http.MethodPost, "/auth/refresh", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := rec.Result().Cookies()
	require.Len(t, rotated, 2)

	// the old refresh token was consumed by the rotation
	rec = s.do(t, http.MethodPost, "/auth/refresh", nil, cookies...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/logout", nil, rotated...)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Anda berhasil logout.", messageOf(t, rec))

	rec = s.do(t, http.MethodPost, "/auth/refresh", nil, rotated...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGoogleLogin(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.google.profile = &oauth.Profile{ID: "g-1", Email: "citra@x.com", Name: "Citra"}

	rec := s.do(t, http.MethodGet, "/auth/google", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	var state *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == stateCookie {
			state = ck
		}
	}
	require.NotNil(t, state)
	assert.Contains(t, rec.Header().Get("Location"), "state="+state.Value)

	rec = s.do(t, http.MethodGet, "/auth/google/callback?code=abc&state=wrong", nil, state)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://shop.test/login.html", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "/auth/google/callback?code=abc&state="+state.Value, nil, state)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://shop.test/index.html", rec.Header().Get("Location"))

	var names []string
	for _, ck := range rec.Result().Cookies() {
		if ck.Value != "" {
			names = append(names, ck.Name)
		}
	}
	assert.ElementsMatch(t, []string{tokens.AccessCookie, tokens.RefreshCookie}, names)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
