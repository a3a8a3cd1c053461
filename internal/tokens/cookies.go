package tokens

import (
	"net/http"
	"time"
)

func CreateCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// SessionCookies returns the cookie pair for a signed session.
func SessionCookies(p *Pair) []*http.Cookie {
	return []*http.Cookie{
		CreateCookie(AccessCookie, p.AccessToken, "/", p.AccessExp),
		CreateCookie(RefreshCookie, p.RefreshToken, "/", p.RefreshExp),
	}
}

func ClearSessionCookies() []*http.Cookie {
	return []*http.Cookie{
		DeleteCookie(AccessCookie, "/"),
		DeleteCookie(RefreshCookie, "/"),
	}
}
