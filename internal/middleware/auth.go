// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

// OTPHeader carries the admin's current TOTP code on write requests.
const OTPHeader = "X-Admin-OTP"

// RequireAdminToken rejects requests whose bearer token does not match
// tokenHash (a bcrypt hash). When totpSecret is non-empty the request must
// also carry a valid code in X-Admin-OTP. An empty tokenHash rejects
// everything.
func RequireAdminToken(tokenHash, totpSecret string) func(http.Handler) http.Handler {
	hash := []byte(tokenHash)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok || len(hash) == 0 {
				unauthorized(w, r, "missing credentials")
				return
			}
			if err := bcrypt.CompareHashAndPassword(hash, []byte(token)); err != nil {
				unauthorized(w, r, "token mismatch")
				return
			}
			if totpSecret != "" && !totp.Validate(strings.TrimSpace(r.Header.Get(OTPHeader)), totpSecret) {
				unauthorized(w, r, "invalid one-time code")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, r *http.Request, reason string) {
	slog.Warn("admin auth rejected",
		"reason", reason,
		"path", r.URL.Path,
		"remote", clientIP(r),
		"request_id", RequestIDFromCtx(r.Context()),
	)
	w.Header().Set("WWW-Authenticate", `Bearer realm="promptlib"`)
	writeError(w, http.StatusUnauthorized, "Unauthorized")
}
