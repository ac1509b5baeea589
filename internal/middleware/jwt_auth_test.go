package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func makeToken(t *testing.T, secret []byte, issuer, subject, inn string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := ParticipantClaims{
		Inn: inn,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("signed token: %v", err)
	}
	return s
}

func TestJWTMiddleware_Valid(t *testing.T) {
	secret := []byte("test-secret")
	issuer := "test-issuer"

	mw := NewJWTMiddleware(secret, issuer)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-User-ID"); got != "user123" {
			t.Fatalf("expected X-User-ID=user123 got=%s", got)
		}
		if got := r.Header.Get("X-Participant-INN"); got != "1234567890" {
			t.Fatalf("expected X-Participant-INN=1234567890 got=%s", got)
		}
		w.WriteHeader(http.StatusOK)
	}))

	token := makeToken(t, secret, issuer, "user123", "1234567890", time.Minute)

	req := httptest.NewRequest(http.MethodPost, "/api/v3/lk/documents/create", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	mw := NewJWTMiddleware([]byte("test-secret"), "")
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without a token")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v3/lk/documents/create", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func TestJWTMiddleware_WrongSecret(t *testing.T) {
	mw := NewJWTMiddleware([]byte("right-secret"), "")
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run with a forged token")
	}))

	token := makeToken(t, []byte("wrong-secret"), "", "user123", "", time.Minute)

	req := httptest.NewRequest(http.MethodPost, "/api/v3/lk/documents/create", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func TestJWTMiddleware_WrongIssuer(t *testing.T) {
	secret := []byte("test-secret")
	mw := NewJWTMiddleware(secret, "expected-issuer")
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run with a wrong issuer")
	}))

	token := makeToken(t, secret, "other-issuer", "user123", "", time.Minute)

	req := httptest.NewRequest(http.MethodPost, "/api/v3/lk/documents/create", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func TestJWTMiddleware_Expired(t *testing.T) {
	secret := []byte("test-secret")
	mw := NewJWTMiddleware(secret, "")
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run with an expired token")
	}))

	token := makeToken(t, secret, "", "user123", "", -time.Minute)

	req := httptest.NewRequest(http.MethodPost, "/api/v3/lk/documents/create", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}
