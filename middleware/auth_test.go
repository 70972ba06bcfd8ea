package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var testSecret = []byte("test-secret")

func protected() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(SubjectFromContext(r.Context())))
	})
	return Authenticate(testSecret, logger)(Authorize(RoleOrganizer)(ok))
}

func signed(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestAuthenticate(t *testing.T) {
	now := time.Now()
	valid, _, err := IssueOrganizerToken(testSecret, "desk", time.Hour, now)
	if err != nil {
		t.Fatalf("IssueOrganizerToken: %v", err)
	}
	expired, _, _ := IssueOrganizerToken(testSecret, "desk", time.Hour, now.Add(-2*time.Hour))
	otherKey, _, _ := IssueOrganizerToken([]byte("other"), "desk", time.Hour, now)
	viewer := signed(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "x", "role": "viewer", "exp": now.Add(time.Hour).Unix()})
	unsigned := signed(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"role": RoleOrganizer})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "bearer " + valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong key", "Bearer " + otherKey, http.StatusUnauthorized},
		{"alg none", "Bearer " + unsigned, http.StatusUnauthorized},
		{"wrong role", "Bearer " + viewer, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected().ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status == http.StatusOK && rec.Body.String() != "desk" {
				t.Errorf("subject = %q", rec.Body.String())
			}
			if tt.status != http.StatusOK && !strings.Contains(rec.Body.String(), `"error"`) {
				t.Errorf("body = %q", rec.Body.String())
			}
		})
	}
}

func TestIssueOrganizerToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	raw, expires, err := IssueOrganizerToken(testSecret, "desk", 12*time.Hour, now)
	if err != nil {
		t.Fatalf("IssueOrganizerToken: %v", err)
	}
	if !expires.Equal(now.Add(12 * time.Hour)) {
		t.Errorf("expires = %v", expires)
	}
	parser := jwt.Parser{SkipClaimsValidation: true}
	claims := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) { return testSecret, nil }); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims["role"] != RoleOrganizer || claims["sub"] != "desk" || claims["exp"] != float64(expires.Unix()) {
		t.Errorf("claims = %v", claims)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	out := buf.String()
	for _, want := range []string{"method=GET", "path=/healthz", "status=418", "component=http"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}
