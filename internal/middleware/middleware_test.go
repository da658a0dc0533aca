package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "s3cret"

func claimsEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := ClaimsFrom(r.Context()); ok {
			io.WriteString(w, claims.Username)
			return
		}
		io.WriteString(w, "anonymous")
	})
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestAuth(t *testing.T) {
	log, _ := test.NewNullLogger()
	h := Auth(log, secret, "maze")(claimsEcho())

	valid, err := NewPlayerToken(secret, "maze", 7, "ann", time.Hour)
	require.NoError(t, err)
	foreign, err := NewPlayerToken("other", "maze", 7, "ann", time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := NewPlayerToken(secret, "elsewhere", 7, "ann", time.Hour)
	require.NoError(t, err)
	expired, err := NewPlayerToken(secret, "maze", 7, "ann", -time.Minute)
	require.NoError(t, err)
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, PlayerClaims{
		Username:         "ann",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "maze"},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	testCases := []struct {
		name   string
		header string
		query  string
		want   string
	}{
		{"no token", "", "", "anonymous"},
		{"valid", "Bearer " + valid, "", "ann"},
		{"query token", "", "?access_token=" + valid, "ann"},
		{"wrong secret", "Bearer " + foreign, "", "anonymous"},
		{"wrong issuer", "Bearer " + wrongIssuer, "", "anonymous"},
		{"expired", "Bearer " + expired, "", "anonymous"},
		{"no expiry", "Bearer " + noExpiry, "", "anonymous"},
		{"garbage", "Bearer abc.def", "", "anonymous"},
		{"basic auth", "Basic YW5uOnB3", "", "anonymous"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/"+tc.query, nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			assert.Equal(t, tc.want, serve(h, r).Body.String())
		})
	}
}

func TestAuthDisabledWithoutSecret(t *testing.T) {
	log, _ := test.NewNullLogger()
	token, err := NewPlayerToken(secret, "", 1, "ann", time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, "anonymous", serve(Auth(log, "", "")(claimsEcho()), r).Body.String())
}

func TestLogging(t *testing.T) {
	log, hook := test.NewNullLogger()
	h := Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	serve(h, httptest.NewRequest(http.MethodPost, "/v1/maze?preset=easy", nil))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, http.StatusTeapot, entry.Data["status"])
	assert.Equal(t, "/v1/maze?preset=easy", entry.Data["uri"])
	assert.Equal(t, http.MethodPost, entry.Data["method"])
}

func TestLoggingDefaultsToOK(t *testing.T) {
	log, hook := test.NewNullLogger()
	h := Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, hook.LastEntry().Data["status"])
}

func TestCors(t *testing.T) {
	h := Cors("https://maze.example")(claimsEcho())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://maze.example")
	assert.Equal(t, "https://maze.example", serve(h, r).Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://evil.example")
	assert.Empty(t, serve(h, r).Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://maze.example")
	assert.Equal(t, "true", serve(h, r).Header().Get("Access-Control-Allow-Credentials"))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "https://any.example")
	rec := serve(Cors()(claimsEcho()), r)
	assert.Equal(t, "https://any.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestWrapOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Wrap(claimsEcho(), tag("inner"), tag("outer"))
	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
}
