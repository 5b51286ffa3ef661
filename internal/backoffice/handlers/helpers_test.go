package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"backoffice/internal/backoffice/service"
	"backoffice/pkg/jwtfactory"
	"backoffice/pkg/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// handlerEnv mounts handlers behind the same verifier chain the server uses,
// so the claim plumbing is covered too.
type handlerEnv struct {
	router  chi.Router
	factory *jwtfactory.TokenFactory
}

func newHandlerEnv(t *testing.T, mount func(router chi.Router)) *handlerEnv {
	t.Helper()
	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)
	router := chi.NewRouter()
	router.Group(func(router chi.Router) {
		router.Use(jwtauth.Verifier(tokenAuth))
		router.Use(jwtauth.Authenticator(tokenAuth))
		mount(router)
	})
	return &handlerEnv{
		router:  router,
		factory: jwtfactory.New(tokenAuth, time.Hour),
	}
}

func (e *handlerEnv) do(t *testing.T, method, target, body string, actor *service.Actor) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if actor != nil {
		token, err := e.factory.Generate(actor.ID, string(actor.Role))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func testLogger(t *testing.T) *logging.ZapLogger {
	t.Helper()
	logger, err := logging.NewZapLogger(zapcore.ErrorLevel)
	require.NoError(t, err)
	return logger
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
