package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"sidecrew/internal/domain/account"
	"sidecrew/internal/pkg/response"
	"sidecrew/internal/usecase/auth"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	actor account.Actor
	err   error
}

func (s stubAuth) Authenticate(string) (account.Actor, error) { return s.actor, s.err }

func do(t *testing.T, app *fiber.App, req *http.Request) (int, response.SemanticResponse) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body response.SemanticResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(NewErrorMiddleware(nil).Middleware())
	return app
}

func TestErrorMiddleware(t *testing.T) {
	app := newApp()
	app.Get("/conflict", func(c fiber.Ctx) error {
		return NewAppError(fiber.StatusConflict, "Already applied", fiber.Map{"id": 1}, nil)
	})
	app.Get("/unavailable", func(c fiber.Ctx) error {
		return NewAppError(fiber.StatusServiceUnavailable, "db down: secret detail", nil, errors.New("dial tcp"))
	})
	app.Get("/plain", func(c fiber.Ctx) error {
		return errors.New("boom")
	})
	app.Get("/panic", func(c fiber.Ctx) error {
		panic("kaboom")
	})

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "Already applied", body.Message)
	assert.NotNil(t, body.Data)

	status, body = do(t, app, httptest.NewRequest(http.MethodGet, "/unavailable", nil))
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, response.MessageInternalServerError, body.Message)

	status, body = do(t, app, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, response.MessageInternalServerError, body.Message)

	status, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, fiber.StatusInternalServerError, status)

	status, body = do(t, app, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, fiber.StatusNotFound, body.Status)
}

func TestAuthMiddleware(t *testing.T) {
	worker := account.Actor{Kind: account.KindWorker, ID: uuid.New()}

	build := func(a Authenticator) *fiber.App {
		app := newApp()
		app.Use(NewAuthMiddleware(a).Middleware())
		app.Get("/me", func(c fiber.Ctx) error {
			actor, ok := ActorFrom(c)
			if !ok {
				return fiber.ErrUnauthorized
			}
			return response.Success(c, fiber.StatusOK, "", actor.ID.String())
		})
		app.Get("/agents-only", RequireRole(account.KindAgent), func(c fiber.Ctx) error {
			return response.Success(c, fiber.StatusOK, "", nil)
		})
		return app
	}

	req := func(path, header string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		return r
	}

	app := build(stubAuth{actor: worker})

	status, _ := do(t, app, req("/me", ""))
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := do(t, app, req("/me", "Bearer good"))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, worker.ID.String(), body.Data)

	status, body = do(t, app, req("/agents-only", "Bearer good"))
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "Forbidden", body.Message)

	expired := build(stubAuth{err: auth.ErrTokenExpired})
	status, body = do(t, expired, req("/me", "Bearer old"))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Token expired", body.Message)

	invalid := build(stubAuth{err: auth.ErrInvalidToken})
	_, body = do(t, invalid, req("/me", "bearer forged"))
	assert.Equal(t, "Invalid token", body.Message)
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		header string
		token  string
		ok     bool
	}{
		"empty":        {"", "", false},
		"no scheme":    {"abc", "", false},
		"wrong scheme": {"Basic abc", "", false},
		"blank token":  {"Bearer   ", "", false},
		"valid":        {"Bearer abc", "abc", true},
		"lower case":   {"bearer  abc ", "abc", true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			token, ok := BearerToken(tc.header)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.token, token)
		})
	}
}
