package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"citylog/internal/app/service"
	"citylog/internal/common/security"
	"citylog/internal/domain/model"
	"citylog/internal/domain/repository"
	"citylog/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMailer struct {
	lastURL string
}

func (m *stubMailer) SendPasswordReset(ctx context.Context, to, firstName, resetURL string) error {
	m.lastURL = resetURL
	return nil
}

type stubCounter struct{}

func (stubCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	return 1, nil
}

type testEnv struct {
	server *httptest.Server
	users  *repository.MemoryUserRepository
	mailer *stubMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Env:             "production",
		JWTSecret:       []byte("router-test-secret"),
		JWTExp:          time.Hour,
		CookieExp:       24 * time.Hour,
		RateLimitMax:    1000,
		RateLimitWindow: time.Hour,
	}

	users := repository.NewMemoryUserRepository()
	cities := repository.NewMemoryCityRepository()
	tokens := security.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExp)
	mailer := &stubMailer{}

	router := NewRouter(cfg, tokens, users,
		service.NewAuthService(users, tokens, mailer),
		service.NewUserService(users),
		service.NewCityService(cities),
		stubCounter{},
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, users: users, mailer: mailer}
}

func (e *testEnv) do(t *testing.T, method, path, token string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	decoded := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func (e *testEnv) signup(t *testing.T, email, phone string) (token, userID string) {
	t.Helper()

	resp, body := e.do(t, http.MethodPost, "/api/v1/users/signup", "", map[string]interface{}{
		"firstName":       "Marco",
		"lastName":        "Polo",
		"email":           email,
		"phoneNumber":     phone,
		"password":        "wanderlust1",
		"confirmPassword": "wanderlust1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "signup body: %v", body)

	token, _ = body["token"].(string)
	user, _ := body["user"].(map[string]interface{})
	userID, _ = user["id"].(string)
	require.NotEmpty(t, token)
	require.NotEmpty(t, userID)
	return token, userID
}

func TestSignupEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/v1/users/signup", "", map[string]interface{}{
		"firstName":       "Marco",
		"lastName":        "Polo",
		"email":           "marco@example.com",
		"phoneNumber":     "+15550002222",
		"password":        "wanderlust1",
		"confirmPassword": "wanderlust1",
	})

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Your account has been created successfully.", body["message"])
	assert.NotEmpty(t, body["token"])

	user := body["user"].(map[string]interface{})
	assert.Equal(t, "marco@example.com", user["email"])
	assert.Equal(t, "USER", user["role"])
	// Credentials never leave the server, in any spelling.
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "hashedPassword")

	var jwtCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "jwt" {
			jwtCookie = c
		}
	}
	require.NotNil(t, jwtCookie)
	assert.True(t, jwtCookie.HttpOnly)
	assert.Equal(t, body["token"], jwtCookie.Value)
}

func TestLoginEndpoint_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "marco@example.com", "+15550002222")

	resp, body := env.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]interface{}{
		"email":    "marco@example.com",
		"password": "wrong-password",
	})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Incorrect email or password", body["message"])
	assert.NotContains(t, body, "token")
	for _, c := range resp.Cookies() {
		assert.NotEqual(t, "jwt", c.Name)
	}
}

func TestProtectedRoute_NoToken(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/v1/cities/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "You are not logged in! Please login to get access", body["message"])
}

func TestCityLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ownerToken, _ := env.signup(t, "owner@example.com", "+15550001111")
	strangerToken, _ := env.signup(t, "stranger@example.com", "+15550002222")

	cityPayload := map[string]interface{}{
		"cityName": "Lisbon",
		"country":  "Portugal",
		"emoji":    "🇵🇹",
		"date":     "2024-07-14T00:00:00Z",
		"notes":    "Pastéis de nata every morning",
		"position": map[string]float64{"lat": 38.7223, "lng": -9.1393},
	}

	resp, body := env.do(t, http.MethodPost, "/api/v1/cities/", ownerToken, cityPayload)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "create body: %v", body)
	assert.Equal(t, "City added", body["message"])
	city := body["city"].(map[string]interface{})
	cityID := city["id"].(string)
	assert.Equal(t, "lisbon-portugal", city["slug"])

	// Listing is scoped to the requester.
	resp, body = env.do(t, http.MethodGet, "/api/v1/cities/", strangerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["results"])

	resp, body = env.do(t, http.MethodGet, "/api/v1/cities/", ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["results"])

	// A stranger cannot read or delete the record, and learns nothing from
	// the status code.
	resp, body = env.do(t, http.MethodGet, "/api/v1/cities/"+cityID, strangerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No city found with this ID => "+cityID, body["message"])

	resp, _ = env.do(t, http.MethodDelete, "/api/v1/cities/"+cityID, strangerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = env.do(t, http.MethodDelete, "/api/v1/cities/"+cityID, ownerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "City deleted", body["message"])
}

func TestCityUpdate_NotSupported(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "owner@example.com", "+15550001111")

	resp, body := env.do(t, http.MethodPatch,
		"/api/v1/cities/33333333-3333-3333-3333-333333333333", token,
		map[string]interface{}{"notes": "updated"})

	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "The request method is not supported by the server and cannot be handled", body["message"])
}

func TestAdminRoutes_RoleGate(t *testing.T) {
	env := newTestEnv(t)
	userToken, userID := env.signup(t, "user@example.com", "+15550001111")

	resp, body := env.do(t, http.MethodGet, "/api/v1/users/allUsers", userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "You do not have permission to perform this action", body["message"])

	// Promote the account directly in storage; the middleware refetches the
	// user per request, so the same token now passes the gate.
	user, err := env.users.FindByID(context.Background(), userID)
	require.NoError(t, err)
	user.Role = model.RoleAdmin
	require.NoError(t, env.users.Update(context.Background(), user))

	resp, body = env.do(t, http.MethodGet, "/api/v1/users/allUsers", userToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["results"])
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "marco@example.com", "+15550002222")

	resp, body := env.do(t, http.MethodPost, "/api/v1/users/forgotPassword", "",
		map[string]interface{}{"email": "marco@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode, "forgot body: %v", body)
	assert.Equal(t, "Check your email for an instruction", body["message"])
	require.NotEmpty(t, env.mailer.lastURL)

	resp, body = env.do(t, http.MethodPatch, env.mailer.lastURL[len(env.server.URL):], "",
		map[string]interface{}{"password": "fresh-password1", "confirmPassword": "fresh-password1"})
	require.Equal(t, http.StatusOK, resp.StatusCode, "reset body: %v", body)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]interface{}{
		"email":    "marco@example.com",
		"password": "fresh-password1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/v1/users/forgotPassword", "",
		map[string]interface{}{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "There is no user with this email address", body["message"])
}

func TestUpdatePassword_InvalidatesOldSessions(t *testing.T) {
	env := newTestEnv(t)
	oldToken, _ := env.signup(t, "marco@example.com", "+15550002222")

	// The change stamp is backdated a second and compared at second
	// granularity, so the old token must predate it by a full second.
	time.Sleep(2100 * time.Millisecond)

	resp, body := env.do(t, http.MethodPatch, "/api/v1/users/updateMyPassword", oldToken,
		map[string]interface{}{
			"currentPassword": "wanderlust1",
			"password":        "even-better-pass1",
			"confirmPassword": "even-better-pass1",
		})
	require.Equal(t, http.StatusOK, resp.StatusCode, "update body: %v", body)
	newToken := body["token"].(string)
	require.NotEmpty(t, newToken)

	resp, body = env.do(t, http.MethodGet, "/api/v1/cities/", oldToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "User recently changed password! Please login again", body["message"])

	resp, _ = env.do(t, http.MethodGet, "/api/v1/cities/", newToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUpdateMe_RejectsPasswordField(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup(t, "marco@example.com", "+15550002222")

	resp, body := env.do(t, http.MethodPatch, "/api/v1/users/updateMe", token,
		map[string]interface{}{"firstName": "Niccolò", "password": "sneaky-pass1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "This route is not for password updates, please use /updateMyPassword", body["message"])
}

func TestLogoutEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/v1/users/logout", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "You have been successfully logged out", body["message"])

	var jwtCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "jwt" {
			jwtCookie = c
		}
	}
	require.NotNil(t, jwtCookie)
	assert.Equal(t, "logged-out", jwtCookie.Value)
	assert.True(t, jwtCookie.Expires.Before(time.Now().Add(2*time.Second)))
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "can not find /api/v1/nope on this server", body["message"])
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

