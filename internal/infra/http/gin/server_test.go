package ginserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authsvc "weekstay/internal/app/services/auth"
	bookingsvc "weekstay/internal/app/services/booking"
	housesvc "weekstay/internal/app/services/house"
	usersvc "weekstay/internal/app/services/user"
	"weekstay/internal/infra/config"
	ginserver "weekstay/internal/infra/http/gin"
	"weekstay/internal/infra/obs"
	"weekstay/internal/infra/security"
	"weekstay/internal/infra/storage/memory"
)

type testServer struct {
	router http.Handler
	users  *usersvc.Service
	auth   *authsvc.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	bookings := memory.NewBookingRepository()
	houses := memory.NewHouseRepository()
	users := memory.NewUserRepository()
	box := memory.NewOutbox()

	hasher := security.BcryptHasher{}
	tokens := security.JWTCodec{Secret: []byte("test-secret")}

	authService := &authsvc.Service{Users: users, Passwords: hasher, Tokens: tokens}
	bookingService := &bookingsvc.Service{Bookings: bookings, Houses: houses, Users: users, Outbox: box}
	houseService := &housesvc.Service{Houses: houses, Bookings: bookings, Users: users}
	userService := &usersvc.Service{Users: users, Houses: houses, Passwords: hasher}

	handlers := ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Auth: authService, Users: userService},
		House:          ginserver.HouseHandler{Houses: houseService},
		Booking:        ginserver.BookingHandler{Bookings: bookingService},
		User:           ginserver.UserHandler{Users: userService},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService}.Handle,
	}
	router := ginserver.NewRouter(config.Config{Env: "test"}, obs.Middleware{}, obs.HealthHandlers{}, handlers)
	return &testServer{router: router, users: userService, auth: authService}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) seedAdmin(t *testing.T) string {
	t.Helper()
	_, err := s.users.Create(context.Background(), usersvc.CreateParams{
		Username: "root",
		Email:    "root@example.com",
		Password: "secret",
		Role:     "admin",
	})
	require.NoError(t, err)
	return s.login(t, "root", "secret")
}

func (s *testServer) login(t *testing.T, login, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"login":    login,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)
	s.seedAdmin(t)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"login":    "root",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginAcceptsEmail(t *testing.T) {
	s := newTestServer(t)
	s.seedAdmin(t)
	token := s.login(t, "root@example.com", "secret")

	rec := s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeJSON[map[string]any](t, rec)
	assert.Equal(t, "root", me["username"])
}

func TestHouseRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedAdmin(t)

	_, err := s.users.Create(context.Background(), usersvc.CreateParams{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	alice := s.login(t, "alice", "secret")

	body := map[string]string{"name": "seaside", "description": "by the shore"}
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/v1/houses", "", body).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/api/v1/houses", alice, body).Code)
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/v1/houses", admin, body).Code)
}

func TestHouseListScopedToAssignments(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedAdmin(t)

	type houseResp struct {
		ID string `json:"id"`
	}
	created := decodeJSON[houseResp](t, s.do(t, http.MethodPost, "/api/v1/houses", admin, map[string]string{"name": "seaside"}))
	decodeJSON[houseResp](t, s.do(t, http.MethodPost, "/api/v1/houses", admin, map[string]string{"name": "cabin"}))

	aliceResp := decodeJSON[houseResp](t, s.do(t, http.MethodPost, "/api/v1/users", admin, map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "secret",
	}))
	rec := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%s/assign-house", aliceResp.ID), admin, map[string]string{"house_id": created.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	alice := s.login(t, "alice", "secret")

	type listResp struct {
		Items []houseResp `json:"items"`
	}
	adminList := decodeJSON[listResp](t, s.do(t, http.MethodGet, "/api/v1/houses", admin, nil))
	assert.Len(t, adminList.Items, 2)

	aliceList := decodeJSON[listResp](t, s.do(t, http.MethodGet, "/api/v1/houses", alice, nil))
	require.Len(t, aliceList.Items, 1)
	assert.Equal(t, created.ID, aliceList.Items[0].ID)
}

func TestBookingFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedAdmin(t)

	type idResp struct {
		ID string `json:"id"`
	}
	house := decodeJSON[idResp](t, s.do(t, http.MethodPost, "/api/v1/houses", admin, map[string]string{"name": "seaside"}))
	alice := decodeJSON[idResp](t, s.do(t, http.MethodPost, "/api/v1/users", admin, map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "secret",
	}))
	rec := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%s/credits", alice.ID), admin, map[string]int{"amount": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	aliceToken := s.login(t, "alice", "secret")

	// 2024-06-04 is a Tuesday, 2024-06-10 the following Monday.
	createBody := map[string]string{
		"house_id":   house.ID,
		"start_date": time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
		"end_date":   time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}
	rec = s.do(t, http.MethodPost, "/api/v1/bookings", aliceToken, createBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booking := decodeJSON[idResp](t, rec)

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%s/credits", alice.ID), aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	credits := decodeJSON[map[string]int](t, rec)
	assert.Equal(t, 1, credits["credits"])

	// the same week again conflicts
	rec = s.do(t, http.MethodPost, "/api/v1/bookings", aliceToken, createBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// a Saturday start is rejected by the week policy
	badBody := map[string]string{
		"house_id":   house.ID,
		"start_date": time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
		"end_date":   time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}
	rec = s.do(t, http.MethodPost, "/api/v1/bookings", aliceToken, badBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/bookings/%s/cancel", booking.ID), aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%s/credits", alice.ID), aliceToken, nil)
	credits = decodeJSON[map[string]int](t, rec)
	assert.Equal(t, 2, credits["credits"])

	rec = s.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/bookings/%s/cancel", booking.ID), aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserCannotReadAnotherBalance(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedAdmin(t)

	type idResp struct {
		ID string `json:"id"`
	}
	alice := decodeJSON[idResp](t, s.do(t, http.MethodPost, "/api/v1/users", admin, map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "secret",
	}))
	decodeJSON[idResp](t, s.do(t, http.MethodPost, "/api/v1/users", admin, map[string]string{
		"username": "bob", "email": "bob@example.com", "password": "secret",
	}))
	bob := s.login(t, "bob", "secret")

	rec := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%s/credits", alice.ID), bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteLastAdminRefused(t *testing.T) {
	s := newTestServer(t)
	admin := s.seedAdmin(t)

	rec := s.do(t, http.MethodGet, "/api/v1/auth/me", admin, nil)
	me := decodeJSON[map[string]any](t, rec)

	rec = s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%s", me["id"]), admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
