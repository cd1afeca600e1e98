package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/marcus/adapters"
	"github.com/satriahrh/marcus/adapters/profile"
	"github.com/satriahrh/marcus/domain"
	"github.com/satriahrh/marcus/domain/entities"
	"github.com/satriahrh/marcus/domain/repositories"
	"github.com/satriahrh/marcus/internal/auth"
	"github.com/satriahrh/marcus/internal/websocket"
)

type staticCatalog map[string][]string

func (s staticCatalog) Commands() map[string][]string { return s }

// greeter says one line and ends the conversation
type greeter struct{}

func (greeter) Run(ctx context.Context, ch repositories.Channel, _ string) error {
	return ch.Speak(ctx, "Marcus AI says: Good morning!")
}

type testServer struct {
	e        *echo.Echo
	issuer   *auth.Issuer
	profiles *profile.FileRepository
	deviceID string
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)

	devices, err := adapters.NewMemoryDeviceRepositoryFromCredentials(context.Background(), []string{"MARCUS-001:s3cret"})
	require.NoError(t, err)
	device, err := devices.ValidateDevice("MARCUS-001", "s3cret")
	require.NoError(t, err)

	issuer, err := auth.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	hub := websocket.NewHub(greeter{}, nil, nil, websocket.Options{}, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		hub.Wait()
	})

	profiles := profile.NewFileRepository(filepath.Join(t.TempDir(), "business_details.json"), logger)

	e := echo.New()
	InitRoutes(e, Dependencies{
		Hub:      hub,
		Devices:  devices,
		Issuer:   issuer,
		Profiles: profiles,
		Commands: staticCatalog{"global": {"open youtube", "exit"}},
	}, logger)

	return &testServer{e: e, issuer: issuer, profiles: profiles, deviceID: device.ID}
}

func (s *testServer) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) token(t *testing.T) string {
	t.Helper()
	token, _, err := s.issuer.GenerateDeviceToken(s.deviceID)
	require.NoError(t, err)
	return token
}

func TestHealth(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"marcus","devices":0}`, rec.Body.String())
}

func TestDeviceAuth(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{name: "valid credentials", body: `{"serial_number":"MARCUS-001","secret_key":"s3cret"}`, wantCode: http.StatusOK},
		{name: "wrong secret", body: `{"serial_number":"MARCUS-001","secret_key":"nope"}`, wantCode: http.StatusUnauthorized, wantErr: "authentication_failed"},
		{name: "unknown device", body: `{"serial_number":"MARCUS-404","secret_key":"s3cret"}`, wantCode: http.StatusUnauthorized, wantErr: "authentication_failed"},
		{name: "missing fields", body: `{"serial_number":"MARCUS-001"}`, wantCode: http.StatusBadRequest, wantErr: "missing_fields"},
		{name: "malformed body", body: `{"serial_number":`, wantCode: http.StatusBadRequest, wantErr: "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/v1/device/auth", tt.body, "")
			assert.Equal(t, tt.wantCode, rec.Code)

			if tt.wantErr != "" {
				var resp ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantErr, resp.Error)
				return
			}

			var resp DeviceAuthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, s.deviceID, resp.DeviceID)
			assert.True(t, resp.ExpiresAt.After(time.Now()))

			claims, err := s.issuer.ValidateToken(resp.Token)
			require.NoError(t, err)
			assert.Equal(t, s.deviceID, claims.DeviceID)
		})
	}
}

func TestGetProfile(t *testing.T) {
	s := setupTestServer(t)
	token := s.token(t)

	rec := s.do(t, http.MethodGet, "/api/v1/profile", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, s.profiles.Save(context.Background(), &entities.BusinessProfile{
		Name:  "Acme Trading",
		Phone: "555-0100",
	}))

	rec = s.do(t, http.MethodGet, "/api/v1/profile", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	var got entities.BusinessProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Acme Trading", got.Name)
	assert.Equal(t, "555-0100", got.Phone)
}

func TestGetCommands(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/commands", "", s.token(t))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"global":["open youtube","exit"]}`, rec.Body.String())
}

func TestRequireDevice(t *testing.T) {
	s := setupTestServer(t)

	other, _ := auth.NewIssuer("other-secret", time.Hour)
	forged, _, err := other.GenerateDeviceToken(s.deviceID)
	require.NoError(t, err)
	orphan, _, err := s.issuer.GenerateDeviceToken("removed-device")
	require.NoError(t, err)

	tests := []struct {
		name     string
		token    string
		wantCode int
		wantErr  string
	}{
		{name: "missing token", token: "", wantCode: http.StatusUnauthorized, wantErr: "missing_token"},
		{name: "garbage token", token: "not-a-jwt", wantCode: http.StatusUnauthorized, wantErr: "invalid_token"},
		{name: "foreign signature", token: forged, wantCode: http.StatusUnauthorized, wantErr: "invalid_token"},
		{name: "unregistered device", token: orphan, wantCode: http.StatusUnauthorized, wantErr: "unknown_device"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, path := range []string{"/api/v1/profile", "/api/v1/commands", "/ws"} {
				rec := s.do(t, http.MethodGet, path, "", tt.token)
				assert.Equal(t, tt.wantCode, rec.Code, path)

				var resp ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantErr, resp.Error, path)
			}
		})
	}
}

func TestWebSocket_AuthenticatedDevice(t *testing.T) {
	s := setupTestServer(t)
	server := httptest.NewServer(s.e)
	defer server.Close()

	header := http.Header{}
	header.Set(echo.HeaderAuthorization, "Bearer "+s.token(t))
	conn, _, err := gorilla.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", header)
	require.NoError(t, err)
	defer conn.Close()

	var types []string
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			assert.True(t, gorilla.IsCloseError(err, gorilla.CloseNormalClosure), "got %v", err)
			break
		}
		types = append(types, msg["type"].(string))
	}

	assert.Equal(t, []string{
		domain.MessageTypeSessionStarted,
		domain.MessageTypeSpeakingStart,
		domain.MessageTypeSpeakingEnd,
		domain.MessageTypeSessionEnded,
	}, types)
}
