package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avelasov/techstore/internal/handlers"
	"github.com/avelasov/techstore/internal/identity"
	"github.com/avelasov/techstore/internal/models"
	"github.com/avelasov/techstore/internal/session"
	"github.com/avelasov/techstore/internal/store"
	httpserver "github.com/avelasov/techstore/internal/transport/http"
)

// fakeProducer records published events instead of talking to Kafka.
type fakeProducer struct {
	mu     sync.Mutex
	topics []string
}

func (p *fakeProducer) PublishEvent(ctx context.Context, topic, key string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

type testEnv struct {
	T        *testing.T
	E        *echo.Echo
	DB       *gorm.DB
	Identity *identity.Service
	Sessions *session.Manager
	Producer *fakeProducer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.User{},
		&models.RefreshToken{},
		&models.CartItem{},
		&models.WishlistItem{},
	))

	products := []models.Product{
		{Name: "Laptop", Description: "14 inch", Price: 999.99},
		{Name: "Mouse", Description: "wireless", Price: 24.50},
		{Name: "Keyboard", Description: "mechanical", Price: 79.00},
	}
	require.NoError(t, db.Create(&products).Error)

	provider := &identity.Service{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewManager(provider, store.NewGormStore(db), logger)
	sessions.Start()
	t.Cleanup(sessions.Close)

	prod := &fakeProducer{}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())

	httpserver.Register(e, &httpserver.Deps{
		Sessions:        sessions,
		AuthHandler:     &handlers.AuthHandler{Identity: provider, Producer: prod},
		ProductHandler:  &handlers.ProductHandler{DB: db, Producer: prod},
		CartHandler:     &handlers.CartHandler{Producer: prod},
		WishlistHandler: &handlers.WishlistHandler{Producer: prod},
		MeHandler:       &handlers.MeHandler{},
	})

	return &testEnv{T: t, E: e, DB: db, Identity: provider, Sessions: sessions, Producer: prod}
}

func (env *testEnv) do(method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	env.T.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) register(email, password, role string) {
	env.T.Helper()
	rec := env.do(http.MethodPost, "/api/v1/register", map[string]string{
		"email":    email,
		"password": password,
		"name":     "Test User",
	})
	require.Equal(env.T, http.StatusOK, rec.Code)
	if role != "customer" {
		require.NoError(env.T, env.DB.Model(&models.User{}).
			Where("email = ?", email).
			Update("role", role).Error)
	}
}

func (env *testEnv) login(email, password string) *http.Cookie {
	env.T.Helper()
	rec := env.do(http.MethodPost, "/api/v1/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(env.T, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(env.T, resp.AccessToken)
	return &http.Cookie{Name: "accessToken", Value: resp.AccessToken, Path: "/"}
}

func (env *testEnv) loginAs(role string) *http.Cookie {
	env.T.Helper()
	email := role + "@example.com"
	env.register(email, "password", role)
	return env.login(email, "password")
}
