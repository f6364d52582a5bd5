package main

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/config"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRouter(t *testing.T) {
	// Setup dependencies
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err, "failed to create database")
	defer db.Close()

	// Use relative paths for tests running in cmd/server
	h := handlers.NewHandlers(db, "../../web/templates", false)

	if _, err := os.Stat("../../web/templates"); os.IsNotExist(err) {
		t.Skip("Template directory not found, skipping router test")
	}

	// Create router - this triggers the panic if routing conflict exists
	mux := setupRouter(h, "../../web/static")

	// Verify routes
	tests := []struct {
		name         string
		method       string
		path         string
		wantStatus   int
		wantLocation string
		allowAlt     []int // Alternative acceptable status codes
	}{
		{
			name:         "Root redirects to /home",
			method:       "GET",
			path:         "/",
			wantStatus:   http.StatusFound,
			wantLocation: "/home",
		},
		{
			name:       "Static file access",
			method:     "GET",
			path:       "/static/style.css",
			wantStatus: http.StatusOK,
			allowAlt:   []int{http.StatusNotFound}, // File might not exist in test env
		},
		{
			name:       "Login page renders for anonymous users",
			method:     "GET",
			path:       "/login",
			wantStatus: http.StatusOK,
		},
		{
			name:       "Register page renders for anonymous users",
			method:     "GET",
			path:       "/register",
			wantStatus: http.StatusOK,
		},
		{
			name:         "Home requires auth",
			method:       "GET",
			path:         "/home",
			wantStatus:   http.StatusFound,
			wantLocation: "/login?next=" + url.QueryEscape("/home"),
		},
		{
			name:       "Add income requires auth",
			method:     "GET",
			path:       "/add_income",
			wantStatus: http.StatusFound,
		},
		{
			name:       "Add expense requires auth",
			method:     "POST",
			path:       "/add_expense",
			wantStatus: http.StatusFound,
		},
		{
			name:       "Logout requires auth",
			method:     "GET",
			path:       "/logout",
			wantStatus: http.StatusFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			// Check if status matches expected or any alternative
			if len(tt.allowAlt) > 0 {
				acceptableStatuses := append([]int{tt.wantStatus}, tt.allowAlt...)
				assert.Contains(t, acceptableStatuses, w.Code,
					"%s %s returned unexpected status", tt.method, tt.path)
			} else {
				assert.Equal(t, tt.wantStatus, w.Code,
					"%s %s returned unexpected status", tt.method, tt.path)
			}

			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, w.Header().Get("Location"))
			}
		})
	}
}

func TestBootstrapAdmin(t *testing.T) {
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	cfg := &config.Config{
		AdminUser:     "admin",
		AdminEmail:    "admin@example.com",
		AdminPassword: "adminpass",
	}

	require.NoError(t, bootstrapAdmin(db, cfg))

	user, err := db.GetUserByEmail("admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)
	assert.True(t, auth.CheckPassword("adminpass", user.PasswordHash))

	// Second call is a no-op
	require.NoError(t, bootstrapAdmin(db, cfg))
	count, err := db.UserCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBootstrapAdmin_IncompleteConfig(t *testing.T) {
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, bootstrapAdmin(db, &config.Config{AdminUser: "admin"}))

	count, err := db.UserCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}
