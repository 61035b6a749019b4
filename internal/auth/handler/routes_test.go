package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegisterRoutes verifies that every route is mounted.
func TestRegisterRoutes(t *testing.T) {
	ta := newTestApp(t)

	testCases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/auth/register"},
		{http.MethodPost, "/api/v1/auth/login"},
		{http.MethodPost, "/api/v1/auth/refresh"},
		{http.MethodPost, "/api/v1/auth/logout"},
		{http.MethodPost, "/api/v1/auth/request-password-reset"},
		{http.MethodPost, "/api/v1/auth/reset-password"},
		{http.MethodPost, "/api/v1/auth/verify-email"},
		{http.MethodPost, "/api/v1/auth/resend-verification"},
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodPost, "/api/v1/auth/change-password"},
		{http.MethodPost, "/api/v1/auth/mfa/generate-secret"},
		{http.MethodPost, "/api/v1/auth/mfa/verify-setup"},
		{http.MethodPost, "/api/v1/auth/mfa/enable"},
		{http.MethodPost, "/api/v1/auth/mfa/disable"},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s_%s_exists", tc.method, tc.path), func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			resp, err := ta.app.Test(req)
			require.NoError(t, err)

			// We only care that the route exists. A 404 means it doesn't.
			// The handlers themselves return other codes for an empty body,
			// which is fine for this existence check.
			assert.NotEqual(t, http.StatusNotFound, resp.StatusCode)
		})
	}
}
