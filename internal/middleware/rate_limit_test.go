package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evyataryagoni/geolegacy/internal/limiter"
)

// TestRateLimitMiddleware tests allowed and rejected requests
func TestRateLimitMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		allow        bool
		expectedCode int
		expectNext   bool
	}{
		{name: "allowed", allow: true, expectedCode: http.StatusCreated, expectNext: true},
		{name: "rate limited", allow: false, expectedCode: http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockLimiter := limiter.NewMockLimiter(tt.allow)

			nextCalled := false
			handler := RateLimitMiddleware(mockLimiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				w.Header().Set("X-Database", "country")
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte("lookup"))
			}))

			req := httptest.NewRequest(http.MethodGet, "/v1/lookup?ip=8.8.8.8", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if nextCalled != tt.expectNext {
				t.Errorf("expected next called = %v, got %v", tt.expectNext, nextCalled)
			}
			if rec.Code != tt.expectedCode {
				t.Errorf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}

			if tt.allow {
				if rec.Header().Get("X-Database") != "country" || rec.Body.String() != "lookup" {
					t.Error("expected the next handler's response to pass through")
				}
				return
			}

			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", ct)
			}
			var errResp map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
				t.Fatalf("failed to decode JSON response: %v", err)
			}
			if errResp["error"] != "Rate limit exceeded. Please try again later." {
				t.Errorf("unexpected error message: %s", errResp["error"])
			}
		})
	}
}

// TestClientKey tests client address extraction
func TestClientKey(t *testing.T) {
	tests := []struct {
		name          string
		remoteAddr    string
		xRealIP       string
		xForwardedFor string
		expectedKey   string
	}{
		{
			name:        "RemoteAddr host",
			remoteAddr:  "192.168.1.1:12345",
			expectedKey: "192.168.1.1",
		},
		{
			name:        "X-Real-IP takes priority",
			remoteAddr:  "192.168.1.1:12345",
			xRealIP:     "10.0.0.1",
			expectedKey: "10.0.0.1",
		},
		{
			name:          "X-Forwarded-For when no X-Real-IP",
			remoteAddr:    "192.168.1.1:12345",
			xForwardedFor: "10.0.0.2",
			expectedKey:   "10.0.0.2",
		},
		{
			name:          "X-Real-IP over X-Forwarded-For",
			remoteAddr:    "192.168.1.1:12345",
			xRealIP:       "10.0.0.1",
			xForwardedFor: "10.0.0.2",
			expectedKey:   "10.0.0.1",
		},
		{
			name:          "X-Forwarded-For with multiple hops",
			remoteAddr:    "192.168.1.1:12345",
			xForwardedFor: "10.0.0.3, 10.0.0.4, 10.0.0.5",
			expectedKey:   "10.0.0.3",
		},
		{
			name:          "X-Forwarded-For with empty first hop",
			remoteAddr:    "192.168.1.1:12345",
			xForwardedFor: " , 10.0.0.4",
			expectedKey:   "192.168.1.1",
		},
		{
			name:        "IPv6 RemoteAddr",
			remoteAddr:  "[2001:db8::1]:8080",
			expectedKey: "2001:db8::1",
		},
		{
			name:        "RemoteAddr without port",
			remoteAddr:  "192.168.1.9",
			expectedKey: "192.168.1.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockLimiter := limiter.NewMockLimiter(true)
			handler := RateLimitMiddleware(mockLimiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}
			if tt.xForwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.xForwardedFor)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if len(mockLimiter.AllowCalls) != 1 {
				t.Fatalf("expected 1 limiter call, got %d", len(mockLimiter.AllowCalls))
			}
			if mockLimiter.AllowCalls[0] != tt.expectedKey {
				t.Errorf("expected key %s, limiter called with %s", tt.expectedKey, mockLimiter.AllowCalls[0])
			}
		})
	}
}

// TestRateLimitMiddleware_KeysPerClient tests that each client is limited
// under its own key
func TestRateLimitMiddleware_KeysPerClient(t *testing.T) {
	mockLimiter := limiter.NewMockLimiter(true)
	handler := RateLimitMiddleware(mockLimiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	clients := []string{"192.168.1.1", "192.168.1.2", "192.168.1.1"}
	for _, c := range clients {
		req := httptest.NewRequest(http.MethodGet, "/v1/lookup", nil)
		req.RemoteAddr = c + ":40000"
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if len(mockLimiter.AllowCalls) != len(clients) {
		t.Fatalf("expected %d limiter calls, got %d", len(clients), len(mockLimiter.AllowCalls))
	}
	for i, c := range clients {
		if mockLimiter.AllowCalls[i] != c {
			t.Errorf("call %d: expected key %s, got %s", i, c, mockLimiter.AllowCalls[i])
		}
	}
}
