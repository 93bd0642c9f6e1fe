package limiter

// MockLimiter is a Limiter test double with a fixed answer that records the
// keys it was asked about
type MockLimiter struct {
	AllowResult bool

	AllowCalls  []string
	CloseCalled bool
	CloseError  error
}

// NewMockLimiter creates a mock that answers allowResult for every key
func NewMockLimiter(allowResult bool) *MockLimiter {
	return &MockLimiter{
		AllowResult: allowResult,
		AllowCalls:  []string{},
	}
}

// Allow records key and returns AllowResult
func (m *MockLimiter) Allow(key string) bool {
	m.AllowCalls = append(m.AllowCalls, key)
	return m.AllowResult
}

// Close records the call and returns CloseError
func (m *MockLimiter) Close() error {
	m.CloseCalled = true
	return m.CloseError
}
