package store

import (
	"net/netip"

	"github.com/evyataryagoni/geolegacy/internal/decoder"
	"github.com/evyataryagoni/geolegacy/internal/edition"
	"github.com/evyataryagoni/geolegacy/internal/record"
)

// MockStore is a test double for the Store interface
// It allows tests to control behavior and verify interactions
type MockStore struct {
	// EditionValue is returned by Edition
	EditionValue edition.Edition

	// Data holds the mock data (address -> raw record)
	Data map[netip.Addr]record.Raw

	// Track method calls for verification in tests
	ResolveCalls []netip.Addr
	CloseCalled  bool

	// Control behavior for error scenarios
	CloseError error
}

// NewMockStore creates a country edition mock store with sample test data
func NewMockStore() *MockStore {
	us, _ := decoder.CountryIndex("US")
	au, _ := decoder.CountryIndex("AU")

	return &MockStore{
		EditionValue: edition.Country,
		Data: map[netip.Addr]record.Raw{
			netip.MustParseAddr("8.8.8.8"): {Index: us},
			netip.MustParseAddr("1.1.1.1"): {Index: au},
		},
		ResolveCalls: []netip.Addr{},
	}
}

// NewEmptyMockStore creates a mock store with no data
// Useful for testing "not found" scenarios
func NewEmptyMockStore() *MockStore {
	return &MockStore{
		EditionValue: edition.Country,
		Data:         map[netip.Addr]record.Raw{},
		ResolveCalls: []netip.Addr{},
	}
}

// Edition implements the Store interface
func (m *MockStore) Edition() edition.Edition {
	return m.EditionValue
}

// ResolveV4 implements the Store interface
func (m *MockStore) ResolveV4(addr netip.Addr) (record.Raw, bool) {
	return m.resolve(addr)
}

// ResolveV6 implements the Store interface
func (m *MockStore) ResolveV6(addr netip.Addr) (record.Raw, bool) {
	return m.resolve(addr)
}

func (m *MockStore) resolve(addr netip.Addr) (record.Raw, bool) {
	m.ResolveCalls = append(m.ResolveCalls, addr)
	raw, ok := m.Data[addr]
	return raw, ok
}

// Close implements the Store interface
// Tracks that close was called and returns configured error if any
func (m *MockStore) Close() error {
	m.CloseCalled = true
	return m.CloseError
}
