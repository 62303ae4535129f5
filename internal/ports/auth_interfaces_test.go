package ports_test

import (
	"testing"

	mocks "github.com/vijayaragavaan2065/faculty-pulse-view/internal/mocks/auth"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/ports"
)

// This test only verifies that our mocks conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.CredentialVerifier = (*mocks.FakeVerifier)(nil)
	var _ ports.SessionStore = (*mocks.MemorySessionStore)(nil)
	var _ ports.SessionSource = (*mocks.StaticSessionSource)(nil)
}
