package ports_test

import (
	"testing"

	"github.com/ssplaza/plaza-api/internal/mocks"
	mockauth "github.com/ssplaza/plaza-api/internal/mocks/auth"
	"github.com/ssplaza/plaza-api/internal/ports"
)

// This test only verifies that our mocks conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.AuthProvider = (*mockauth.MockAuthProvider)(nil)
	var _ ports.SessionStore = (*mockauth.MemorySessionStore)(nil)
	var _ ports.FlashStore = (*mockauth.MemoryFlashStore)(nil)
	var _ ports.ProfileRepository = (*mockauth.MemoryProfileRepository)(nil)
	var _ ports.AuthBackend = (*mockauth.StubBackend)(nil)

	var _ ports.ProfileRepository = (*mocks.MockProfileRepository)(nil)
	var _ ports.ApprovalNotifier = (*mocks.MockApprovalNotifier)(nil)
	var _ ports.AuthEventBus = (*mocks.MockAuthEventBus)(nil)
}
