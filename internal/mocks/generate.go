// Package mocks provides gomock implementations of the session core's ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	verifier := mocks.NewMockCredentialVerifier(ctrl)
//	verifier.EXPECT().Login(gomock.Any(), "a@b.edu", "pw").Return(grant, nil)
package mocks

// Generate mock for CredentialVerifier interface from internal/ports package.
// This creates MockCredentialVerifier with methods: Login, WhoAmI
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=credential_verifier_mock.go github.com/vijayaragavaan2065/faculty-pulse-view/internal/ports CredentialVerifier

// Generate mock for SessionStore interface from internal/ports package.
// This creates MockSessionStore with methods: Load, Save, Clear
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_store_mock.go github.com/vijayaragavaan2065/faculty-pulse-view/internal/ports SessionStore
