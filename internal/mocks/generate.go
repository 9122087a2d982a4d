// Package mocks provides generated mock implementations for testing.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks
// for the session ports. To regenerate after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	repo := mocks.NewMockProfileRepository(ctrl)
//	repo.EXPECT().Get(gomock.Any(), "uid-1").Return(nil, err)
package mocks

// Generate mock for IdentityAdmin interface from internal/ports.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_admin_mock.go github.com/quizforge/sessiond/internal/ports IdentityAdmin

// Generate mock for ProfileRepository interface from internal/ports.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=profile_repository_mock.go github.com/quizforge/sessiond/internal/ports ProfileRepository

// Generate mock for RevocationStore interface from internal/ports.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=revocation_store_mock.go github.com/quizforge/sessiond/internal/ports RevocationStore

// Generate mock for KVStore interface from internal/ports.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=kv_store_mock.go github.com/quizforge/sessiond/internal/ports KVStore
