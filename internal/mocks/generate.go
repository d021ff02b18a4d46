// Package mocks provides gomock implementations of the ports used by the plaza services.
//
// Mocks are generated with go.uber.org/mock; hand-written doubles for the auth
// ports live in the auth subpackage. To regenerate after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockProfileRepository(ctrl)
//	repo.EXPECT().GetByUserID(gomock.Any(), "u1").Return(nil, domainauth.ErrProfileNotFound)
package mocks

// ProfileRepository: GetByUserID, Insert, List, SetApprovalStatus, SetRole
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=profile_repository_mock.go github.com/ssplaza/plaza-api/internal/ports ProfileRepository

// ApprovalNotifier: NotifyPendingProfile
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=approval_notifier_mock.go github.com/ssplaza/plaza-api/internal/ports ApprovalNotifier

// AuthEventBus: Publish, Subscribe
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_event_bus_mock.go github.com/ssplaza/plaza-api/internal/ports AuthEventBus
