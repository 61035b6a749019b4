package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/razorvilla/calendar-app-sub001/internal/auth/domain"
	"github.com/razorvilla/calendar-app-sub001/internal/auth/service"
	"github.com/razorvilla/calendar-app-sub001/internal/mocks"
)

func TestLockoutPolicy_CheckLocked(t *testing.T) {
	policy := service.NewLockoutPolicy(nil, 5, 15)

	t.Run("no lockout set", func(t *testing.T) {
		assert.False(t, policy.CheckLocked(&domain.User{}))
	})

	t.Run("lockout in the future", func(t *testing.T) {
		until := time.Now().Add(10 * time.Minute)
		assert.True(t, policy.CheckLocked(&domain.User{LockoutUntil: &until}))
	})

	t.Run("lockout already elapsed", func(t *testing.T) {
		until := time.Now().Add(-time.Minute)
		assert.False(t, policy.CheckLocked(&domain.User{LockoutUntil: &until}))
	})
}

func TestLockoutPolicy_RecordFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	policy := service.NewLockoutPolicy(mockRepo, 5, 15)
	user := &domain.User{ID: "user-1"}

	t.Run("below threshold stays open", func(t *testing.T) {
		mockRepo.EXPECT().
			RecordLoginFailure(gomock.Any(), "user-1", 5, 15*time.Minute).
			Return(2, nil, nil)

		state, err := policy.RecordFailure(context.Background(), user)
		require.NoError(t, err)
		assert.False(t, state.Locked)
		assert.Equal(t, 3, state.AttemptsRemaining)
	})

	t.Run("threshold reached locks the account", func(t *testing.T) {
		until := time.Now().Add(15 * time.Minute)
		mockRepo.EXPECT().
			RecordLoginFailure(gomock.Any(), "user-1", 5, 15*time.Minute).
			Return(5, &until, nil)

		state, err := policy.RecordFailure(context.Background(), user)
		require.NoError(t, err)
		assert.True(t, state.Locked)
		assert.Equal(t, until, state.Until)
	})

	t.Run("stale lockout from a previous window does not lock", func(t *testing.T) {
		until := time.Now().Add(-time.Minute)
		mockRepo.EXPECT().
			RecordLoginFailure(gomock.Any(), "user-1", 5, 15*time.Minute).
			Return(1, &until, nil)

		state, err := policy.RecordFailure(context.Background(), user)
		require.NoError(t, err)
		assert.False(t, state.Locked)
	})
}

func TestLockoutPolicy_RecordSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockUserRepository(ctrl)
	policy := service.NewLockoutPolicy(mockRepo, 5, 15)

	mockRepo.EXPECT().ClearLoginFailures(gomock.Any(), "user-1").Return(nil)

	err := policy.RecordSuccess(context.Background(), &domain.User{ID: "user-1"})
	assert.NoError(t, err)
}
