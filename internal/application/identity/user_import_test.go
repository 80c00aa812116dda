package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthService_ImportUsers(t *testing.T) {
	t.Run("creates, skips and reports failures", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _ := newTestAuthService(t, repo, nil)

		repo.On("ExistsByEmail", mock.Anything, "nuevo@empresa.com").Return(false, nil)
		repo.On("ExistsByEmail", mock.Anything, "existe@empresa.com").Return(true, nil)
		repo.On("ExistsByEmail", mock.Anything, "debil@empresa.com").Return(false, nil)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

		result, err := svc.ImportUsers(context.Background(), []CreateUserInput{
			{Email: "nuevo@empresa.com", Password: testPassword, Role: "revisor"},
			{Email: "existe@empresa.com", Password: testPassword},
			{Email: "debil@empresa.com", Password: "x"},
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"nuevo@empresa.com"}, result.Created)
		assert.Equal(t, []string{"existe@empresa.com"}, result.Skipped)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, "debil@empresa.com", result.Failures[0].Email)
		repo.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("stops on backend error", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _ := newTestAuthService(t, repo, nil)

		repo.On("ExistsByEmail", mock.Anything, "a@empresa.com").Return(false, assert.AnError)

		result, err := svc.ImportUsers(context.Background(), []CreateUserInput{
			{Email: "a@empresa.com", Password: testPassword},
			{Email: "b@empresa.com", Password: testPassword},
		})
		require.Error(t, err)
		assert.Empty(t, result.Created)
		repo.AssertNotCalled(t, "ExistsByEmail", mock.Anything, "b@empresa.com")
	})
}
