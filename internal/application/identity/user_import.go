package identity

import (
	"context"
	"errors"

	"github.com/disciplinario/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ImportUsers provisions every input in order. Existing accounts are skipped
// rather than updated. A failing entry does not stop the import; a backend
// error does, and is returned with the partial result.
func (s *AuthService) ImportUsers(ctx context.Context, inputs []CreateUserInput) (*ImportUsersResult, error) {
	result := &ImportUsersResult{}

	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		info, err := s.CreateUser(ctx, input)
		var backendErr *shared.BackendError
		switch {
		case err == nil:
			result.Created = append(result.Created, info.Email)
		case errors.Is(err, shared.ErrAlreadyExists):
			result.Skipped = append(result.Skipped, input.Email)
		case errors.As(err, &backendErr):
			return result, err
		default:
			result.Failures = append(result.Failures, ImportFailure{Email: input.Email, Reason: err.Error()})
		}
	}

	s.logger.Info("User import finished",
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("failed", len(result.Failures)))

	return result, nil
}
