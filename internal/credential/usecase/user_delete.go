package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/credvault/internal/credential/entity"
	"github.com/shandysiswandi/credvault/internal/pkg/goerror"
)

type (
	UserDeleteInput struct {
		Username string `validate:"required,notblank"`
	}
)

// UserDelete removes every record matching the username, ignoring case. No
// password is asked for.
func (s *Usecase) UserDelete(ctx context.Context, in UserDeleteInput) (entity.DeleteOutcome, error) {
	ctx, span := s.startSpan(ctx, "UserDelete")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)

	if err := s.validator.Validate(in); err != nil {
		return entity.DeleteOutcomeNotFound, goerror.NewInvalidInput(err)
	}

	outcome := entity.DeleteOutcomeNotFound
	err := s.withLock(ctx, func() error {
		res, err := s.readAll(ctx)
		if err != nil {
			return err
		}

		survivors := lo.Reject(res.Credentials, func(c entity.Credential, _ int) bool { return c.Matches(in.Username) })
		removed := len(res.Credentials) - len(survivors)
		if removed == 0 {
			slog.WarnContext(ctx, "user not found", "username", in.Username)
			return nil
		}

		if err := s.repoStore.AtomicRewrite(ctx, survivors); err != nil {
			slog.ErrorContext(ctx, "failed to repo rewrite store", "username", in.Username, "error", err)
			return goerror.NewStorage(err)
		}

		outcome = entity.DeleteOutcomeDeleted
		slog.InfoContext(ctx, "user account deleted", "username", in.Username, "removed", removed)
		return nil
	})
	if err != nil {
		return entity.DeleteOutcomeNotFound, err
	}

	return outcome, nil
}
