package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/credvault/internal/credential/entity"
	"github.com/shandysiswandi/credvault/internal/pkg/goerror"
	"github.com/shandysiswandi/credvault/internal/pkg/hash"
)

type (
	UserCreateInput struct {
		Username string `validate:"required,username,max=128"`
		Password string `validate:"required,notblank,max=1024"`
	}
)

// UserCreate appends one record. Usernames are unique ignoring case; the
// entered casing is what gets stored.
func (s *Usecase) UserCreate(ctx context.Context, in UserCreateInput) (*entity.Credential, error) {
	ctx, span := s.startSpan(ctx, "UserCreate")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	in.Password = strings.TrimSpace(in.Password)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	hashed, err := s.hash.Hash(in.Password)
	if errors.Is(err, hash.ErrEmptyPassword) {
		return nil, goerror.NewInvalidInput(nil, "password", "password is a required field")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "username", in.Username, "error", err)
		return nil, goerror.NewServer(err)
	}

	cred := entity.Credential{Username: in.Username, PasswordHash: string(hashed)}

	err = s.withLock(ctx, func() error {
		res, err := s.readAll(ctx)
		if err != nil {
			return err
		}

		if lo.ContainsBy(res.Credentials, func(c entity.Credential) bool { return c.Matches(in.Username) }) {
			slog.WarnContext(ctx, "user account is already exists", "username", in.Username)
			return goerror.NewBusiness("user account with that username already exists", goerror.CodeConflict)
		}

		if err := s.repoStore.Append(ctx, cred); err != nil {
			slog.ErrorContext(ctx, "failed to repo append user", "username", in.Username, "error", err)
			return goerror.NewStorage(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user account created", "username", in.Username)
	return &cred, nil
}
