package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/credvault/internal/credential/entity"
	"github.com/shandysiswandi/credvault/internal/pkg/goerror"
)

// EnsureStoreInitialized creates the store with the seed account when it is
// absent, and otherwise drops corrupt lines. Calling it again is a no-op on a
// clean store.
func (s *Usecase) EnsureStoreInitialized(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "EnsureStoreInitialized")
	defer span.End()

	return s.withLock(ctx, func() error {
		exists, err := s.repoStore.Exists(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo check store exists", "error", err)
			return goerror.NewStorage(err)
		}

		if !exists {
			return s.seedStore(ctx)
		}

		res, err := s.readAll(ctx)
		if err != nil {
			return err
		}

		if res.Corrupt == 0 {
			return nil
		}

		if err := s.repoStore.AtomicRewrite(ctx, res.Credentials); err != nil {
			slog.ErrorContext(ctx, "failed to repo rewrite store", "error", err)
			return goerror.NewStorage(err)
		}

		slog.WarnContext(ctx, "dropped corrupt store lines", "dropped", res.Corrupt, "kept", len(res.Credentials))
		return nil
	})
}

func (s *Usecase) seedStore(ctx context.Context) error {
	username := strings.TrimSpace(s.cfg.GetString("credential.seed.username"))
	password := strings.TrimSpace(s.cfg.GetString("credential.seed.password"))

	if err := s.validator.Validate(UserCreateInput{Username: username, Password: password}); err != nil {
		slog.ErrorContext(ctx, "seed account is misconfigured", "username", username, "error", err)
		return goerror.NewServer(err)
	}

	hashed, err := s.hash.Hash(password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash seed password", "error", err)
		return goerror.NewServer(err)
	}

	seed := entity.Credential{Username: username, PasswordHash: string(hashed)}
	if err := s.repoStore.AtomicRewrite(ctx, []entity.Credential{seed}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create store", "error", err)
		return goerror.NewStorage(err)
	}

	slog.WarnContext(ctx, "credential store created with default account, rotate its password", "username", username)
	return nil
}
