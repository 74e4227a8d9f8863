package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/credvault/internal/credential/entity"
)

type LoginInput struct {
	Username string
	Password string
}

// Authenticate reports whether some record matches the username, ignoring
// case, and verifies the password. Records are tried in store order. A
// missing or empty store authenticates nobody and is not an error; only a
// failed read is.
func (s *Usecase) Authenticate(ctx context.Context, in LoginInput) (ok bool, err error) {
	ctx, span := s.startSpan(ctx, "Authenticate")
	defer span.End()

	outcome := entity.AuthOutcomeFailure
	defer func() { s.recordAuth(ctx, outcome) }()

	username := strings.TrimSpace(in.Username)
	password := strings.TrimSpace(in.Password)
	if username == "" || password == "" {
		outcome = entity.AuthOutcomeInvalid
		return false, nil
	}

	res, err := s.readAll(ctx)
	if err != nil {
		outcome = entity.AuthOutcomeError
		return false, err
	}

	matched := false
	for _, c := range res.Credentials {
		if !c.Matches(username) {
			continue
		}
		matched = true
		if s.hash.Verify(c.PasswordHash, password) {
			outcome = entity.AuthOutcomeSuccess
			slog.InfoContext(ctx, "user authenticated", "username", c.Username)
			return true, nil
		}
	}

	if !matched {
		s.hash.Verify(s.dummyHash(), password)
	}

	slog.WarnContext(ctx, "authentication failed", "username", username)
	return false, nil
}
