package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/credvault/internal/credential/entity"
	"github.com/shandysiswandi/credvault/internal/pkg/goerror"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/atomic"
)

type (
	UserProvisionInput struct {
		Count int `validate:"gte=1"`
	}

	provisionPrefix struct {
		Prefix string `validate:"required,username,max=100"`
	}
)

// UserProvision generates Count sequential test accounts after the highest
// existing one and appends them in one write. Passwords are hashed in
// parallel before the store lock is taken, so the lock only covers the
// read, the numbering and the append. The plaintext passwords are returned
// so load tests can log in.
func (s *Usecase) UserProvision(ctx context.Context, in UserProvisionInput) ([]entity.ProvisionedCredential, error) {
	ctx, span := s.startSpan(ctx, "UserProvision")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if limit := s.cfg.GetInt("credential.provision.max_count"); limit > 0 && in.Count > limit {
		return nil, goerror.NewInvalidInput(nil, "count", fmt.Sprintf("count must be %d or less", limit))
	}

	prefix := strings.TrimSpace(s.cfg.GetString("credential.provision.prefix"))
	if err := s.validator.Validate(provisionPrefix{Prefix: prefix}); err != nil {
		slog.ErrorContext(ctx, "provision prefix is misconfigured", "prefix", prefix, "error", err)
		return nil, goerror.NewInvalidInput(err)
	}

	pwLength := s.cfg.GetInt("credential.provision.password_length")
	span.SetAttributes(attribute.Int("provision.count", in.Count), attribute.String("provision.prefix", prefix))

	out, err := s.generateAccounts(ctx, in.Count, pwLength)
	if err != nil {
		return nil, err
	}

	err = s.withLock(ctx, func() error {
		res, err := s.readAll(ctx)
		if err != nil {
			return err
		}

		start := highestSuffix(res.Credentials, prefix)
		for i := range out {
			out[i].Username = prefix + strconv.Itoa(start+i+1)
		}

		creds := lo.Map(out, func(p entity.ProvisionedCredential, _ int) entity.Credential { return p.Credential })
		if err := s.repoStore.Append(ctx, creds...); err != nil {
			slog.ErrorContext(ctx, "failed to repo append provisioned users", "count", in.Count, "error", err)
			return goerror.NewStorage(err)
		}

		slog.InfoContext(ctx, "provisioned user accounts",
			"count", in.Count,
			"first", out[0].Username,
			"last", out[len(out)-1].Username,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// generateAccounts creates count random passwords with their hashes on the
// goroutine manager. Usernames are left empty.
func (s *Usecase) generateAccounts(ctx context.Context, count, pwLength int) ([]entity.ProvisionedCredential, error) {
	out := make([]entity.ProvisionedCredential, count)

	var done atomic.Int64
	step := max(count/10, 1)

	tasks := make([]func(context.Context) error, count)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) error {
			password, err := generatePassword(pwLength)
			if err != nil {
				return err
			}
			hashed, err := s.hash.Hash(password)
			if err != nil {
				return err
			}

			out[i] = entity.ProvisionedCredential{
				Credential: entity.Credential{PasswordHash: string(hashed)},
				Password:   password,
			}

			if n := done.Inc(); n%int64(step) == 0 {
				slog.DebugContext(ctx, "provisioning progress", "done", n, "total", count)
			}
			return nil
		}
	}

	if err := s.goroutine.Run(ctx, tasks...); err != nil {
		slog.ErrorContext(ctx, "failed to generate provisioned users", "count", count, "error", err)
		return nil, goerror.NewServer(err)
	}
	return out, nil
}

// highestSuffix returns the largest N among usernames "<prefix>N", with the
// prefix matched ignoring case and N a positive decimal.
func highestSuffix(creds []entity.Credential, prefix string) int {
	lp := strings.ToLower(prefix)
	highest := 0
	for _, c := range creds {
		key := c.Key()
		if !strings.HasPrefix(key, lp) {
			continue
		}
		digits := key[len(lp):]
		if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil || n <= 0 {
			continue
		}
		highest = max(highest, n)
	}
	return highest
}
