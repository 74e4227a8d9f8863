package usecase

import (
	"context"

	"github.com/samber/lo"
	"github.com/shandysiswandi/credvault/internal/credential/entity"
)

// UserList returns the stored usernames in store order.
func (s *Usecase) UserList(ctx context.Context) ([]string, error) {
	ctx, span := s.startSpan(ctx, "UserList")
	defer span.End()

	res, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	return lo.Map(res.Credentials, func(c entity.Credential, _ int) string { return c.Username }), nil
}
