package usecase

import (
	"context"
	"testing"

	"github.com/shandysiswandi/credvault/internal/credential/entity"
	"github.com/shandysiswandi/credvault/internal/credential/outbound/memory"
	"github.com/shandysiswandi/credvault/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserDelete(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil)

	_, err := fx.uc.UserCreate(ctx, UserCreateInput{Username: "Alice", Password: "Secret1!"})
	require.NoError(t, err)
	_, err = fx.uc.UserCreate(ctx, UserCreateInput{Username: "bob", Password: "pw"})
	require.NoError(t, err)

	outcome, err := fx.uc.UserDelete(ctx, UserDeleteInput{Username: " ALICE "})
	require.NoError(t, err)
	assert.Equal(t, entity.DeleteOutcomeDeleted, outcome)

	ok, err := fx.uc.Authenticate(ctx, LoginInput{Username: "alice", Password: "Secret1!"})
	require.NoError(t, err)
	assert.False(t, ok)

	outcome, err = fx.uc.UserDelete(ctx, UserDeleteInput{Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, entity.DeleteOutcomeNotFound, outcome)

	users, err := fx.uc.UserList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, users)
}

func TestUserDelete_RemovesEveryMatch(t *testing.T) {
	repo := memory.NewWithLines("dave:h1", "eve:h2", "DAVE:h3")
	fx := newFixture(t, repo)

	outcome, err := fx.uc.UserDelete(context.Background(), UserDeleteInput{Username: "Dave"})
	require.NoError(t, err)
	assert.Equal(t, entity.DeleteOutcomeDeleted, outcome)
	assert.Equal(t, []string{"eve:h2"}, repo.Lines())
}

func TestUserDelete_NotFoundLeavesStoreUntouched(t *testing.T) {
	repo := memory.NewWithLines("eve:h2", "junk:a:b")
	fx := newFixture(t, repo)

	outcome, err := fx.uc.UserDelete(context.Background(), UserDeleteInput{Username: "nobody"})
	require.NoError(t, err)
	assert.Equal(t, entity.DeleteOutcomeNotFound, outcome)
	assert.Equal(t, []string{"eve:h2", "junk:a:b"}, repo.Lines())
}

func TestUserDelete_BlankUsername(t *testing.T) {
	fx := newFixture(t, nil)

	_, err := fx.uc.UserDelete(context.Background(), UserDeleteInput{Username: "  "})
	require.Error(t, err)
	assert.True(t, goerror.IsValidation(err))
}
