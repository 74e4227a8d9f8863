package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/credvault/internal/credential/outbound/memory"
	"github.com/shandysiswandi/credvault/internal/pkg/goerror"
	"github.com/shandysiswandi/credvault/internal/pkg/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCreate_ThenAuthenticate(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil, withHash(hash.NewPBKDF2(1000)))

	cred, err := fx.uc.UserCreate(ctx, UserCreateInput{Username: "  Alice ", Password: "Secret1!"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", cred.Username)

	lines := fx.repo.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Alice:"+cred.PasswordHash, lines[0])

	ok, err := fx.uc.Authenticate(ctx, LoginInput{Username: "alice", Password: "Secret1!"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fx.uc.Authenticate(ctx, LoginInput{Username: "alice", Password: "secret1!"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserCreate_RejectsDuplicateIgnoringCase(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil)

	_, err := fx.uc.UserCreate(ctx, UserCreateInput{Username: "Alice", Password: "one"})
	require.NoError(t, err)

	_, err = fx.uc.UserCreate(ctx, UserCreateInput{Username: "ALICE", Password: "two"})
	assertCode(t, err, goerror.CodeConflict)

	assert.Len(t, fx.repo.Lines(), 1)
}

func TestUserCreate_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   UserCreateInput
	}{
		{name: "blank username", in: UserCreateInput{Username: "   ", Password: "pw"}},
		{name: "blank password", in: UserCreateInput{Username: "bob", Password: " \t "}},
		{name: "colon in username", in: UserCreateInput{Username: "bo:b", Password: "pw"}},
		{name: "newline in username", in: UserCreateInput{Username: "bo\nb", Password: "pw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, nil)

			_, err := fx.uc.UserCreate(context.Background(), tt.in)
			require.Error(t, err)
			assert.True(t, goerror.IsValidation(err))

			ok, exErr := fx.repo.Exists(context.Background())
			require.NoError(t, exErr)
			assert.False(t, ok, "no I/O on invalid input")
		})
	}
}

func TestUserCreate_StorageFailure(t *testing.T) {
	repo := memory.New()
	repo.Fail = errors.New("disk full")
	fx := newFixture(t, repo)

	_, err := fx.uc.UserCreate(context.Background(), UserCreateInput{Username: "bob", Password: "pw"})
	assertCode(t, err, goerror.CodeStorage)
	assert.ErrorIs(t, err, repo.Fail)
}
