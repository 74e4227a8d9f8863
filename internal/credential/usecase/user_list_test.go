package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/credvault/internal/credential/outbound/memory"
	"github.com/shandysiswandi/credvault/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserList(t *testing.T) {
	repo := memory.NewWithLines("Bob:c2FsdA==|a2V5", "broken line", "alice:c2FsdA==|a2V5")
	fx := newFixture(t, repo)

	names, err := fx.uc.UserList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob", "alice"}, names)
}

func TestUserList_MissingStore(t *testing.T) {
	fx := newFixture(t, memory.New())

	names, err := fx.uc.UserList(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestUserList_StorageFailure(t *testing.T) {
	repo := memory.NewWithLines()
	repo.Fail = errors.New("io fault")
	fx := newFixture(t, repo)

	_, err := fx.uc.UserList(context.Background())
	assertCode(t, err, goerror.CodeStorage)
}
