package uid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUID_Generate(t *testing.T) {
	g := NewUUID()

	a, b := g.Generate(), g.Generate()
	assert.NotEqual(t, a, b)

	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestSequence_Generate(t *testing.T) {
	var g StringID = &Sequence{Prefix: "tok-"}

	assert.Equal(t, "tok-1", g.Generate())
	assert.Equal(t, "tok-2", g.Generate())
}
