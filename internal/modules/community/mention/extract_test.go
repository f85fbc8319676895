package mention

import (
	"testing"

	"github.com/coursekit/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractOrderAndDedup(t *testing.T) {
	got := Extract("hi @Alice and @Bob, @Alice again")
	assert.Equal(t, []string{"Alice", "Bob"}, got)
}

func TestExtractTokenBoundaries(t *testing.T) {
	assert.Equal(t, []string{"Bob_2"}, Extract("ping @Bob_2!"))
	assert.Equal(t, []string{"a", "b"}, Extract("@a@b yields two candidates"))
	assert.Nil(t, Extract("no mentions here"))
	assert.Nil(t, Extract("a bare @ does not count"))
}

func roster(names ...string) []models.UserModel {
	users := make([]models.UserModel, len(names))
	for i, n := range names {
		users[i].ID = "id-" + n
		users[i].Name = n
	}
	return users
}

func TestResolveExactName(t *testing.T) {
	users := Resolve([]string{"Alice", "Ghost"}, roster("Alice", "Bob"))
	require.Len(t, users, 1)
	assert.Equal(t, "Alice", users[0].Name)
}

func TestResolveIgnoresUnknownNames(t *testing.T) {
	assert.Nil(t, Resolve([]string{"Nobody"}, roster("Alice")))
	assert.Nil(t, Resolve(nil, roster("Alice")))
	assert.Nil(t, Resolve([]string{"Alice"}, nil))
}

func TestResolveSharedDisplayName(t *testing.T) {
	shared := roster("Alice", "Alice")
	shared[1].ID = "id-Alice-2"

	users := Resolve([]string{"Alice"}, shared)
	require.Len(t, users, 2)
}
