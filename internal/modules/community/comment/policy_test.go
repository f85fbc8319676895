package comment

import (
	"testing"

	"github.com/coursekit/core/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestModerationPolicy(t *testing.T) {
	cm := &models.CommentModel{UserID: "author"}

	assert.True(t, CanPin("creator", "creator"))
	assert.False(t, CanPin("author", "creator"))
	assert.False(t, CanPin("", ""))

	assert.True(t, CanMarkHelpful("creator", "creator"))
	assert.False(t, CanMarkHelpful("someone", "creator"))

	assert.True(t, CanEdit("author", cm))
	assert.False(t, CanEdit("someone", cm))
	assert.False(t, CanEdit("", cm))

	assert.True(t, CanDelete("author", cm))
	assert.False(t, CanDelete("someone", cm))

	assert.True(t, CanFlag("someone", cm))
	assert.False(t, CanFlag("author", cm))
	assert.False(t, CanFlag("", cm))
}
