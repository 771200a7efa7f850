package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type article struct {
	Model
	SoftDeletes
	Title string `db:"title"`
}

func TestEmbeddedModel(t *testing.T) {
	a := &article{Model: Model{ID: 42}, Title: "hello"}

	var obj IObject[int64] = a
	assert.Equal(t, int64(42), obj.GetID())

	var sd ISoftDeletable = a
	assert.False(t, sd.IsTrashed())
	assert.Nil(t, sd.GetDeletedAt())

	now := time.Now()
	a.DeletedAt = &now
	assert.True(t, sd.IsTrashed())
	assert.Equal(t, &now, sd.GetDeletedAt())
}
