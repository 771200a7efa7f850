package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocrud/errors"
)

type postInput struct {
	Title  string `json:"title" validate:"required,max=20"`
	Status string `json:"status" validate:"omitempty,oneof=draft published"`
	Views  int    `json:"views" validate:"gte=0"`
}

func TestStructValid(t *testing.T) {
	assert.NoError(t, Struct(&postInput{Title: "ok", Status: "draft"}))
	assert.NoError(t, Struct(postInput{Title: "ok"}))
}

func TestStructReportsFieldsByJSONName(t *testing.T) {
	err := Struct(&postInput{Status: "deleted", Views: -1})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	var appErr errors.IError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "required", appErr.Details()["title"])
	assert.Equal(t, "oneof=draft published", appErr.Details()["status"])
	assert.Equal(t, "gte=0", appErr.Details()["views"])
}

func TestNonStructValuesPass(t *testing.T) {
	var nilPost *postInput
	assert.NoError(t, Struct(nilPost))
	assert.NoError(t, Struct(map[string]any{"title": ""}))
	assert.NoError(t, NoopValidator{}.Validate(&postInput{}))
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
	assert.NotNil(t, Default().Engine())
}
