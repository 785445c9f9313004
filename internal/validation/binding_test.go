package validation

import (
	"errors"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taskForm struct {
	Name     string `form:"name" binding:"required,max=5"`
	Priority int    `form:"priority" binding:"min=0,max=3"`
}

func TestFromBinding(t *testing.T) {
	UseFormFieldNames()

	t.Run("validator errors use form names", func(t *testing.T) {
		err := binding.Validator.ValidateStruct(&taskForm{Priority: 7})
		require.Error(t, err)

		list, ok := As(FromBinding(ScopeForm, err))
		require.True(t, ok)
		require.Len(t, list, 2)

		assert.Equal(t, []string{ScopeForm, "name"}, list[0].Loc)
		assert.Equal(t, "field required", list[0].Msg)
		assert.Equal(t, "value_error.required", list[0].Type)

		assert.Equal(t, []string{ScopeForm, "priority"}, list[1].Loc)
		assert.Equal(t, "ensure this value is less than or equal to 3", list[1].Msg)
	})

	t.Run("string length", func(t *testing.T) {
		err := binding.Validator.ValidateStruct(&taskForm{Name: "toolong"})
		list, ok := As(FromBinding(ScopeForm, err))
		require.True(t, ok)
		require.Len(t, list, 1)
		assert.Equal(t, "ensure this value has at most 5 characters", list[0].Msg)
	})

	t.Run("integer parse failure", func(t *testing.T) {
		_, perr := strconv.ParseInt("high", 10, 64)
		list, ok := As(FromBinding(ScopeForm, perr))
		require.True(t, ok)
		assert.Equal(t, "type_error.integer", list[0].Type)
		assert.Contains(t, list[0].Msg, "high")
	})

	t.Run("other errors", func(t *testing.T) {
		list, ok := As(FromBinding(ScopeForm, errors.New("unexpected EOF")))
		require.True(t, ok)
		assert.Equal(t, []string{ScopeForm}, list[0].Loc)
	})

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, FromBinding(ScopeForm, nil))
	})
}

func TestErrors(t *testing.T) {
	var errs Errors
	assert.NoError(t, errs.Err())

	errs.Add(ScopeForm, "email", "taken")
	assert.True(t, errs.Has("email"))
	assert.False(t, errs.Has("name"))
	assert.EqualError(t, errs.Err(), "form.email: taken")

	single := NewFieldError(ScopeFile, "avatar", "bad")
	list, ok := As(single)
	require.True(t, ok)
	assert.Equal(t, "avatar", list[0].Field())

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}
