package entity

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failedFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected validation errors, got %v", err)
	fields := map[string]string{}
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

func TestRegisterFormValidation(t *testing.T) {
	err := binding.Validator.ValidateStruct(&RegisterForm{Email: "not-an-email", Password: "", Name: "Alice"})
	assert.Equal(t, map[string]string{"Email": "email", "Password": "required"}, failedFields(t, err))

	assert.NoError(t, binding.Validator.ValidateStruct(&RegisterForm{Email: "a@example.com", Password: "pw", Name: "A"}))
}

func TestPostFormValidation(t *testing.T) {
	err := binding.Validator.ValidateStruct(&PostForm{Title: "T", Subtitle: "S", ImgUrl: "nope", Body: ""})
	assert.Equal(t, map[string]string{"ImgUrl": "url", "Body": "required"}, failedFields(t, err))

	assert.NoError(t, binding.Validator.ValidateStruct(&PostForm{
		Title: "T", Subtitle: "S", ImgUrl: "https://example.com/a.png", Body: "<p>x</p>",
	}))
}

func TestCommentFormValidation(t *testing.T) {
	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}
	err := binding.Validator.ValidateStruct(&CommentForm{Comment: string(long)})
	assert.Equal(t, map[string]string{"Comment": "max"}, failedFields(t, err))
}
