package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataTable(t *testing.T) {
	want := map[Code]Metadata{
		CodeValidation:    {http.StatusBadRequest, false, "validation failed", true},
		CodeUnauthorized:  {http.StatusUnauthorized, false, "authentication required", false},
		CodeAccessExpired: {http.StatusUnauthorized, true, "access token has expired", false},
		CodeForbidden:     {http.StatusForbidden, false, "access denied", false},
		CodeNotFound:      {http.StatusNotFound, false, "resource not found", false},
		CodeConflict:      {http.StatusConflict, false, "conflict detected", false},
		CodeIdempotency:   {http.StatusConflict, false, "idempotency key reused", true},
		CodeRateLimit:     {http.StatusTooManyRequests, false, "rate limit exceeded", false},
		CodeInternal:      {http.StatusInternalServerError, true, "internal server error", false},
		CodeDependency:    {http.StatusServiceUnavailable, true, "dependency unavailable", true},
	}
	for code, meta := range want {
		assert.Equal(t, meta, MetadataFor(code), "code %s", code)
	}
	assert.Equal(t, want[CodeInternal], MetadataFor("SOMETHING_UNKNOWN"))
}

func TestNewAndWrap(t *testing.T) {
	err := New(CodeValidation, "missing code")
	assert.Equal(t, CodeValidation, err.Code())
	assert.Equal(t, "missing code", err.Message())
	assert.Nil(t, err.Details())
	assert.Equal(t, "VALIDATION_ERROR: missing code", err.Error())

	err.WithDetails(map[string]any{"field": "code"})
	assert.NotNil(t, err.Details())
	assert.Nil(t, err.Fields(), "map details are not a field list")

	cause := stdErrors.New("duplicate key")
	wrapped := Wrap(CodeConflict, cause, "Franchise code already exists")
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, CodeConflict, wrapped.Code())

	noCause := Wrap(CodeInternal, nil, "boom")
	assert.Nil(t, noCause.Unwrap())
}

func TestNilErrorIsSafe(t *testing.T) {
	var err *Error
	assert.Equal(t, CodeInternal, err.Code())
	assert.Empty(t, err.Message())
	assert.Empty(t, err.Error())
	assert.Nil(t, err.Details())
	assert.Nil(t, err.Fields())
	assert.Nil(t, err.WithDetails("x"))
}

func TestInvalidCarriesFieldList(t *testing.T) {
	err := Invalid("bad input", FieldError{Field: "role_id", Message: "Role not found"})
	assert.Equal(t, CodeValidation, err.Code())
	assert.Equal(t, []FieldError{{Field: "role_id", Message: "Role not found"}}, err.Fields())

	bare := Invalid("User already has a global role")
	assert.Equal(t, []FieldError{{Message: "User already has a global role"}}, bare.Fields())
}

func TestAsAndIsCode(t *testing.T) {
	err := fmt.Errorf("switch context: %w", New(CodeForbidden, "You do not have access to this franchise"))

	typed := As(err)
	require.NotNil(t, typed)
	assert.Equal(t, CodeForbidden, typed.Code())
	assert.Nil(t, As(nil))
	assert.Nil(t, As(stdErrors.New("plain")))

	assert.True(t, IsCode(err, CodeForbidden))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(stdErrors.New("plain"), CodeInternal))
}
