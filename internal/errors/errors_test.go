package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/victornm/quizkeep/internal/errors"
)

func TestError_Is(t *testing.T) {
	taken := errors.New(errors.CodeAlreadyExists, errors.WithReason(errors.ReasonNameTaken))

	err := fmt.Errorf("register: %w", errors.New(errors.CodeAlreadyExists,
		errors.WithReason(errors.ReasonNameTaken),
		errors.WithMessagef("name %q is taken", "august"),
		errors.WithCause(stderrors.New("boom")),
	))

	assert.ErrorIs(t, err, taken)
	assert.NotErrorIs(t, err, errors.New(errors.CodeAlreadyExists, errors.WithReason(errors.ReasonNameReserved)))
	assert.Equal(t, errors.CodeAlreadyExists, errors.CodeOf(err))
}

func TestConvert(t *testing.T) {
	e := errors.Convert(stderrors.New("plain"))
	assert.Equal(t, errors.CodeInternal, e.Code)
	assert.Equal(t, http.StatusInternalServerError, e.HTTPStatusCode())

	e = errors.Convert(errors.Storage(stderrors.New("disk full")))
	assert.Equal(t, errors.ReasonStorageFailed, e.Reason)
	assert.Contains(t, e.Error(), "disk full")

	assert.Equal(t, http.StatusUnauthorized, errors.New(errors.CodeUnauthenticated).HTTPStatusCode())
	assert.Equal(t, http.StatusConflict, errors.New(errors.CodeAlreadyExists).HTTPStatusCode())
}
