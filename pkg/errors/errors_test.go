package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneMatchesSentinel(t *testing.T) {
	err := Clone(ErrNotFound, "classroom not found")
	require.True(t, stdErrors.Is(err, ErrNotFound))
	assert.False(t, stdErrors.Is(err, ErrValidation))
	assert.Equal(t, "classroom not found", err.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestWrappedQuotaErrorSurvivesFmtWrap(t *testing.T) {
	inner := Wrap(fmt.Errorf("payload 10 bytes"), ErrStorageQuotaExceeded.Code, ErrStorageQuotaExceeded.Status, "device write rejected")
	outer := fmt.Errorf("persist classrooms: %w", inner)
	assert.True(t, stdErrors.Is(outer, ErrStorageQuotaExceeded))
	assert.Equal(t, http.StatusInsufficientStorage, FromError(outer).Status)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(stdErrors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Nil(t, FromError(nil))
}
