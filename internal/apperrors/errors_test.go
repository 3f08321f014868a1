package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsType_Wrapped(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("detect: %w", NewNetworkError("remote detector", cause))

	require.True(t, IsType(err, ErrorTypeNetwork))
	require.False(t, IsType(err, ErrorTypeValidation))
	require.ErrorIs(t, err, cause)
	require.Equal(t, http.StatusBadGateway, GetStatusCode(err))
}

func TestGetStatusCode_PlainError(t *testing.T) {
	require.Equal(t, http.StatusInternalServerError, GetStatusCode(errors.New("boom")))
	require.Equal(t, http.StatusTooManyRequests, GetStatusCode(NewBusyError("busy", nil)))
}

func TestAppError_Message(t *testing.T) {
	require.Equal(t, "validation: bad image", NewValidationError("bad image", nil).Error())
	require.Contains(t, NewProcessingError("crop", errors.New("empty")).Error(), "caused by: empty")
}
