package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validationf("invalid_numbers", "numbers out of range"), http.StatusBadRequest},
		{"signature", Signaturef("bad_signature", "signature mismatch"), http.StatusBadRequest},
		{"conflict", Conflictf("payment_exists", "payment already exists"), http.StatusConflict},
		{"state", Statef("already_settled", "game already settled"), http.StatusUnprocessableEntity},
		{"not found", NotFoundf("payment_not_found", "payment not found"), http.StatusNotFound},
		{"upstream", Upstreamf("gateway_error", errors.New("timeout"), "gateway unavailable"), http.StatusBadGateway},
		{"untyped", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("settle: %w", Statef("already_settled", "game already settled")), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestUpstreamWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstreamf("gateway_error", cause, "checkout failed")

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "connection refused")
}

func TestWithDetail(t *testing.T) {
	err := Validationf("invalid_numbers", "out of range").WithDetail("numbers", []string{"26", "30"})
	require.Equal(t, []string{"26", "30"}, err.Details["numbers"])
}

func TestIsKind(t *testing.T) {
	require.True(t, IsKind(Conflictf("x", "y"), KindConflict))
	require.False(t, IsKind(Conflictf("x", "y"), KindState))
	require.False(t, IsKind(errors.New("plain"), KindConflict))
}
