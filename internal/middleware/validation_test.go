package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "jpxcli/internal/errors"
)

type ladderRequest struct {
	Side          string   `json:"side" validate:"required,option_side"`
	ContractMonth string   `json:"contract_month" validate:"omitempty,yymm"`
	Days          []string `json:"days" validate:"unique,dive,isodate"`
	Center        int      `json:"center" validate:"gte=0"`
}

func decode(t *testing.T, body string) error {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dst ladderRequest
	return NewValidator(quietLogger()).DecodeJSON(req, &dst)
}

func TestValidator_DecodeJSON(t *testing.T) {
	require.NoError(t, decode(t, `{"side":"put","contract_month":"2602","days":["2026-01-26","2026-01-27"]}`))

	tests := map[string]struct {
		body  string
		field string
	}{
		"future side":  {`{"side":"FUTURE"}`, "side"},
		"month 13":     {`{"side":"PUT","contract_month":"2613"}`, "contract_month"},
		"bad date":     {`{"side":"PUT","days":["2026/01/26"]}`, "days[0]"},
		"repeated day": {`{"side":"PUT","days":["2026-01-26","2026-01-26"]}`, "days"},
		"negative":     {`{"side":"CALL","center":-250}`, "center"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := decode(t, tt.body)
			var apiErr *apperrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
			details, ok := apiErr.Details.(apperrors.ValidationErrors)
			require.True(t, ok)
			require.NotEmpty(t, details.Errors)
			assert.Equal(t, tt.field, details.Errors[0].Field)
		})
	}
}

func TestValidator_MalformedBody(t *testing.T) {
	var apiErr *apperrors.APIError

	require.True(t, errors.As(decode(t, `{"side":`), &apiErr))
	assert.Equal(t, "INVALID_REQUEST", apiErr.ErrorCode)

	require.True(t, errors.As(decode(t, ``), &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}
