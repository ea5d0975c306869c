package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", shared.Validation("INVALID_RATE", "rate out of range"), http.StatusBadRequest},
		{"invalid namespace", shared.InvalidNamespace("namespace is empty"), http.StatusBadRequest},
		{"not found", shared.NotFound("TAB_NOT_FOUND", "tab not found"), http.StatusNotFound},
		{"already exists", shared.AlreadyExists("TENANT_EXISTS", "duplicate"), http.StatusConflict},
		{"tenant inactive", shared.TenantInactive("tenant_acme"), http.StatusForbidden},
		{"storage", shared.StorageError(errors.New("connection reset"), "find tab"), http.StatusInternalServerError},
		{"wrapped", errors.Wrap(shared.NotFound("SALE_NOT_FOUND", "sale not found"), "get sale"), http.StatusNotFound},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusOf(tt.err))
		})
	}
}

func TestErrorResponseOf(t *testing.T) {
	t.Run("keeps the specific code", func(t *testing.T) {
		resp := ErrorResponseOf(shared.NotFound("TAB_NOT_FOUND", "Tab %s not found", "abc"), "req-1")
		require.NotNil(t, resp.Error)
		assert.False(t, resp.Success)
		assert.Equal(t, "TAB_NOT_FOUND", resp.Error.Code)
		assert.Equal(t, "Tab abc not found", resp.Error.Message)
		assert.Equal(t, "req-1", resp.Error.RequestID)
	})

	t.Run("hides driver errors", func(t *testing.T) {
		resp := ErrorResponseOf(shared.StorageError(errors.New(`relation "tenant_x.tabs" does not exist`), "list tabs"), "")
		assert.Equal(t, "STORAGE_ERROR", resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "tenant_x")
	})

	t.Run("hides unknown errors", func(t *testing.T) {
		resp := ErrorResponseOf(errors.New("secret detail"), "")
		assert.Equal(t, ErrCodeInternal, resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "secret")
	})
}

func TestResponseJSON(t *testing.T) {
	data, err := json.Marshal(NewSuccessResponse(map[string]int{"count": 2}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"count":2}}`, string(data))

	data, err = json.Marshal(NewErrorResponse("BAD_REQUEST", "bad"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"BAD_REQUEST","message":"bad"}}`, string(data))
}
