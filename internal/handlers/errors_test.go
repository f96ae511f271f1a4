package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"kiosk_pos_backend/internal/services"
	"kiosk_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAPIErrorFor_CommitFailureHidesCause(t *testing.T) {
	driverErr := errors.New("sqlite: disk I/O error on /var/lib/kiosk/kiosk.db")
	err := fmt.Errorf("%w: %v", services.ErrCommitFailure, driverErr)

	apiErr := apiErrorFor(err)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, utils.ErrCodeCommitFailure, apiErr.Code)
	assert.Empty(t, apiErr.Details)

	wrapped := fmt.Errorf("%w: %w", services.ErrCommitFailure, services.ErrStockExceeded)
	apiErr = apiErrorFor(wrapped)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Empty(t, apiErr.Details)
}

func TestAPIErrorFor_ClientErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrStockExceeded, http.StatusConflict, utils.ErrCodeStockExceeded},
		{services.ErrEmptyCart, http.StatusUnprocessableEntity, utils.ErrCodeEmptyCart},
		{services.ErrCheckoutInProgress, http.StatusConflict, utils.ErrCodeCheckoutState},
		{fmt.Errorf("%w: item ID 7", services.ErrItemNotFound), http.StatusNotFound, utils.ErrCodeNotFound},
		{errors.New("boom"), http.StatusInternalServerError, utils.ErrCodeInternalServerError},
	}
	for _, tc := range cases {
		apiErr := apiErrorFor(tc.err)
		assert.Equal(t, tc.status, apiErr.StatusCode, tc.err.Error())
		assert.Equal(t, tc.code, apiErr.Code, tc.err.Error())
	}
}

func TestParseIDParam(t *testing.T) {
	parse := func(raw string) (int64, bool, int) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: raw}}
		id, ok := parseIDParam(c, "id")
		return id, ok, w.Code
	}

	id, ok, _ := parse("42")
	require.True(t, ok)
	assert.Equal(t, int64(42), id)

	id, ok, _ = parse(" 7 ")
	require.True(t, ok)
	assert.Equal(t, int64(7), id)

	for _, raw := range []string{"abc", "0", "-3", ""} {
		_, ok, code := parse(raw)
		assert.False(t, ok, raw)
		assert.Equal(t, http.StatusBadRequest, code, raw)
	}
}
