package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
)

func TestStoredReportsWarning(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Stored(c, http.StatusCreated, map[string]string{"name": "A"}, appErrors.Clone(appErrors.ErrStorageQuotaExceeded, "full"))

	require.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		Data map[string]string `json:"data"`
		Meta struct {
			Warning appErrors.Error `json:"storage_warning"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "A", body.Data["name"])
	assert.Equal(t, "STORAGE_QUOTA_EXCEEDED", body.Meta.Warning.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestErrorUsesStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.Clone(appErrors.ErrNotFound, "classroom 9 not found"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "classroom 9 not found")
	assert.NotContains(t, w.Body.String(), "storage_warning")
}
