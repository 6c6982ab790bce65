package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailbridge/backend/internal/monitoring"
)

func TestRecoveryHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := monitoring.NewMetrics()

	router := gin.New()
	router.Use(RecoveryHandler(zap.NewNop(), metrics))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error": "internal server error"}`, w.Body.String())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.PanicsTotal))
}
