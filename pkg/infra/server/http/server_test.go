package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	options "github.com/kart-io/sentinel-rag/pkg/options/server/http"
	apierrors "github.com/kart-io/sentinel-rag/pkg/utils/errors"
	"github.com/kart-io/sentinel-rag/pkg/utils/json"
	"github.com/kart-io/sentinel-rag/pkg/utils/response"
)

func TestServer_NoRoute(t *testing.T) {
	s := NewServer(nil)

	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apierrors.ErrPageNotFound.Code, resp.Code)
	assert.NotEmpty(t, resp.RequestID)
}

func TestServer_NoMethod(t *testing.T) {
	s := NewServer(nil)
	s.Engine().GET("/only-get", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/only-get", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_StartStop(t *testing.T) {
	opts := options.NewOptions()
	opts.Addr = "127.0.0.1:0"
	s := NewServer(opts)
	s.Engine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	require.NoError(t, s.Start(context.Background()))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, s.Stop(ctx))
	}()

	resp, err := http.Get("http://" + s.Addr() + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))
}

func TestServer_StartBindError(t *testing.T) {
	opts := options.NewOptions()
	opts.Addr = "bad-address"
	assert.Error(t, NewServer(opts).Start(context.Background()))
}

func TestServer_StopBeforeStart(t *testing.T) {
	assert.NoError(t, NewServer(nil).Stop(context.Background()))
}

func TestServer_StartCanceledContext(t *testing.T) {
	opts := options.NewOptions()
	opts.Addr = "127.0.0.1:0"
	s := NewServer(opts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Start(ctx), context.Canceled)
	assert.NoError(t, s.Stop(context.Background()))
}
