package response

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kart-io/sentinel-rag/pkg/utils/errors"
)

func TestSuccess(t *testing.T) {
	r := Success(map[string]string{"answer": "ok"}).WithRequestID("req-1").WithTimestamp(42)
	assert.True(t, r.IsSuccess())
	assert.Equal(t, http.StatusOK, r.HTTPStatus())
	assert.Equal(t, "req-1", r.RequestID)
	assert.Equal(t, int64(42), r.Timestamp)
}

func TestErrWithLang(t *testing.T) {
	r := ErrWithLang(errors.ErrAnswerInvalidRequest, "zh")
	assert.Equal(t, errors.ErrAnswerInvalidRequest.Code, r.Code)
	assert.Equal(t, "回答请求参数无效", r.Message)
	assert.Equal(t, http.StatusBadRequest, r.HTTPStatus())

	assert.True(t, Err(nil).IsSuccess())
}

func TestHTTPStatus_FallsBackToCategory(t *testing.T) {
	r := &Response{Code: errors.MakeCode(99, errors.CategoryTimeout, 7)}
	assert.Equal(t, http.StatusGatewayTimeout, r.HTTPStatus())
}
