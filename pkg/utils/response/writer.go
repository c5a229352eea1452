package response

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/sentinel-rag/pkg/utils/errors"
	"github.com/kart-io/sentinel-rag/pkg/validator"
)

// HeaderXRequestID is the header carrying the request ID.
const HeaderXRequestID = "X-Request-ID"

// Writer provides convenient methods to write responses to a gin.Context.
type Writer struct {
	ctx      *gin.Context
	withTime bool
	lang     string
}

// NewWriter creates a new response writer for the given context.
// The request ID and language are taken from the request.
func NewWriter(ctx *gin.Context) *Writer {
	return &Writer{ctx: ctx, withTime: true, lang: Lang(ctx)}
}

// WithLang sets the language for error messages.
func (w *Writer) WithLang(lang string) *Writer {
	w.lang = lang
	return w
}

// prepare adds optional fields to the response.
func (w *Writer) prepare(r *Response) *Response {
	if w.withTime {
		r.Timestamp = time.Now().UnixMilli()
	}
	if id := w.ctx.Writer.Header().Get(HeaderXRequestID); id != "" {
		r.RequestID = id
	}
	return r
}

// OK sends a successful response with data.
func (w *Writer) OK(data any) {
	resp := w.prepare(Success(data))
	w.ctx.JSON(resp.HTTPStatus(), resp)
}

// Fail sends an error response using Errno.
func (w *Writer) Fail(e *errors.Errno) {
	resp := w.prepare(ErrWithLang(e, w.lang))
	w.ctx.AbortWithStatusJSON(resp.HTTPStatus(), resp)
}

// FailWithError converts a standard error and sends it.
func (w *Writer) FailWithError(err error) {
	w.Fail(errors.FromError(err))
}

// FailWithValidation sends a validation error response with the field details.
func (w *Writer) FailWithValidation(verr *validator.ValidationErrors) {
	w.FailWithValidationCode(errors.ErrInvalidParam, verr)
}

// FailWithValidationCode is FailWithValidation with a service specific code.
// The response status is always 400.
func (w *Writer) FailWithValidationCode(e *errors.Errno, verr *validator.ValidationErrors) {
	resp := w.prepare(&Response{
		Code:     e.Code,
		HTTPCode: http.StatusBadRequest,
		Message:  verr.First(),
		Data:     verr,
	})
	w.ctx.AbortWithStatusJSON(http.StatusBadRequest, resp)
}

// OK sends a successful response.
func OK(ctx *gin.Context, data any) {
	NewWriter(ctx).OK(data)
}

// Fail sends an error response using Errno.
func Fail(ctx *gin.Context, e *errors.Errno) {
	NewWriter(ctx).Fail(e)
}

// FailWithError sends an error response from a standard error.
func FailWithError(ctx *gin.Context, err error) {
	NewWriter(ctx).FailWithError(err)
}

// FailWithValidation sends a validation error response.
func FailWithValidation(ctx *gin.Context, verr *validator.ValidationErrors) {
	NewWriter(ctx).FailWithValidation(verr)
}

// FailWithValidationCode sends a validation error response with the given code.
func FailWithValidationCode(ctx *gin.Context, e *errors.Errno, verr *validator.ValidationErrors) {
	NewWriter(ctx).FailWithValidationCode(e, verr)
}

// Lang picks the message language from the Accept-Language header.
func Lang(ctx *gin.Context) string {
	if ctx == nil || ctx.Request == nil {
		return validator.LangEN
	}
	if strings.HasPrefix(strings.ToLower(ctx.GetHeader("Accept-Language")), "zh") {
		return validator.LangZH
	}
	return validator.LangEN
}
