// Package handler provides HTTP handlers for the answer service.
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-rag/internal/answer/biz"
	"github.com/kart-io/sentinel-rag/internal/model"
	"github.com/kart-io/sentinel-rag/pkg/utils/errors"
	"github.com/kart-io/sentinel-rag/pkg/utils/response"
	"github.com/kart-io/sentinel-rag/pkg/validator"
)

// DefaultBatchMaxItems is used when no batch limit is configured.
const DefaultBatchMaxItems = 32

// AnswerHandler handles answer HTTP requests.
type AnswerHandler struct {
	orch          *biz.Orchestrator
	batch         *biz.BatchAnswerer
	validator     *validator.Validator
	batchMaxItems int
}

// NewAnswerHandler creates a new AnswerHandler.
// A nil batch answerer answers batch items sequentially.
func NewAnswerHandler(orch *biz.Orchestrator, batch *biz.BatchAnswerer, v *validator.Validator, batchMaxItems int) *AnswerHandler {
	if batch == nil {
		batch = biz.NewBatchAnswerer(orch, nil)
	}
	if v == nil {
		v = validator.New()
	}
	if batchMaxItems <= 0 {
		batchMaxItems = DefaultBatchMaxItems
	}
	return &AnswerHandler{
		orch:          orch,
		batch:         batch,
		validator:     v,
		batchMaxItems: batchMaxItems,
	}
}

// AnswerRequest represents an answer request.
type AnswerRequest struct {
	Query   string                    `json:"query" validate:"notblank,max=4096"`
	Results []model.RetrievedDocument `json:"results" validate:"max=200,dive"`
	TopK    *int                      `json:"top_k,omitempty" validate:"omitempty,gte=0,lte=200"`
}

// AnswerResponse represents an answer response.
type AnswerResponse struct {
	Answer string `json:"answer"`
	Cached bool   `json:"cached"`
}

// BatchRequest represents a batch answer request.
type BatchRequest struct {
	Items []AnswerRequest `json:"items" validate:"required,min=1,dive"`
}

// BatchResponse represents a batch answer response.
type BatchResponse struct {
	Answers []string `json:"answers"`
}

// Answer generates one answer.
func (h *AnswerHandler) Answer(c *gin.Context) {
	var req AnswerRequest
	if !h.bind(c, &req) {
		return
	}

	res := h.orch.AnswerDetailed(c.Request.Context(), req.Query, req.Results, req.TopK)
	response.OK(c, AnswerResponse{Answer: res.Answer, Cached: res.Cached})
}

// AnswerBatch generates answers for several requests, preserving order.
func (h *AnswerHandler) AnswerBatch(c *gin.Context) {
	var req BatchRequest
	if !h.bind(c, &req) {
		return
	}
	if len(req.Items) > h.batchMaxItems {
		response.Fail(c, errors.ErrAnswerBatchTooLarge.WithMessagef(
			"batch has %d items, at most %d allowed", len(req.Items), h.batchMaxItems))
		return
	}

	items := make([]biz.BatchItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = biz.BatchItem{Query: it.Query, Results: it.Results, TopK: it.TopK}
	}
	response.OK(c, BatchResponse{Answers: h.batch.AnswerBatch(c.Request.Context(), items)})
}

// Stats returns the runtime statistics snapshot.
func (h *AnswerHandler) Stats(c *gin.Context) {
	response.OK(c, h.orch.Stats(c.Request.Context()))
}

// ClearCache removes all cached answers.
func (h *AnswerHandler) ClearCache(c *gin.Context) {
	if err := h.orch.ClearCache(c.Request.Context()); err != nil {
		logger.Global().WithCtx(c.Request.Context()).Errorw("failed to clear answer cache", "error", err.Error())
		response.Fail(c, errors.ErrAnswerCacheClearFailed.WithCause(err))
		return
	}
	response.OK(c, gin.H{"cleared": true})
}

// bind decodes the JSON body and validates it. It writes the error
// response and returns false on failure.
func (h *AnswerHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Fail(c, errors.ErrAnswerInvalidRequest.WithCause(err))
		return false
	}
	if verr := h.validator.ValidateWithLang(req, response.Lang(c)); verr.HasErrors() {
		response.FailWithValidationCode(c, errors.ErrAnswerInvalidRequest, verr)
		return false
	}
	return true
}
