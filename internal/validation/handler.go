package validation

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"docucheck/internal/logger"
	"docucheck/pkg/errors"
	"docucheck/pkg/logging"
)

type Handler struct {
	service *Service
	logger  logger.Logger
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		validate := v1.Group("/validate")
		{
			validate.POST("", h.Validate)
			validate.POST("/quick", h.QuickValidate)
			validate.GET("/history/:document_id", h.History)
		}
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	status := errors.ToHTTPStatus(err)
	response := errors.ToErrorResponse(err)

	c.JSON(status, response)
}

// bindRequest decodes the request body with UseNumber so monetary amounts in
// document_data keep their exact decimal digits instead of collapsing to
// float64.
func bindRequest(c *gin.Context) (*Request, error) {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()

	var req Request
	if err := dec.Decode(&req); err != nil {
		return nil, errors.ErrValidation.WithCause(err).WithDetail("message", "request body is not valid JSON")
	}

	if req.DocumentID == "" {
		return nil, errors.ErrValidation.WithDetail("message", "document_id is required")
	}
	if req.DocumentData == nil {
		return nil, errors.ErrValidation.WithDetail("message", "document_data is required")
	}

	return &req, nil
}

// Validate godoc
// @Summary      Validate a document
// @Description  Evaluate the selected compliance rules against a document and record the session
// @Tags         validation
// @Accept       json
// @Produce      json
// @Param        request  body       Request  true  "Document and rule filters"
// @Success      200      {object}   Response
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      500      {object}  errors.ErrorResponse
// @Router       /validate [post]
func (h *Handler) Validate(c *gin.Context) {
	req, err := bindRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(err))
		return
	}

	ctx := logging.WithDocumentID(c.Request.Context(), req.DocumentID)

	resp, err := h.service.Validate(ctx, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// QuickValidate godoc
// @Summary      Validate a document without recording
// @Description  Evaluate rules against a document without persisting a session or publishing an event
// @Tags         validation
// @Accept       json
// @Produce      json
// @Param        request  body       Request  true  "Document and rule filters"
// @Success      200      {object}   Response
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      500      {object}  errors.ErrorResponse
// @Router       /validate/quick [post]
func (h *Handler) QuickValidate(c *gin.Context) {
	req, err := bindRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(err))
		return
	}

	ctx := logging.WithDocumentID(c.Request.Context(), req.DocumentID)

	resp, err := h.service.QuickValidate(ctx, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// History godoc
// @Summary      Get validation history for a document
// @Description  List every recorded validation session for a document, oldest first
// @Tags         validation
// @Accept       json
// @Produce      json
// @Param        document_id  path      string  true  "Document ID"
// @Success      200          {object}  HistoryResponse
// @Failure      404          {object}  errors.ErrorResponse
// @Failure      500          {object}  errors.ErrorResponse
// @Router       /validate/history/{document_id} [get]
func (h *Handler) History(c *gin.Context) {
	documentID := c.Param("document_id")

	ctx := logging.WithDocumentID(c.Request.Context(), documentID)

	resp, err := h.service.History(ctx, documentID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
