package handler

import (
	"errors"
	"net/http"

	"github.com/contract-payment-ledger/internal/api_gateway/middleware"
	"github.com/contract-payment-ledger/internal/domain/contract"
	"github.com/gin-gonic/gin"
)

// Response represents a standard API response
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Meta          *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo represents error information in a response. Kind is the stable error category
// callers branch on; Code narrows it down.
type ErrorInfo struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Kind    string   `json:"kind,omitempty"`
	Details []string `json:"details,omitempty"`
}

// MetaInfo represents metadata in a response
type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
	TotalItems int `json:"total_items,omitempty"`
}

// NewResponse creates a new response with data
func NewResponse(data interface{}) *Response {
	return &Response{
		Data: data,
	}
}

// NewErrorResponse creates a new error response
func NewErrorResponse(code, message string) *Response {
	return &Response{
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// NewPaginatedResponse creates a new paginated response
func NewPaginatedResponse(data interface{}, page, perPage, totalItems int) *Response {
	totalPages := totalItems / perPage
	if totalItems%perPage > 0 {
		totalPages++
	}

	return &Response{
		Data: data,
		Meta: &MetaInfo{
			Page:       page,
			PerPage:    perPage,
			TotalPages: totalPages,
			TotalItems: totalItems,
		},
	}
}

// StatusForKind maps an error kind to its HTTP status
func StatusForKind(kind contract.ErrorKind) int {
	switch kind {
	case contract.KindValidation:
		return http.StatusBadRequest
	case contract.KindInvariantViolation:
		return http.StatusUnprocessableEntity
	case contract.KindIllegalTransition, contract.KindConcurrencyConflict:
		return http.StatusConflict
	case contract.KindNotFound:
		return http.StatusNotFound
	case contract.KindUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithData sends a JSON response with data
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	response := NewResponse(data)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondWithError sends a JSON response with an error
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	response := NewErrorResponse(code, message)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondWithPaginatedData sends a JSON response with paginated data
func RespondWithPaginatedData(c *gin.Context, statusCode int, data interface{}, page, perPage, totalItems int) {
	response := NewPaginatedResponse(data, page, perPage, totalItems)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondDomainError sends err with the status of its kind. Internal errors never leak
// their message.
func RespondDomainError(c *gin.Context, err error) {
	kind := contract.KindOf(err)
	if kind == contract.KindInternal {
		RespondInternalError(c)
		return
	}

	info := &ErrorInfo{
		Code:    contract.CodeOf(err),
		Message: err.Error(),
		Kind:    string(kind),
	}
	var verr contract.ValidationErrors
	if errors.As(err, &verr) {
		info.Details = verr.Fields
	}

	c.JSON(StatusForKind(kind), &Response{
		Error:         info,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

// RespondCreated sends a 201 Created response with data
func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

// RespondAccepted sends a 202 Accepted response with data.
func RespondAccepted(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusAccepted, data)
}

// RespondBadRequest sends a 400 Bad Request response with an error
func RespondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, &Response{
		Error: &ErrorInfo{
			Code:    "BAD_REQUEST",
			Message: message,
			Kind:    string(contract.KindValidation),
		},
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondNotFound sends a 404 Not Found response with an error
func RespondNotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, "NOT_FOUND", message)
}

// RespondInternalError sends a 500 Internal Server Error response with an error
func RespondInternalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, &Response{
		Error: &ErrorInfo{
			Code:    "INTERNAL_SERVER_ERROR",
			Message: "An internal server error occurred",
			Kind:    string(contract.KindInternal),
		},
		CorrelationID: middleware.GetCorrelationID(c),
	})
}
