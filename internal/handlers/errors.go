package handlers

import (
	"net/http"
	"taskTrackerAPI/internal/handlers/dto"
	"taskTrackerAPI/internal/logger"
	"taskTrackerAPI/internal/service"

	"go.uber.org/zap"
)

// handleBusinessError пишет ответ, если err - BusinessError, и сообщает об этом
func handleBusinessError(w http.ResponseWriter, r *http.Request, err error) bool {
	businessErr, ok := service.AsBusinessError(err)
	if !ok {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	if statusCode >= http.StatusInternalServerError {
		logger.Error("HTTP: Внутренняя ошибка", businessErr.Err,
			zap.String("error_code", businessErr.Code),
			zap.String("path", r.URL.Path))
	} else {
		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("error_code", businessErr.Code),
			zap.Int("http_status", statusCode),
			zap.String("client_ip", r.RemoteAddr))
	}

	body := dto.ErrorResponse{
		Error: businessErr.Message,
		Code:  businessErr.Code,
	}
	if errs, ok := businessErr.Details["errors"].([]string); ok {
		body.Errors = errs
	}

	writeJSON(w, statusCode, body)
	return true
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation, service.CodeInvalidID, service.CodeMissingField,
		service.CodeInvalidTag, service.CodeEmptyTag:
		return http.StatusBadRequest
	case service.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// handleServiceError: бизнес-ошибки по кодам, остальное - 500 с текстом ошибки
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if handleBusinessError(w, r, err) {
		return
	}

	logger.Error("HTTP: Ошибка Service", err,
		zap.String("operation", operation),
		zap.String("client_ip", r.RemoteAddr))

	responseWithError(w, http.StatusInternalServerError, err.Error())
}
