package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"taskTrackerAPI/internal/logger"
	"taskTrackerAPI/internal/models/task"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// requireJSON отвечает 415, если тело пришло не как application/json
func requireJSON(w http.ResponseWriter, r *http.Request) bool {
	if checkContentType(r, "application/json") {
		return true
	}

	logger.Warn("HTTP: Неверный тип контента",
		zap.String("expected", "application/json"),
		zap.String("received", r.Header.Get("Content-Type")),
		zap.String("client_ip", r.RemoteAddr))

	responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
	return false
}

// decodeBody читает JSON-тело. Пустое тело не ошибка, v остаётся нулевым.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	logger.Warn("HTTP: Ошибка чтения JSON",
		zap.Error(err),
		zap.String("client_ip", r.RemoteAddr))

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		responseWithError(w, http.StatusBadRequest, "Invalid value for field '"+typeErr.Field+"'")
		return false
	}
	responseWithError(w, http.StatusBadRequest, "Invalid JSON body")
	return false
}

func decodePayload(w http.ResponseWriter, r *http.Request) (task.Payload, bool) {
	var payload task.Payload
	if !decodeBody(w, r, &payload) {
		return nil, false
	}
	return payload, true
}

// queryInt64 возвращает nil, если параметра нет или он не число
func queryInt64(r *http.Request, key string) *int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		logger.Warn("HTTP: Неверное значение параметра, используется значение по умолчанию",
			zap.String("query", key),
			zap.String("value", raw))
		return nil
	}
	return &v
}
