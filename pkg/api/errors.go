package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	apiErrs "github.com/tonclub/hypersonic/pkg/api/errors"
)

type ErrorHandler struct {
	logger *zap.Logger
}

func NewErrorHandler(logger *zap.Logger) ErrorHandler {
	return ErrorHandler{
		logger: logger,
	}
}

func (eh *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	// target errors
	var (
		unknownError = &apiErrs.UnknownError{}
		apiError     = apiErrs.ApiError(nil)
	)
	if le, ok := apiErrs.FromLedger(err); ok {
		eh.sendApiErrJSON(w, r, le)
		return
	}
	switch {
	case errors.As(err, &unknownError):
		eh.logError(r, "UnknownError", err)
		eh.sendApiErrJSON(w, r, unknownError)
	case errors.As(err, &apiError):
		eh.sendApiErrJSON(w, r, apiError)
	default:
		eh.logError(r, "InternalServerError", err)
		eh.sendApiErrJSON(w, r, apiErrs.NewUnknownError(err))
	}
}

func (eh *ErrorHandler) logError(r *http.Request, msg string, err error) {
	eh.logger.Error(msg,
		zap.String("proto", r.Proto),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("remote_addr", r.RemoteAddr),
		zap.Error(err),
	)
}

func (eh *ErrorHandler) sendApiErrJSON(w http.ResponseWriter, r *http.Request, apiErr apiErrs.ApiError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.GetHttpCode())
	if encodeErr := json.NewEncoder(w).Encode(apiErr); encodeErr != nil {
		eh.logger.Error("Failed to marshal API Error to JSON",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(encodeErr),
			zap.String("api_error", apiErr.Error()),
		)
	}
}
