package http

import (
	"encoding/json"
	"errors"
	"event-registration/common/errs"
	"event-registration/model"
	"github.com/go-playground/validator/v10"
	"net/http"
)

func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func writeErrorResponse(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	w.Header().Set("Content-Type", "application/json")

	statusCode, message, data := mapError(err)
	w.WriteHeader(statusCode)

	errorResponse := model.ErrorResponse{Error: message, Data: data}
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// mapError translates domain errors into HTTP status codes per the error
// taxonomy: validation and inactive forms are 4xx detected before any side
// effect, insufficient inventory is a 409 whose reservations were already
// rolled back, persistence failures are 5xx.
func mapError(err error) (int, string, any) {
	var (
		httpErr         *errs.HttpError
		validationErr   *errs.ValidationError
		formErr         *errs.FormNotActiveError
		inventoryErr    *errs.InsufficientInventoryError
		notFoundErr     *errs.NotFoundError
		transitionErr   *errs.InvalidTransitionError
		validatorErrors validator.ValidationErrors
	)

	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code, httpErr.Message, httpErr.Data
	case errors.As(err, &validatorErrors):
		fieldErrors := make(map[string]string)
		for _, fieldErr := range validatorErrors {
			fieldErrors[fieldErr.Field()] = fieldErr.Tag()
		}
		return http.StatusBadRequest, "Validation failed", fieldErrors
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, "Validation failed", validationErr.FieldErrors
	case errors.As(err, &formErr):
		return http.StatusNotFound, "No active registration form", map[string]any{"event_id": formErr.EventID}
	case errors.As(err, &inventoryErr):
		return http.StatusConflict, "Insufficient inventory", map[string]any{"ticket_type_id": inventoryErr.TicketTypeID}
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, "Not found", map[string]any{"entity": notFoundErr.Entity, "id": notFoundErr.ID}
	case errors.As(err, &transitionErr):
		return http.StatusConflict, "Invalid status transition", map[string]any{"from": transitionErr.From, "to": transitionErr.To}
	default:
		return http.StatusInternalServerError, "Internal Server Error", nil
	}
}
