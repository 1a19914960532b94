package httpresponse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	goerrors "goban/internal/errors"
)

type Response struct {
	Status int `json:"Status"`
	Body   any `json:"Body,omitempty"`
}

type ErrorResponse struct {
	ErrorDescription string `json:"ErrorDescription"`
}

const INTERNALERRORJSON = "{\"Status\": 500,\"Body\":{\"ErrorDescription\": \"Internal server error\"}}"

const MALFORMEDJSON_errorDesc = "json unmarshalling error"

func WriteResponseWithStatus(w http.ResponseWriter, status int, body any) {
	jsonByte, err := marshalStatusJson(status, body)
	if err != nil {
		WriteInternalErrorResponse(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(jsonByte)
}

// WriteError answers with the status that matches err.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		WriteInternalErrorResponse(w)
		return
	}
	WriteResponseWithStatus(w, status, ErrorResponse{ErrorDescription: err.Error()})
}

// WriteMalformed answers 400 for a body that could not be decoded.
func WriteMalformed(w http.ResponseWriter, err error) {
	WriteResponseWithStatus(w, http.StatusBadRequest, ErrorResponse{
		ErrorDescription: MALFORMEDJSON_errorDesc + ": " + err.Error(),
	})
}

// StatusFor maps use case errors to HTTP statuses.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, goerrors.ErrGameNotFound), errors.Is(err, goerrors.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, goerrors.ErrInvalidBoardSize), errors.Is(err, goerrors.ErrInvalidRule),
		errors.Is(err, goerrors.ErrCreateGameFailed), errors.Is(err, goerrors.ErrInvalidTier):
		return http.StatusBadRequest
	case errors.Is(err, goerrors.ErrIllegalMove):
		return http.StatusUnprocessableEntity
	case errors.Is(err, goerrors.ErrGameNotInProgress), errors.Is(err, goerrors.ErrNothingToUndo),
		errors.Is(err, goerrors.ErrStaleAIResult):
		return http.StatusConflict
	case errors.Is(err, goerrors.ErrAIUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func marshalStatusJson(status int, body any) ([]byte, error) {
	response := Response{
		Status: status,
		Body:   body,
	}
	marshal, err := json.Marshal(response)
	if err != nil {
		return nil, err
	}
	return marshal, nil
}

func WriteInternalErrorResponse(w http.ResponseWriter) {
	// как http.Error, только с другим Content-Type
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintln(w, INTERNALERRORJSON)
}
