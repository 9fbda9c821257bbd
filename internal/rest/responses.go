// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package rest holds the JSON response envelope and the mapping from
// domain errors to HTTP status codes, shared by every API package.
package rest

import (
	"encoding/json"
	"net/http"

	"github.com/cortexbuild/tenancy-service/internal/logging"
	"github.com/cortexbuild/tenancy-service/internal/types"
)

type Response struct {
	Data    interface{} `json:"data,omitempty"`
	Status  int         `json:"status"`
	Message string      `json:"message,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger logging.LoggerInterface) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(Response{Data: data, Status: status}); err != nil {
		logger.Errorf("failed to encode response: %v", err)
	}
}

// WriteError maps a domain error to its status code. Internal failures are
// logged with the real cause and surfaced as an opaque 500.
func WriteError(w http.ResponseWriter, err error, logger logging.LoggerInterface) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case types.IsValidation(err):
		status = http.StatusBadRequest
		message = err.Error()
	case types.IsNotFound(err):
		status = http.StatusNotFound
		message = err.Error()
	case types.IsForbidden(err):
		status = http.StatusForbidden
		message = err.Error()
	case types.IsConflict(err):
		status = http.StatusConflict
		message = err.Error()
	default:
		logger.Errorf("request failed: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if encodeErr := json.NewEncoder(w).Encode(Response{Status: status, Message: message}); encodeErr != nil {
		logger.Errorf("failed to encode error response: %v", encodeErr)
	}
}
