// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package lighthttp

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorResponse is the JSON body written for every non-2xx response
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// WriteErrorf writes a JSON message of the form {"code": %d, "message": "%s"} with the given status code.
func WriteErrorf(response http.ResponseWriter, code int, format string, parameters ...interface{}) error {
	return writeJSON(response, code, ErrorResponse{
		Code:    code,
		Message: fmt.Sprintf(format, parameters...),
	})
}

func writeJSON(response http.ResponseWriter, code int, v interface{}) error {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(code)
	return json.NewEncoder(response).Encode(v)
}
