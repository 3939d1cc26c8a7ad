package web

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type response struct {
	Status int `json:"Status"`
	Body   any `json:"Body,omitempty"`
}

type errorResponse struct {
	ErrorDescription string `json:"ErrorDescription"`
	Reason           string `json:"Reason,omitempty"`
}

const internalErrorJSON = `{"Status":500,"Body":{"ErrorDescription":"Internal server error"}}`

const malformedJSONDesc = "json unmarshalling error"

func writeJSON(w http.ResponseWriter, status int, body any) {
	b, err := json.Marshal(response{Status: status, Body: body})
	if err != nil {
		writeInternalError(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func writeError(w http.ResponseWriter, status int, desc, reason string) {
	writeJSON(w, status, errorResponse{ErrorDescription: desc, Reason: reason})
}

func writeInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintln(w, internalErrorJSON)
}
