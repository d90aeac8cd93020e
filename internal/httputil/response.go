package httputil

import (
	"encoding/json"
	"net/http"
)

// Envelope is the response wrapper every API endpoint speaks.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

// RespondJSON writes a success envelope with the given status code.
// It marshals first so an encoding failure never produces a partial
// response after headers are sent.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	respond(w, status, Envelope{Success: true, Data: data})
}

// RespondMessage writes a success envelope that carries only a message.
func RespondMessage(w http.ResponseWriter, status int, message string) {
	respond(w, status, Envelope{Success: true, Message: message})
}

// RespondError writes a failure envelope.
func RespondError(w http.ResponseWriter, status int, message string, errs ...string) {
	respond(w, status, Envelope{Success: false, Message: message, Errors: errs})
}

func respond(w http.ResponseWriter, status int, env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}
