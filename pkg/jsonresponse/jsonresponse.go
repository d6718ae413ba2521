// Package jsonresponse keeps error payloads uniform across handlers.
package jsonresponse

type jsonError struct {
	Error string `json:"error"`
}

// Error wraps err into a struct that marshals as {"error": "..."}.
func Error(err error) jsonError {
	return jsonError{Error: err.Error()}
}
