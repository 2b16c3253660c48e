package response

// Response is the envelope used for status-style replies. List and
// lookup endpoints render their payload directly; this envelope is for
// errors and acknowledgements.
type Response struct {
	Error   bool        `json:"error"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func Ok(data interface{}) Response {
	return Response{
		Error: false,
		Data:  data,
	}
}

func Err(message string) Response {
	return Response{
		Error:   true,
		Message: message,
	}
}
