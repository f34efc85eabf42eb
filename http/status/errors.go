package status

// HTTPError carries a status code along an ordinary error. Returning one from
// a handler or middleware makes the server respond with the carried code
// instead of a generic 500.
type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	// ErrCloseConnection closes the connection gracefully after the pending
	// response is flushed.
	ErrCloseConnection = NewError(CloseConnection, "actively closing the connection")
	// ErrConnectionAborted is reported when the peer disappears mid-transfer.
	// The cycle is abandoned, partial writes are never retried.
	ErrConnectionAborted = NewError(ConnectionAborted, "connection aborted mid-transfer")

	ErrBadRequest           = NewError(BadRequest, "bad request")
	ErrMalformedRequest     = NewError(BadRequest, "malformed request")
	ErrTooLongRequestLine   = NewError(BadRequest, "request line is too long")
	ErrURLDecoding          = NewError(BadRequest, "invalid urlencoded sequence")
	ErrBadQuery             = NewError(BadRequest, "malformed query string")
	ErrBadChunk             = NewError(BadRequest, "malformed chunk-encoded data")
	ErrBadMultipart         = NewError(BadRequest, "malformed multipart form")
	ErrUnauthorized         = NewError(Unauthorized, "unauthorized")
	ErrForbidden            = NewError(Forbidden, "forbidden")
	ErrNotFound             = NewError(NotFound, "not found")
	ErrMethodNotAllowed     = NewError(MethodNotAllowed, "method not allowed")
	ErrRequestTimeout       = NewError(RequestTimeout, "request timeout")
	ErrLengthRequired       = NewError(LengthRequired, "length required")
	ErrBodyTooLarge         = NewError(RequestEntityTooLarge, "request body is too large")
	ErrURITooLong           = NewError(RequestURITooLong, "request URI too long")
	ErrUnsupportedMediaType = NewError(UnsupportedMediaType, "unsupported media type")
	// ErrRangeNotSatisfiable must be accompanied by a Content-Range header of
	// the form "bytes */<size>". The server appends it automatically.
	ErrRangeNotSatisfiable     = NewError(RequestedRangeNotSatisfiable, "requested range is not satisfiable")
	ErrHeaderFieldsTooLarge    = NewError(RequestHeaderFieldsTooLarge, "too large headers section")
	ErrTooManyHeaders          = NewError(RequestHeaderFieldsTooLarge, "too many headers")
	ErrInternalServerError     = NewError(InternalServerError, "internal server error")
	ErrNotImplemented          = NewError(NotImplemented, "not implemented")
	ErrMethodNotImplemented    = NewError(NotImplemented, "request method is not supported")
	ErrUnsupportedEncoding     = NewError(NotImplemented, "transfer encoding is not supported")
	ErrHTTPVersionNotSupported = NewError(HTTPVersionNotSupported, "HTTP version not supported")
)
