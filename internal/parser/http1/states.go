package http1

// RequestState tells the dispatcher how far the head parsing has come.
type RequestState uint8

const (
	// Pending means the head isn't complete yet, more data is wanted.
	Pending RequestState = iota + 1
	// HeadersCompleted means the head is fully parsed and body bytes, if any,
	// follow.
	HeadersCompleted
	// Error means the message is malformed and the connection cannot recover.
	Error
)

type parserState uint8

const (
	eMethod parserState = iota + 1
	ePath
	eHeaderKey
	eContentLength
	eContentLengthCR
	eHeaderValue
	eHeaderValueCRLFCR
)
