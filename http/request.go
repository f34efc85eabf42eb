package http

import (
	"context"
	"net"

	"github.com/cobalt-web/cobalt/config"
	"github.com/cobalt-web/cobalt/http/method"
	"github.com/cobalt-web/cobalt/http/proto"
	"github.com/cobalt-web/cobalt/http/query"
	"github.com/cobalt-web/cobalt/kv"
	"github.com/cobalt-web/cobalt/transport"
)

var zeroContext = context.Background()

type (
	Headers = *kv.Storage
	Header  = kv.Pair
	Params  = *kv.Storage
)

// Request represents an HTTP request and stays read-only from the handler's
// perspective. The instance is owned exclusively by the current request cycle
// and must not be retained past it.
type Request struct {
	// Method is an enum representing the request method.
	Method method.Method
	// Path is a decoded and validated string, guaranteed to hold ASCII-printable
	// characters only.
	Path string
	// Query grants lazy access to the URI parameters.
	Query *query.Query
	// Params hold values captured by wildcard routes. An anonymous wildcard
	// binds the path tail under the "*" key.
	Params Params
	// Proto is the protocol the request arrived over.
	Proto proto.Proto
	// Headers holds non-normalized header pairs, even though the lookup is
	// case-insensitive.
	Headers Headers
	commonHeaders
	// Remote holds the remote address. Note that this is generally not a good
	// way to identify a user, as there might be proxies in the middle.
	Remote net.Addr
	// Ctx is a user-managed context which lives as long as the connection does
	// and is never cleared automatically.
	Ctx context.Context
	// Env contains a fixed set of contextual values, useful in specific cases.
	// They aren't passed via the Ctx due to performance considerations.
	Env Environment
	// Body is a dedicated entity providing access to the message body.
	Body     *Body
	client   transport.Client
	hijacked bool
	response *Response
	cfg      *config.Config
}

func NewRequest(
	cfg *config.Config,
	response *Response,
	client transport.Client,
	body *Body,
	headers Headers,
	params Params,
) *Request {
	return &Request{
		Method:   method.Unknown,
		Proto:    proto.HTTP11,
		Query:    query.New(kv.New()),
		Params:   params,
		Headers:  headers,
		Remote:   client.Remote(),
		Ctx:      zeroContext,
		Body:     body,
		client:   client,
		response: response,
		cfg:      cfg,
	}
}

// Respond returns the Response builder.
//
// WARNING: the method clears the builder under the hood. As it is shared by
// reference, it'll be cleared EVERYWHERE along a handler.
func (r *Request) Respond() *Response {
	return r.response.Clear()
}

// Response returns the builder as-is, keeping whatever was already written
// into it. The router uses it to finalize responses prepared by middleware.
func (r *Request) Response() *Response {
	return r.response
}

// Hijack the connection. The request body is implicitly discarded (read it
// before if you need it). After the handler exits, the connection is closed,
// so a connection can be hijacked at most once.
func (r *Request) Hijack() (transport.Client, error) {
	if err := r.Body.Discard(); err != nil {
		return nil, err
	}

	r.hijacked = true

	return r.client, nil
}

// Hijacked tells whether the connection was hijacked.
func (r *Request) Hijacked() bool {
	return r.hijacked
}

// Reset clears the request-scoped state between cycles. The Ctx is preserved,
// as its lifespan is bound to the connection.
func (r *Request) Reset() {
	r.Params.Clear()
	r.Headers.Clear()
	r.commonHeaders = commonHeaders{}
	r.Env = Environment{}
}

type Environment struct {
	// Error passes the reason to an error handler when a request cycle fails.
	Error error
	// AllowedMethods lists the methods registered on the path. Set only when
	// 405 Method Not Allowed raises.
	AllowedMethods string
}

type commonHeaders struct {
	// ContentLength holds the Content-Length header value, 0 when absent.
	//
	// NOTE: carries no meaning if the body arrived chunked.
	ContentLength int
	// ContentType holds the Content-Type header value as received.
	ContentType string
	// Connection holds the Connection header value. It isn't normalized, so
	// compare it case-insensitively.
	Connection string
	// Chunked reports whether the body arrives in chunked transfer coding.
	Chunked bool
	// HasTrailer reports whether a chunked body announces trailer fields
	// after the terminal chunk.
	HasTrailer bool
}
