package request

import (
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/opa-project/opa/exchanges/nonce"
	"golang.org/x/time/rate"
)

// ErrTransport is returned for any network, HTTP or response decoding failure.
// Callers decide whether to retry; the requester never does.
var ErrTransport = errors.New("transport error")

// Public errors
var (
	ErrRequestSystemIsNil = errors.New("request system is nil")
)

var (
	errRequestFunctionIsNil   = errors.New("request function cannot be nil")
	errRequestItemNil         = errors.New("request item cannot be nil")
	errInvalidPath            = errors.New("invalid path")
	errHTTPClientIsNil        = errors.New("http client is nil")
	errUnexpectedStatus       = errors.New("unexpected HTTP status code")
)

// AuthType helps distinguish the purpose of a HTTP request
type AuthType uint8

// Authentication types
const (
	UnauthenticatedRequest AuthType = iota
	AuthenticatedRequest
)

// Const vars for rate limiter
const (
	defaultUserAgent       = "opa-krakenctl"
	DefaultHTTPTimeout     = 15 * time.Second
	maxResponseBodyLogSize = 2048
)

// Requester struct for the request client
type Requester struct {
	_HTTPClient *http.Client
	name        string
	userAgent   string
	limiter     *rate.Limiter
	seq         *Sequencer
}

// Sequencer issues nonces and serialises authenticated dispatch. Requesters
// signing with the same API key must share one Sequencer so the exchange
// sees a single strictly increasing nonce stream from the process.
type Sequencer struct {
	mtx   sync.Mutex
	nonce nonce.Nonce
}

// NewSequencer returns a Sequencer ready for use
func NewSequencer() *Sequencer {
	return new(Sequencer)
}

// Item is a temp item for requests
type Item struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    io.Reader
	Result  any
	Verbose bool
}

// Generate defines a closure for functionality outside the requester to
// generate a new *http.Request on every attempt. Authenticated requests
// generate their nonce inside this function.
type Generate func() (*Item, error)

// RequesterOption is a function option that can be applied to configure a
// Requester when creating it.
type RequesterOption func(*Requester)
