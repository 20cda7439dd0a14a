package kraken

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/opa-project/opa/common"
	"github.com/opa-project/opa/common/crypto"
	"github.com/opa-project/opa/encoding/json"
	"github.com/opa-project/opa/exchange/accounts"
	"github.com/opa-project/opa/exchanges/nonce"
	"github.com/opa-project/opa/exchanges/request"
	"github.com/opa-project/opa/log"
	"github.com/pquerna/otp/totp"
)

const (
	krakenAPIURL     = "https://api.kraken.com"
	krakenAPIVersion = "0"
	exchangeName     = "Kraken"

	// Rate limit consts
	krakenRateInterval = time.Second
	krakenRequestRate  = 1
	krakenRateBurst    = 15
)

var (
	errNonceMissing       = errors.New("params must contain a nonce")
	errNoCredentials      = errors.New("authenticated request requires credentials")
	errOTPGenerateFailure = errors.New("unable to generate OTP code")
	errNotAnEnvelope      = errors.New("response carries neither error nor result")
)

// One sequencer per API key, shared by every client in the process, so
// clients built from the same credentials never reuse or reorder a nonce
var (
	sequencersMtx sync.Mutex
	sequencers    = make(map[string]*request.Sequencer)
)

func sequencerFor(key string) *request.Sequencer {
	sequencersMtx.Lock()
	defer sequencersMtx.Unlock()
	seq, ok := sequencers[key]
	if !ok {
		seq = request.NewSequencer()
		sequencers[key] = seq
	}
	return seq
}

// Config holds the connection settings for a Kraken client
type Config struct {
	APIURL string
	// Timeout bounds each HTTP request; zero uses request.DefaultHTTPTimeout
	Timeout time.Duration
	// RateLimit is requests per second; zero or less disables limiting
	RateLimit float64
	RateBurst int
	Verbose   bool
	// UserAgent replaces the requester's default User-Agent when set
	UserAgent string
	// HTTPClient overrides the client built from Timeout
	HTTPClient *http.Client
}

// DefaultConfig returns Kraken's public REST endpoint and rate limits
func DefaultConfig() Config {
	return Config{
		APIURL:    krakenAPIURL,
		Timeout:   request.DefaultHTTPTimeout,
		RateLimit: krakenRequestRate,
		RateBurst: krakenRateBurst,
	}
}

// Kraken is the overarching type across the kraken package. It owns the
// credentials, nonce counter and requester shared by every endpoint caller.
type Kraken struct {
	Name    string
	Verbose bool

	apiURL    string
	creds     accounts.Credentials
	secret    []byte
	requester *request.Requester
}

// New returns a Kraken client. creds may be nil for a client that only calls
// public endpoints. The credentials are copied and never modified.
func New(cfg Config, creds *accounts.Credentials) (*Kraken, error) {
	k := &Kraken{
		Name:    exchangeName,
		Verbose: cfg.Verbose,
		apiURL:  strings.TrimRight(cfg.APIURL, "/"),
	}
	if k.apiURL == "" {
		k.apiURL = krakenAPIURL
	}
	if !creds.IsEmpty() {
		if err := creds.Validate(); err != nil {
			return nil, err
		}
		k.creds = *creds
		secret, err := creds.DecodedSecret()
		if err != nil {
			return nil, err
		}
		k.secret = secret
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = request.DefaultHTTPTimeout
		}
		client = common.NewHTTPClientWithTimeout(timeout)
	}
	opts := []request.RequesterOption{request.WithUserAgent(cfg.UserAgent)}
	if k.HasCredentials() {
		opts = append(opts, request.WithSequencer(sequencerFor(k.creds.Key)))
	}
	if cfg.RateLimit > 0 {
		burst := max(cfg.RateBurst, 1)
		opts = append(opts, request.WithLimiter(request.NewBasicRateLimit(
			time.Duration(float64(krakenRateInterval)/cfg.RateLimit), 1, burst)))
	}
	r, err := request.New(k.Name, client, opts...)
	if err != nil {
		return nil, err
	}
	k.requester = r
	return k, nil
}

// HasCredentials reports whether authenticated endpoints can be called
func (k *Kraken) HasCredentials() bool {
	return !k.creds.IsEmpty()
}

// Sign returns the API-Sign value for a private request:
// base64(HMAC-SHA512(path + SHA256(nonce + body), base64decode(secret))).
// params must already contain the nonce; body is params encoded in
// insertion order. A malformed secret or a missing nonce returns
// accounts.ErrConfiguration.
func Sign(path string, params *Params, secret string) (string, error) {
	key, err := accounts.DecodeSecret(secret)
	if err != nil {
		return "", err
	}
	return sign(path, params, key)
}

func sign(path string, params *Params, key []byte) (string, error) {
	n, ok := params.Get("nonce")
	if !ok {
		return "", fmt.Errorf("%w: %w", accounts.ErrConfiguration, errNonceMissing)
	}
	shasum, err := crypto.GetSHA256([]byte(n + params.Encode()))
	if err != nil {
		return "", err
	}
	hmac, err := crypto.GetHMAC(crypto.HashSHA512, append([]byte(path), shasum...), key)
	if err != nil {
		return "", err
	}
	return crypto.Base64Encode(hmac), nil
}

// SendAuthenticatedHTTPRequest signs and POSTs params to path, for example
// "/0/private/Balance". The caller's params are not modified; a fresh nonce
// and, when configured, an OTP code are added to a copy. Exchange errors are
// returned untouched in Response.Error.
func (k *Kraken) SendAuthenticatedHTTPRequest(ctx context.Context, path string, params *Params) (*Response, error) {
	if !k.HasCredentials() {
		return nil, fmt.Errorf("%w: %w", accounts.ErrConfiguration, errNoCredentials)
	}

	var resp Response
	err := k.requester.SendPayload(ctx, func() (*request.Item, error) {
		p := params.Clone()
		p.Set("nonce", k.requester.GetNonce(nonce.UnixMilli).String())
		if k.creds.OTPSecret != "" {
			code, err := totp.GenerateCode(k.creds.OTPSecret, time.Now())
			if err != nil {
				return nil, fmt.Errorf("%w: %w: %w", accounts.ErrConfiguration, errOTPGenerateFailure, err)
			}
			p.Set("otp", code)
		}
		signature, err := sign(path, p, k.secret)
		if err != nil {
			return nil, err
		}
		return &request.Item{
			Method: http.MethodPost,
			Path:   k.apiURL + path,
			Headers: map[string]string{
				"API-Key":      k.creds.Key,
				"API-Sign":     signature,
				"Content-Type": "application/x-www-form-urlencoded; charset=utf-8",
			},
			Body:    strings.NewReader(p.Encode()),
			Result:  &resp,
			Verbose: k.Verbose,
		}, nil
	}, request.AuthenticatedRequest)
	if err != nil {
		return nil, err
	}
	if err := resp.checkEnvelope(); err != nil {
		return nil, err
	}
	if w := resp.Warnings(); w != "" {
		log.Warnf(log.ExchangeSys, "%v: AUTH REST request warning: %v", k.Name, w)
	}
	return &resp, nil
}

// Get issues an unauthenticated GET against an absolute URL and returns the
// Kraken envelope
func (k *Kraken) Get(ctx context.Context, url string) (*Response, error) {
	var resp Response
	if err := k.requester.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	if err := resp.checkEnvelope(); err != nil {
		return nil, err
	}
	if w := resp.Warnings(); w != "" {
		log.Warnf(log.ExchangeSys, "%v: REST request warning: %v", k.Name, w)
	}
	return &resp, nil
}

// GetJSON fetches arbitrary public JSON through the client's requester and
// rate limiter
func (k *Kraken) GetJSON(ctx context.Context, url string, result any) error {
	return k.requester.GetJSON(ctx, url, result)
}

// SendHTTPRequest calls a public endpoint method such as "Time" and decodes
// the result into result. Exchange errors are returned as *APIError.
func (k *Kraken) SendHTTPRequest(ctx context.Context, method string, params *Params, result any) error {
	path := k.apiURL + "/" + krakenAPIVersion + "/public/" + method
	if params.Len() > 0 {
		path += "?" + params.Encode()
	}
	resp, err := k.Get(ctx, path)
	if err != nil {
		return err
	}
	return resp.decode(result)
}

// sendPrivate calls a private endpoint method such as "Balance" and decodes
// the result into result. Exchange errors are returned as *APIError.
func (k *Kraken) sendPrivate(ctx context.Context, method string, params *Params, result any) error {
	requestPath := "/" + krakenAPIVersion + "/private/" + method
	resp, err := k.SendAuthenticatedHTTPRequest(ctx, requestPath, params)
	if err != nil {
		return err
	}
	return resp.decode(result)
}

// checkEnvelope rejects JSON bodies that are not Kraken responses, such as a
// proxy error page
func (r *Response) checkEnvelope() error {
	if len(r.Error) == 0 && len(r.Result) == 0 {
		return fmt.Errorf("%w: %w", request.ErrTransport, errNotAnEnvelope)
	}
	return nil
}

func (r *Response) decode(result any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if result == nil || len(r.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Result, result); err != nil {
		return fmt.Errorf("%w: unable to decode result: %w", request.ErrTransport, err)
	}
	return nil
}
