package iracing

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/publicsuffix"

	"github.com/mpapenbr/pacelock/log"
)

const (
	DefaultBaseURL = "https://members-ng.iracing.com"
	DefaultAuthURL = "https://members-ng.iracing.com/auth"
	defaultTimeout = 30 * time.Second

	legacyAuthRefused = "Legacy authorization refused"
)

var (
	ErrMissingCredentials = errors.New("iRacing credentials not found")
	ErrLegacyAuthRefused  = errors.New("legacy authorization refused")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrNoData             = errors.New("no data returned")
)

type Credentials struct {
	Username string
	Password string
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

// EncodePassword returns the password hash expected by the legacy auth
// endpoint: base64(sha256(password + lowercase(email))).
func EncodePassword(username, password string) string {
	sum := sha256.Sum256([]byte(password + strings.ToLower(username)))
	return base64.StdEncoding.EncodeToString(sum[:])
}

type (
	Client struct {
		baseURL       string
		authURL       string
		http          *http.Client
		timeout       time.Duration
		creds         Credentials
		log           *log.Logger
		tracer        trace.Tracer
		requests      metric.Int64Counter
		duration      metric.Float64Histogram
		authenticated bool
	}
	Option func(*Client)

	authRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	authResponse struct {
		AuthCode             any    `json:"authcode"`
		Message              string `json:"message"`
		VerificationRequired bool   `json:"verificationRequired"`
	}
	linkResponse struct {
		Link    string `json:"link"`
		Expires string `json:"expires"`
	}
)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

func WithAuthURL(u string) Option {
	return func(c *Client) {
		c.authURL = u
	}
}

// WithHTTPClient sets the client used for all requests. A cookie jar is
// added to a copy of the client if it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.http = &cp
	}
}

// WithTimeout sets the timeout per request. It applies to the client set
// by WithHTTPClient as well, regardless of the option order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// New creates a client for the iRacing data API. Authentication happens
// lazily with the first data request.
func New(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	ret := &Client{
		baseURL: DefaultBaseURL,
		authURL: DefaultAuthURL,
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		creds: creds,
		log:   log.Default().Named("iracing"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.timeout > 0 {
		ret.http.Timeout = ret.timeout
	}
	if ret.http.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, err
		}
		ret.http.Jar = jar
	}
	if ret.tracer == nil {
		ret.tracer = otel.Tracer("pacelock")
	}
	if err := ret.initMetrics(otel.Meter("pacelock")); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *Client) Authenticate(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "iracing.authenticate")
	defer span.End()

	body, err := json.Marshal(authRequest{
		Email:    c.creds.Username,
		Password: EncodePassword(c.creds.Username, c.creds.Password),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL,
		bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug("authenticating", log.String("url", c.authURL))
	resp, err := c.http.Do(req)
	if err != nil {
		return spanError(span, fmt.Errorf("auth request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return spanError(span, ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return spanError(span, fmt.Errorf("auth failed: %s", resp.Status))
	}
	var ar authResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return spanError(span, fmt.Errorf("decode auth response: %w", err))
	}
	if !truthy(ar.AuthCode) {
		if strings.Contains(ar.Message, legacyAuthRefused) {
			return spanError(span, fmt.Errorf("%w: %s", ErrLegacyAuthRefused, ar.Message))
		}
		return spanError(span, fmt.Errorf("auth failed: %s", ar.Message))
	}
	c.authenticated = true
	c.log.Debug("authenticated")
	return nil
}

// getLinked requests a data endpoint and returns the document the response
// links to.
//
//nolint:whitespace // can't make both editor and linter happy
func (c *Client) getLinked(
	ctx context.Context,
	path string,
	params url.Values,
) ([]byte, error) {
	if !c.authenticated {
		if err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
	}
	target := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	data, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}
	var lr linkResponse
	if err := json.Unmarshal(data, &lr); err != nil {
		return nil, fmt.Errorf("decode link response: %w", err)
	}
	if lr.Link == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrNoData)
	}
	c.log.Debug("following link", log.String("path", path),
		log.String("expires", lr.Expires))
	return c.get(ctx, lr.Link)
}

func (c *Client) initMetrics(meter metric.Meter) (err error) {
	c.requests, err = meter.Int64Counter("pacelock.api.requests",
		metric.WithDescription("number of requests sent to the iRacing API"))
	if err != nil {
		return err
	}
	c.duration, err = meter.Float64Histogram("pacelock.api.duration",
		metric.WithDescription("duration of requests sent to the iRacing API"),
		metric.WithUnit("s"))
	return err
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.recordRequest(ctx, 0, start)
		return nil, err
	}
	defer resp.Body.Close()
	c.recordRequest(ctx, resp.StatusCode, start)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized:
		c.authenticated = false
		return nil, fmt.Errorf("unauthorized: %s", resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("request failed: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) recordRequest(ctx context.Context, status int, start time.Time) {
	attrs := metric.WithAttributes(attribute.Int("http.status_code", status))
	c.requests.Add(ctx, 1, attrs)
	c.duration.Record(ctx, time.Since(start).Seconds(), attrs)
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func subsessionAttr(id int64) attribute.KeyValue {
	return attribute.Int64("subsession.id", id)
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != "" && x != "0"
	default:
		return true
	}
}
