// Package sentry posts error events to a Sentry-compatible store endpoint
// over plain HTTP. It covers only what the service needs:
// exceptions and messages with tags and request context. Delivery is best
// effort. Every failure is logged and counted, never returned.
package sentry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/menuhub/menuhub/internal/safego"
	"github.com/menuhub/menuhub/internal/telemetry"
)

const (
	clientName    = "menuhub-go"
	clientVersion = "1.0"
	protocolVer   = 7
)

// Level is the event severity.
type Level string

// Severity levels understood by Sentry.
const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

// Config configures a Client.
type Config struct {
	DSN         string
	Environment string
	Release     string
	ServerName  string
	Timeout     time.Duration
	// EventsPerSecond throttles outbound events; zero disables throttling.
	EventsPerSecond float64
}

// Event is the JSON body accepted by the store endpoint.
type Event struct {
	EventID     string            `json:"event_id"`
	Timestamp   string            `json:"timestamp"`
	Level       Level             `json:"level"`
	Platform    string            `json:"platform"`
	Logger      string            `json:"logger,omitempty"`
	Message     string            `json:"message,omitempty"`
	Environment string            `json:"environment,omitempty"`
	Release     string            `json:"release,omitempty"`
	ServerName  string            `json:"server_name,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	Extra       map[string]any    `json:"extra,omitempty"`
	Exception   *Exception        `json:"exception,omitempty"`
	Request     *Request          `json:"request,omitempty"`
}

// Exception wraps one or more exception values; the last one is the outermost.
type Exception struct {
	Values []ExceptionValue `json:"values"`
}

// ExceptionValue is a single error in a chain.
type ExceptionValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Request carries the HTTP request an event happened in.
type Request struct {
	URL         string            `json:"url,omitempty"`
	Method      string            `json:"method,omitempty"`
	QueryString string            `json:"query_string,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// Client posts events. The zero value is not usable; call New.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter

	endpointOnce sync.Once
	endpoint     string
	publicKey    string
}

// New creates a Client. The DSN is not parsed until the first event.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if cfg.ServerName == "" {
		cfg.ServerName, _ = os.Hostname()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.EventsPerSecond > 0 {
		burst := int(2 * cfg.EventsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.EventsPerSecond), burst)
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

// ParseDSN turns https://<key>@<host>[/<path>]/<project> into the store
// endpoint https://<host>[/<path>]/api/<project>/store/ and the public key.
func ParseDSN(dsn string) (endpoint, publicKey string, err error) {
	u, err := url.Parse(strings.TrimSpace(dsn))
	if err != nil {
		return "", "", fmt.Errorf("invalid sentry DSN: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", "", errors.New("invalid sentry DSN: scheme must be http or https")
	}
	if u.Host == "" {
		return "", "", errors.New("invalid sentry DSN: missing host")
	}
	if u.User == nil || u.User.Username() == "" {
		return "", "", errors.New("invalid sentry DSN: missing public key")
	}

	path := strings.TrimRight(u.Path, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", "", errors.New("invalid sentry DSN: missing project id")
	}
	project := path[idx+1:]
	if project == "" {
		return "", "", errors.New("invalid sentry DSN: missing project id")
	}
	prefix := path[:idx]

	return fmt.Sprintf("%s://%s%s/api/%s/store/", u.Scheme, u.Host, prefix, project), u.User.Username(), nil
}

// Endpoint returns the store URL, computing it once. An empty or invalid DSN
// memoizes "" and the client stays disabled for its lifetime.
func (c *Client) Endpoint() string {
	c.endpointOnce.Do(func() {
		if strings.TrimSpace(c.cfg.DSN) == "" {
			return
		}
		endpoint, key, err := ParseDSN(c.cfg.DSN)
		if err != nil {
			slog.Warn("sentry disabled", "error", err)
			return
		}
		c.endpoint, c.publicKey = endpoint, key
	})
	return c.endpoint
}

// Enabled reports whether events will be sent.
func (c *Client) Enabled() bool {
	return c.Endpoint() != ""
}

// CaptureException reports err. Wrapped errors are reported as a chain.
func (c *Client) CaptureException(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	c.Capture(ctx, &Event{
		Level:     LevelError,
		Message:   err.Error(),
		Tags:      tags,
		Exception: ExceptionFrom(err),
	})
}

// CaptureMessage reports a plain message.
func (c *Client) CaptureMessage(ctx context.Context, msg string, level Level, tags map[string]string) {
	c.Capture(ctx, &Event{Level: level, Message: msg, Tags: tags})
}

// CaptureAsync reports ev from a background goroutine so the caller is not
// delayed by the network round trip.
func (c *Client) CaptureAsync(ev *Event) {
	if !c.Enabled() {
		telemetry.SentryEventsTotal.WithLabelValues("disabled").Inc()
		return
	}
	safego.Go("sentry-capture", func() {
		c.Capture(context.Background(), ev)
	})
}

// Capture fills in defaults and posts ev. It never returns an error.
func (c *Client) Capture(ctx context.Context, ev *Event) {
	endpoint := c.Endpoint()
	if endpoint == "" {
		telemetry.SentryEventsTotal.WithLabelValues("disabled").Inc()
		return
	}
	if !c.limiter.Allow() {
		telemetry.SentryEventsTotal.WithLabelValues("throttled").Inc()
		slog.Debug("sentry event throttled", "message", ev.Message)
		return
	}

	c.fillDefaults(ev)
	if err := c.post(ctx, endpoint, ev); err != nil {
		telemetry.SentryEventsTotal.WithLabelValues("dropped").Inc()
		slog.Warn("failed to send sentry event", "event_id", ev.EventID, "error", err)
		return
	}
	telemetry.SentryEventsTotal.WithLabelValues("sent").Inc()
}

func (c *Client) fillDefaults(ev *Event) {
	if ev.EventID == "" {
		ev.EventID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if ev.Timestamp == "" {
		ev.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if ev.Level == "" {
		ev.Level = LevelError
	}
	ev.Platform = "go"
	if ev.Environment == "" {
		ev.Environment = c.cfg.Environment
	}
	if ev.Release == "" {
		ev.Release = c.cfg.Release
	}
	if ev.ServerName == "" {
		ev.ServerName = c.cfg.ServerName
	}
}

func (c *Client) post(ctx context.Context, endpoint string, ev *Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Sentry-Auth", c.authHeader())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sentry returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) authHeader() string {
	return fmt.Sprintf("Sentry sentry_version=%d, sentry_client=%s/%s, sentry_timestamp=%d, sentry_key=%s",
		protocolVer, clientName, clientVersion, time.Now().Unix(), c.publicKey)
}

// ExceptionFrom unwraps err into a chain, innermost first.
func ExceptionFrom(err error) *Exception {
	var values []ExceptionValue
	for e := err; e != nil; e = errors.Unwrap(e) {
		values = append(values, ExceptionValue{Type: fmt.Sprintf("%T", e), Value: e.Error()})
		if len(values) == 10 {
			break
		}
	}
	for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
		values[i], values[j] = values[j], values[i]
	}
	return &Exception{Values: values}
}

// RequestFromHTTP extracts the request fields worth reporting. Credentials
// and cookies are never copied.
func RequestFromHTTP(r *http.Request) *Request {
	if r == nil {
		return nil
	}
	headers := make(map[string]string)
	for _, h := range []string{"User-Agent", "Referer", "X-Request-ID", "Content-Type"} {
		if v := r.Header.Get(h); v != "" {
			headers[h] = v
		}
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return &Request{
		URL:         scheme + "://" + r.Host + r.URL.Path,
		Method:      r.Method,
		QueryString: r.URL.RawQuery,
		Headers:     headers,
	}
}
