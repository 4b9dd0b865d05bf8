package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"github.com/use-agent/skim/config"
	"github.com/use-agent/skim/models"
	"golang.org/x/net/html/charset"
)

// HTTPEngine fetches pages over plain HTTP with a Chrome-like TLS
// fingerprint. It makes exactly one attempt per request.
type HTTPEngine struct {
	client *http.Client
	cfg    config.FetchConfig
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Go's http.Transport cannot speak h2 over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// NewHTTPEngine creates an HTTPEngine from the fetch configuration.
func NewHTTPEngine(cfg config.FetchConfig) *HTTPEngine {
	transport := &http.Transport{
		DialTLSContext:    dialTLSChrome,
		ForceAttemptHTTP2: false,
	}
	if cfg.Proxy != "" {
		if proxyURL, err := url.Parse(cfg.Proxy); err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		} else {
			slog.Warn("http_engine: ignoring unsupported proxy", "proxy", cfg.Proxy)
		}
	}

	return &HTTPEngine{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

// dialTLSChrome establishes a TLS connection using the Chrome fingerprint.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

func (e *HTTPEngine) Name() string { return "http" }

// Fetch downloads req.URL. Transport failures and error statuses map to
// FETCH_FAILED, an expired deadline to FETCH_TIMEOUT and a non-HTML
// Content-Type to NOT_HTML; the body is not read in that last case.
func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	timeout := e.cfg.Timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, models.NewDiscoverError(models.ErrCodeFetchFailed, "invalid target url", err)
	}

	httpReq.Header.Set("User-Agent", e.cfg.UserAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "identity")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, models.NewDiscoverError(models.ErrCodeFetchTimeout,
				fmt.Sprintf("fetching %s timed out after %s", req.URL, timeout), err)
		}
		return nil, models.NewDiscoverError(models.ErrCodeFetchFailed,
			fmt.Sprintf("fetching %s failed", req.URL), err)
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	if !isHTMLContentType(ct) {
		return nil, models.NewDiscoverError(models.ErrCodeNotHTML,
			fmt.Sprintf("content is not an HTML page (content-type: %q)", ct), nil)
	}

	if resp.StatusCode >= 400 {
		return nil, models.NewDiscoverError(models.ErrCodeFetchFailed,
			fmt.Sprintf("fetching %s returned HTTP %d", req.URL, resp.StatusCode), nil)
	}

	maxBody := e.cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, models.NewDiscoverError(models.ErrCodeFetchTimeout,
				fmt.Sprintf("reading %s timed out after %s", req.URL, timeout), err)
		}
		return nil, models.NewDiscoverError(models.ErrCodeFetchFailed, "reading response body failed", err)
	}

	decoded, err := decodeBody(body, ct)
	if err != nil {
		return nil, models.NewDiscoverError(models.ErrCodeFetchFailed, "decoding response body failed", err)
	}

	return &FetchResult{
		HTML:        decoded,
		ContentType: ct,
		StatusCode:  resp.StatusCode,
		FinalURL:    resp.Request.URL.String(),
		EngineName:  e.Name(),
	}, nil
}

// decodeBody converts body to UTF-8 using the Content-Type charset, a
// <meta charset> declaration, or content sniffing, in that order.
func decodeBody(body []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// isHTMLContentType returns true if the content-type header looks like HTML.
func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
