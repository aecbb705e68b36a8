// Package network は、HTTP通信に関する機能を提供します。
// Cookie Jarによるセッション管理とホストごとの送信間隔制御をカプセル化した、
// より高レベルなHTTPクライアントを実装しています。
package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"PokeImageScraper/internal/config"
	"PokeImageScraper/internal/metrics"

	"golang.org/x/time/rate"
)

// HTTPError は、HTTPリクエストで発生したエラーとステータスコードを保持します。
type HTTPError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// Client は、Cookie Jarを内包し、HTTPセッションを管理するクライアントです。
// 複数のゴルーチンから同時に使用できます。
type Client struct {
	httpClient         *http.Client
	jar                *cookiejar.Jar
	userAgent          string
	defaultHeaders     map[string]string
	rateLimiters       map[string]*rate.Limiter // ホスト名ごとのレートリミッター
	rateLimitersMutex  sync.Mutex               // rateLimitersへのアクセスを保護するMutex
	perDomainIntervals map[string]int           // ドメインごとの設定間隔
}

// Option は Client の生成時オプションです。
type Option func(*Client)

// WithTransport は、下位の http.RoundTripper を差し替えます。
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// NewClient は NetworkSettings に基づいて HTTP クライアントを初期化します。
// per_domain_interval_ms に指定されたホストだけが送信間隔で制御され、
// それ以外のホストには制限がかかりません。cookies の値は Cookie Jar に登録されます。
func NewClient(settings config.NetworkSettings, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jarの作成に失敗しました: %w", err)
	}

	timeout := time.Duration(settings.RequestTimeoutMillis) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second // デフォルトタイムアウト
	}

	c := &Client{
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		jar:                jar,
		userAgent:          settings.UserAgent,
		defaultHeaders:     settings.DefaultHeaders,
		rateLimiters:       make(map[string]*rate.Limiter),
		perDomainIntervals: settings.PerDomainIntervalMillis,
	}
	for host, cookies := range settings.Cookies {
		for name, value := range cookies {
			if err := c.SetCookie(host, &http.Cookie{Name: name, Value: value, Path: "/"}); err != nil {
				return nil, fmt.Errorf("Cookieの設定に失敗しました (host=%s, name=%s): %w", host, name, err)
			}
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetCookie は、指定されたURLのドメインに対して、任意のCookieを設定します。
func (c *Client) SetCookie(domainURL string, cookie *http.Cookie) error {
	if !strings.HasPrefix(domainURL, "http") {
		domainURL = "https://" + domainURL
	}

	parsedURL, err := url.Parse(domainURL)
	if err != nil {
		return fmt.Errorf("Cookie設定のためのURL解析に失敗しました: %w", err)
	}

	c.jar.SetCookies(parsedURL, []*http.Cookie{cookie})
	return nil
}

// Get は、指定されたURLにGETリクエストを送信し、レスポンスボディを返します。
// ステータスが200以外の場合は *HTTPError を返します。
// 接続レベルの失敗はそのままラップして返します。
func (c *Client) Get(ctx context.Context, reqURL string) ([]byte, error) {
	parsedURL, err := url.Parse(reqURL)
	if err != nil {
		return nil, fmt.Errorf("リクエストURLの解析に失敗しました (%s): %w", reqURL, err)
	}
	host := parsedURL.Hostname()

	if limiter := c.getLimiterForHost(host); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("レートリミッター待機中にエラーが発生しました: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("GETリクエストの作成に失敗しました (%s): %w", reqURL, err)
	}

	for key, value := range c.defaultHeaders {
		req.Header.Set(key, value)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.HTTPRequests.WithLabelValues(host, "error").Inc()
		return nil, fmt.Errorf("GETリクエストの送信に失敗しました (%s): %w", reqURL, err)
	}
	defer resp.Body.Close()
	metrics.HTTPRequests.WithLabelValues(host, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		// 接続を再利用できるようにボディを読み捨てる
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			URL:        reqURL,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み込みに失敗しました (%s): %w", reqURL, err)
	}
	return body, nil
}

// getLimiterForHost は、指定されたホスト名に対応するレートリミッターを返します。
// 送信間隔が設定されていないホストには nil を返します。
func (c *Client) getLimiterForHost(host string) *rate.Limiter {
	c.rateLimitersMutex.Lock()
	defer c.rateLimitersMutex.Unlock()

	if limiter, exists := c.rateLimiters[host]; exists {
		return limiter
	}

	intervalMillis, ok := c.perDomainIntervals[host]
	if !ok || intervalMillis <= 0 {
		return nil
	}

	// intervalMillis 毎に 1 リクエストを許可する (バーストは1)
	limiter := rate.NewLimiter(rate.Every(time.Duration(intervalMillis)*time.Millisecond), 1)
	c.rateLimiters[host] = limiter
	return limiter
}
