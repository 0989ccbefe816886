package llm

import (
	"net"
	"net/http"
	"time"

	"shellmate/internal/infra/config"
)

// Default connection pool settings. A single interactive session talks to one
// host, so the pool stays small.
const (
	defaultMaxIdleConns        = 4
	defaultMaxIdleConnsPerHost = 2
	defaultMaxConnsPerHost     = 4
	defaultIdleConnTimeout     = 90 * time.Second
)

// defaultConnTimeout bounds connection setup when llm.conn_timeout is unset.
const defaultConnTimeout = 30 * time.Second

// NewPooledTransport creates an http.Transport from the model backend config.
// Zero pool and dial settings take the package defaults. A zero respTimeout
// leaves ResponseHeaderTimeout unset, so a slow generation is never cut off.
func NewPooledTransport(connTimeout, respTimeout time.Duration, pool config.PoolConfig) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   positiveOr(connTimeout, defaultConnTimeout),
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: max(respTimeout, 0),
		MaxIdleConns:          positiveOr(pool.MaxIdleConns, defaultMaxIdleConns),
		MaxIdleConnsPerHost:   positiveOr(pool.MaxIdleConnsPerHost, defaultMaxIdleConnsPerHost),
		MaxConnsPerHost:       positiveOr(pool.MaxConnsPerHost, defaultMaxConnsPerHost),
		IdleConnTimeout:       positiveOr(pool.IdleConnTimeout, defaultIdleConnTimeout),
		ForceAttemptHTTP2:     true,
	}
}

// positiveOr returns v, or def when v is zero or negative.
func positiveOr[T ~int | ~uint32 | ~int64](v, def T) T {
	if v > 0 {
		return v
	}
	return def
}

// NewHTTPClient creates an *http.Client with the pooled transport. The client
// has no overall deadline beyond the per-phase transport timeouts.
func NewHTTPClient(cfg config.LLMConfig) *http.Client {
	return &http.Client{
		Transport: NewPooledTransport(cfg.ConnTimeout, cfg.RespTimeout, cfg.Pool),
	}
}
