package client

import (
	"crypto/tls"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"

	"github.com/criticaltool/emaildirect-go-client/pkg/client/trace"
)

// Metadata describes a completed or failed exchange.
// Durations are measured from the start of the request, the same way as curl does it.
type Metadata struct {
	Method string
	URL string
	// StatusCode is 0, if no response has been received.
	StatusCode    int
	ContentType   string
	Header        http.Header
	RequestSize   int64
	ResponseSize  int64
	// RedirectURL is the Location of a 3xx response, redirects are not followed.
	RedirectURL string

	NameLookupTime    time.Duration
	ConnectTime       time.Duration
	TLSHandshakeTime  time.Duration
	StartTransferTime time.Duration
	TotalTime         time.Duration

	// Error is the transport error message, if any.
	Error string
}

// ToMap converts the metadata to a map with the well-known curl "getinfo" keys.
// Times are in seconds.
func (m Metadata) ToMap() map[string]any {
	return map[string]any{
		"url":                m.URL,
		"content_type":       m.ContentType,
		"http_code":          m.StatusCode,
		"size_upload":        m.RequestSize,
		"size_download":      m.ResponseSize,
		"redirect_url":       m.RedirectURL,
		"namelookup_time":    m.NameLookupTime.Seconds(),
		"connect_time":       m.ConnectTime.Seconds(),
		"appconnect_time":    m.TLSHandshakeTime.Seconds(),
		"starttransfer_time": m.StartTransferTime.Seconds(),
		"total_time":         m.TotalTime.Seconds(),
	}
}

// Succeeded returns true if a response has been received and there was no error.
func (m Metadata) Succeeded() bool {
	return m.StatusCode != 0 && m.Error == ""
}

// collector fills Metadata from the trace hooks.
// Low level hooks may be called from other goroutines, so access is guarded by the lock.
type collector struct {
	lock      sync.Mutex
	metadata  *Metadata
	startedAt time.Time
}

func newCollector(metadata *Metadata) *collector {
	return &collector{metadata: metadata}
}

func (c *collector) start(startedAt time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.startedAt = startedAt
}

func (c *collector) since() time.Duration {
	if c.startedAt.IsZero() {
		return 0
	}
	return time.Since(c.startedAt)
}

func (c *collector) trace() *trace.ClientTrace {
	t := &trace.ClientTrace{}
	t.DNSDone = func(httptrace.DNSDoneInfo) {
		c.lock.Lock()
		defer c.lock.Unlock()
		c.metadata.NameLookupTime = c.since()
	}
	t.ConnectDone = func(_, _ string, err error) {
		c.lock.Lock()
		defer c.lock.Unlock()
		if err == nil {
			c.metadata.ConnectTime = c.since()
		}
	}
	t.TLSHandshakeDone = func(_ tls.ConnectionState, err error) {
		c.lock.Lock()
		defer c.lock.Unlock()
		if err == nil {
			c.metadata.TLSHandshakeTime = c.since()
		}
	}
	t.GotFirstResponseByte = func() {
		c.lock.Lock()
		defer c.lock.Unlock()
		c.metadata.StartTransferTime = c.since()
	}
	t.HTTPRequestStart = func(req *http.Request) {
		c.lock.Lock()
		defer c.lock.Unlock()
		c.metadata.URL = req.URL.String()
	}
	t.HTTPRequestDone = func(res *http.Response, err error) {
		c.lock.Lock()
		defer c.lock.Unlock()
		if err != nil || res == nil {
			return
		}
		c.metadata.StatusCode = res.StatusCode
		c.metadata.ContentType = res.Header.Get("Content-Type")
		c.metadata.Header = res.Header.Clone()
		if res.StatusCode >= 300 && res.StatusCode < 400 {
			c.metadata.RedirectURL = res.Header.Get("Location")
		}
		if c.metadata.StartTransferTime == 0 {
			// Mocked transports do not call low level hooks
			c.metadata.StartTransferTime = c.since()
		}
	}
	return t
}

func (c *collector) done(responseSize int64, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.metadata.ResponseSize = responseSize
	c.metadata.TotalTime = c.since()
	if err != nil {
		c.metadata.Error = err.Error()
	}
}

// snapshot returns a copy of the metadata, it is safe to read it.
func (c *collector) snapshot() Metadata {
	c.lock.Lock()
	defer c.lock.Unlock()
	out := *c.metadata
	out.Header = out.Header.Clone()
	return out
}
