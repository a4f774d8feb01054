// Package otel provides OpenTelemetry tracing and metrics for requests sent by the client.Client.
//
// Each request produces:
//   - Span "emaildirect.go.client.request", it covers the whole call, reading of the body included.
//   - Child span "http.request" for the single round trip, redirects are not followed by the client.
//   - Phase spans "http.dns", "http.getconn", "http.connect", "http.tls", "http.send" and "http.receive",
//     children of "http.request", created from the native httptrace hooks. Mocked transports do not create them.
//   - Metrics prefixed by "emaildirect.go.client." and "emaildirect.go.http.", see meters.go.
//
// Values of the sensitive headers, for example "ApiKey", are masked, see WithRedactedHeaders.
package otel

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelMetric "go.opentelemetry.io/otel/metric"
	metricNoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	otelTrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/criticaltool/emaildirect-go-client/pkg/client/trace"
)

const (
	instrumentationName = "github.com/criticaltool/emaildirect-go-client"
	clientRequestSpan   = "emaildirect.go.client.request"
	httpRequestSpan     = "http.request"
	dnsPhase            = "http.dns"
	getConnPhase        = "http.getconn"
	connectPhase        = "http.connect"
	tlsPhase            = "http.tls"
	sendPhase           = "http.send"
	receivePhase        = "http.receive"
)

const (
	attrResourceName      = attribute.Key("resource.name")
	attrDNSAddresses      = attribute.Key("http.dns.addrs")
	attrRemoteAddr        = attribute.Key("http.remote")
	attrLocalAddr         = attribute.Key("http.local")
	attrConnectionReused  = attribute.Key("http.conn.reused")
	attrConnectionWasIdle = attribute.Key("http.conn.wasidle")
	attrConnectionNetwork = attribute.Key("http.conn.network")
	attrBodySize          = attribute.Key("http.response.body_size")
)

// NewTrace creates a trace.Factory, it can be registered by the client.Client.AndTrace method.
// Nil providers are replaced by no-op implementations.
func NewTrace(tracerProvider otelTrace.TracerProvider, meterProvider otelMetric.MeterProvider, opts ...Option) trace.Factory {
	cfg := newConfig(opts)
	if tracerProvider == nil {
		tracerProvider = noop.NewTracerProvider()
	}
	if meterProvider == nil {
		meterProvider = metricNoop.NewMeterProvider()
	}
	tracer := tracerProvider.Tracer(instrumentationName)
	meters := newMeters(meterProvider.Meter(instrumentationName))

	return func(ctx context.Context, method string, reqURL *url.URL) (context.Context, *trace.ClientTrace) {
		rt := &requestTrace{
			cfg:    cfg,
			tracer: tracer,
			meters: meters,
			attrs:  newAttributes(cfg, method, reqURL),
			phases: make(map[string]otelTrace.Span),
		}
		return rt.start(ctx, reqURL), rt.hooks()
	}
}

// requestTrace holds the telemetry state of one client.Client.Send call.
type requestTrace struct {
	cfg    config
	tracer otelTrace.Tracer
	meters *allMeters
	attrs  *attributes

	rootCtx   context.Context
	rootSpan  otelTrace.Span
	startTime time.Time

	httpCtx   context.Context
	httpSpan  otelTrace.Span
	httpStart time.Time

	// phases are the open low-level spans by name, dial hooks may run concurrently
	lock   sync.Mutex
	phases map[string]otelTrace.Span
}

func (rt *requestTrace) hooks() *trace.ClientTrace {
	tc := &trace.ClientTrace{}
	tc.HTTPRequestStart = rt.httpRequestStart
	tc.HTTPRequestDone = rt.httpRequestDone
	tc.RequestProcessed = rt.requestProcessed
	tc.DNSStart = func(info httptrace.DNSStartInfo) {
		rt.startPhase(dnsPhase, semconv.NetHostName(info.Host))
	}
	tc.DNSDone = func(info httptrace.DNSDoneInfo) {
		addrs := make([]string, 0, len(info.Addrs))
		for _, addr := range info.Addrs {
			addrs = append(addrs, addr.String())
		}
		rt.endPhase(dnsPhase, info.Err, attrDNSAddresses.String(strings.Join(addrs, ";")))
	}
	tc.GetConn = func(host string) {
		rt.startPhase(getConnPhase, semconv.NetHostName(host))
	}
	tc.GotConn = func(info httptrace.GotConnInfo) {
		rt.endPhase(getConnPhase, nil,
			attrRemoteAddr.String(info.Conn.RemoteAddr().String()),
			attrLocalAddr.String(info.Conn.LocalAddr().String()),
			attrConnectionReused.Bool(info.Reused),
			attrConnectionWasIdle.Bool(info.WasIdle),
		)
	}
	tc.ConnectStart = func(network, addr string) {
		rt.startPhase(connectPhase+" "+addr, attrRemoteAddr.String(addr), attrConnectionNetwork.String(network))
	}
	tc.ConnectDone = func(_, addr string, err error) {
		rt.endPhase(connectPhase+" "+addr, err)
	}
	tc.TLSHandshakeStart = func() {
		rt.startPhase(tlsPhase)
	}
	tc.TLSHandshakeDone = func(_ tls.ConnectionState, err error) {
		rt.endPhase(tlsPhase, err)
	}
	tc.WroteHeaderField = func(string, []string) {
		rt.startPhase(sendPhase) // first header starts the phase
	}
	tc.WroteRequest = func(info httptrace.WroteRequestInfo) {
		rt.endPhase(sendPhase, info.Err)
	}
	tc.GotFirstResponseByte = func() {
		rt.startPhase(receivePhase)
	}
	return tc
}

// start opens the root span, it is ended by requestProcessed.
func (rt *requestTrace) start(ctx context.Context, reqURL *url.URL) context.Context {
	rt.startTime = time.Now()
	rt.meters.client.inFlight.Add(ctx, 1, otelMetric.WithAttributes(rt.attrs.definition...))
	rt.rootCtx, rt.rootSpan = rt.tracer.Start(
		ctx,
		clientRequestSpan,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(attrResourceName.String(reqURL.Path)),
		otelTrace.WithAttributes(rt.attrs.definition...),
	)
	return rt.rootCtx
}

func (rt *requestTrace) requestProcessed(res *http.Response, body []byte, err error) {
	elapsed := sinceMs(rt.startTime)
	meterAttrs := append(append([]attribute.KeyValue{}, rt.attrs.definition...), rt.attrs.httpResponse...)

	// Up/down counter must use the same attributes as in start
	rt.meters.client.inFlight.Add(rt.rootCtx, -1, otelMetric.WithAttributes(rt.attrs.definition...))
	rt.meters.client.duration.Record(rt.rootCtx, elapsed, otelMetric.WithAttributes(meterAttrs...))
	rt.meters.client.bodySize.Add(rt.rootCtx, int64(len(body)), otelMetric.WithAttributes(meterAttrs...))

	rt.rootSpan.SetAttributes(rt.attrs.httpResponse...)
	rt.rootSpan.SetAttributes(rt.attrs.httpResponseExtra...)
	rt.rootSpan.SetAttributes(attrBodySize.Int(len(body)))
	if err == nil && res != nil && res.StatusCode >= http.StatusBadRequest {
		rt.rootSpan.SetStatus(codes.Error, statusError(res).Error())
		err = nil
	}
	endSpan(rt.rootSpan, err)
}

func (rt *requestTrace) httpRequestStart(req *http.Request) {
	rt.httpStart = time.Now()
	rt.httpCtx, rt.httpSpan = rt.tracer.Start(
		rt.rootCtx,
		httpRequestSpan,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(attrResourceName.String(req.URL.Path)),
	)

	if rt.cfg.propagators != nil {
		rt.cfg.propagators.Inject(rt.httpCtx, propagation.HeaderCarrier(req.Header))
	}

	rt.attrs.SetFromRequest(req)
	rt.meters.http.inFlight.Add(rt.rootCtx, 1, otelMetric.WithAttributes(rt.attrs.httpRequest...))
	rt.httpSpan.SetAttributes(rt.attrs.httpRequest...)
	rt.httpSpan.SetAttributes(rt.attrs.httpRequestExtra...)
}

func (rt *requestTrace) httpRequestDone(res *http.Response, err error) {
	rt.attrs.SetFromResponse(res)
	rt.endPhase(receivePhase, nil)

	// Up/down counter must use the same attributes as in httpRequestStart
	rt.meters.http.inFlight.Add(rt.rootCtx, -1, otelMetric.WithAttributes(rt.attrs.httpRequest...))
	rt.meters.http.duration.Record(
		rt.rootCtx,
		sinceMs(rt.httpStart),
		otelMetric.WithAttributes(rt.attrs.httpRequest...),
		otelMetric.WithAttributes(rt.attrs.httpResponse...),
	)

	if rt.httpSpan == nil {
		return
	}
	rt.httpSpan.SetAttributes(rt.attrs.httpResponse...)
	rt.httpSpan.SetAttributes(rt.attrs.httpResponseExtra...)
	if err == nil && res != nil && res.StatusCode >= http.StatusBadRequest {
		err = statusError(res)
	}
	endSpan(rt.httpSpan, err)
	rt.httpSpan = nil
}

func (rt *requestTrace) startPhase(name string, attrs ...attribute.KeyValue) {
	rt.lock.Lock()
	defer rt.lock.Unlock()
	if rt.httpCtx == nil {
		return
	}
	if _, open := rt.phases[name]; open {
		return
	}
	spanName, _, _ := strings.Cut(name, " ")
	_, rt.phases[name] = rt.tracer.Start(
		rt.httpCtx,
		spanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(attrs...),
	)
}

func (rt *requestTrace) endPhase(name string, err error, attrs ...attribute.KeyValue) {
	rt.lock.Lock()
	span, open := rt.phases[name]
	delete(rt.phases, name)
	rt.lock.Unlock()
	if open {
		span.SetAttributes(attrs...)
		endSpan(span, err)
	}
}

func endSpan(span otelTrace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func sinceMs(t time.Time) float64 {
	return float64(time.Since(t)) / float64(time.Millisecond)
}

func statusError(res *http.Response) error {
	return fmt.Errorf(`HTTP status code: %d %s`, res.StatusCode, http.StatusText(res.StatusCode))
}
