package otel

import (
	"crypto/tls"
	"net/http/httptrace"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/parsem/go-client/pkg/client/trace"
)

// Connection telemetry, spans for the phases of one HTTP request.
const (
	httpDNSSpanName          = httpSpanPrefix + "dns"
	httpGetConnSpanName      = httpSpanPrefix + "getconn"
	httpConnectSpanName      = httpSpanPrefix + "connect"
	httpTLSHandshakeSpanName = httpSpanPrefix + "tls"
	httpHeadersSpanName      = httpSpanPrefix + "headers"
	httpSendSpanName         = httpSpanPrefix + "send"
	httpReceiveSpanName      = httpSpanPrefix + "receive"

	attrDNSAddresses           = attribute.Key("http.dns.addrs")
	attrRemoteAddr             = attribute.Key("http.remote")
	attrLocalAddr              = attribute.Key("http.local")
	attrConnectionReused       = attribute.Key("http.conn.reused")
	attrConnectionWasIdle      = attribute.Key("http.conn.wasidle")
	attrConnectionIdleTime     = attribute.Key("http.conn.idletime")
	attrConnectionStartNetwork = attribute.Key("http.conn.start.network")
	attrConnectionDoneNetwork  = attribute.Key("http.conn.done.network")
	attrConnectionDoneAddr     = attribute.Key("http.conn.done.addr")
)

// connectionSpans tracks the open spans of the httptrace hooks.
// The [otelhttptrace] package is not used, it does not end the spans:
// https://github.com/open-telemetry/opentelemetry-go-contrib/issues/399
//
// [otelhttptrace]: https://pkg.go.dev/go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace
type connectionSpans struct {
	dns     otelTrace.Span
	getConn otelTrace.Span
	connect otelTrace.Span
	tls     otelTrace.Span
	headers otelTrace.Span
	send    otelTrace.Span
}

// registerConnectionHooks wires the httptrace hooks of the ClientTrace.
// The spans are parented to the current http.request span.
func (tm *telemetry) registerConnectionHooks(tc *trace.ClientTrace) {
	tc.DNSStart = tm.dnsStart
	tc.DNSDone = tm.dnsDone
	tc.GetConn = tm.getConn
	tc.GotConn = tm.gotConn
	tc.ConnectStart = tm.connectStart
	tc.ConnectDone = tm.connectDone
	tc.TLSHandshakeStart = tm.tlsHandshakeStart
	tc.TLSHandshakeDone = tm.tlsHandshakeDone
	tc.WroteHeaderField = tm.wroteHeaderField
	tc.WroteHeaders = tm.wroteHeaders
	tc.WroteRequest = tm.wroteRequest
	tc.GotFirstResponseByte = tm.gotFirstResponseByte
}

func (tm *telemetry) dnsStart(info httptrace.DNSStartInfo) {
	_, tm.conn.dns = tm.tracer.Start(
		tm.httpCtx,
		httpDNSSpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(semconv.NetHostName(info.Host)),
	)
}

func (tm *telemetry) dnsDone(info httptrace.DNSDoneInfo) {
	if tm.conn.dns == nil {
		return
	}
	var addrs []string
	for _, netAddr := range info.Addrs {
		addrs = append(addrs, netAddr.String())
	}
	tm.conn.dns.SetAttributes(attrDNSAddresses.String(strings.Join(addrs, ";")))
	if info.Err != nil {
		tm.conn.dns.RecordError(info.Err)
		tm.conn.dns.SetStatus(codes.Error, info.Err.Error())
	}
	tm.conn.dns.End()
	tm.conn.dns = nil
}

func (tm *telemetry) getConn(host string) {
	_, tm.conn.getConn = tm.tracer.Start(
		tm.httpCtx,
		httpGetConnSpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(semconv.NetHostName(host)),
	)
}

func (tm *telemetry) gotConn(info httptrace.GotConnInfo) {
	if tm.conn.getConn == nil {
		return
	}
	tm.conn.getConn.SetAttributes(
		attrRemoteAddr.String(info.Conn.RemoteAddr().String()),
		attrLocalAddr.String(info.Conn.LocalAddr().String()),
		attrConnectionReused.Bool(info.Reused),
		attrConnectionWasIdle.Bool(info.WasIdle),
	)
	if info.WasIdle {
		tm.conn.getConn.SetAttributes(attrConnectionIdleTime.String(info.IdleTime.String()))
	}
	tm.conn.getConn.End()
	tm.conn.getConn = nil
}

func (tm *telemetry) connectStart(network, addr string) {
	_, tm.conn.connect = tm.tracer.Start(
		tm.httpCtx,
		httpConnectSpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(
			attrRemoteAddr.String(addr),
			attrConnectionStartNetwork.String(network),
		),
	)
}

func (tm *telemetry) connectDone(network, addr string, err error) {
	if tm.conn.connect == nil {
		return
	}
	tm.conn.connect.SetAttributes(
		attrConnectionDoneAddr.String(addr),
		attrConnectionDoneNetwork.String(network),
	)
	if err != nil {
		tm.conn.connect.RecordError(err)
		tm.conn.connect.SetStatus(codes.Error, err.Error())
	}
	tm.conn.connect.End()
	tm.conn.connect = nil
}

// tlsHandshakeStart is not invoked if the http2.Transport is used directly,
// without an upgrade from the http.Transport.
func (tm *telemetry) tlsHandshakeStart() {
	_, tm.conn.tls = tm.tracer.Start(
		tm.httpCtx,
		httpTLSHandshakeSpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
	)
}

func (tm *telemetry) tlsHandshakeDone(_ tls.ConnectionState, err error) {
	if tm.conn.tls == nil {
		return
	}
	if err != nil {
		tm.conn.tls.RecordError(err)
		tm.conn.tls.SetStatus(codes.Error, err.Error())
	}
	tm.conn.tls.End()
	tm.conn.tls = nil
}

func (tm *telemetry) wroteHeaderField(_ string, _ []string) {
	// The span covers all header fields, it starts at the first one
	if tm.conn.headers == nil {
		_, tm.conn.headers = tm.tracer.Start(
			tm.httpCtx,
			httpHeadersSpanName,
			otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		)
	}
}

func (tm *telemetry) wroteHeaders() {
	if tm.conn.headers != nil {
		tm.conn.headers.End()
		tm.conn.headers = nil
	}
	_, tm.conn.send = tm.tracer.Start(
		tm.httpCtx,
		httpSendSpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
	)
}

func (tm *telemetry) wroteRequest(info httptrace.WroteRequestInfo) {
	if tm.conn.send == nil {
		return
	}
	if info.Err != nil {
		tm.conn.send.RecordError(info.Err)
		tm.conn.send.SetStatus(codes.Error, info.Err.Error())
	}
	tm.conn.send.End()
	tm.conn.send = nil
}

func (tm *telemetry) gotFirstResponseByte() {
	_, tm.receiveSpan = tm.tracer.Start(
		tm.httpCtx,
		httpReceiveSpanName,
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
	)
}
