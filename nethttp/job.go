// Package nethttp implements HTTP load producer with net/http.
package nethttp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vearutop/dperf/loadgen"
	"github.com/vearutop/dperf/report"
	"github.com/vearutop/dynhist-go"
)

// JobProducer sends queries as HTTP POST requests.
type JobProducer struct {
	dnsHist  *dynhist.Collector
	connHist *dynhist.Collector
	tlsHist  *dynhist.Collector

	mu       sync.Mutex
	respCode map[int]int
	respBody map[int]string

	bytesWritten int64
	bytesRead    int64

	f Flags

	tr http.RoundTripper
}

// RequestCounts returns distribution by status code.
func (j *JobProducer) RequestCounts() map[string]int {
	j.mu.Lock()
	defer j.mu.Unlock()

	res := make(map[string]int, len(j.respCode))
	for code, cnt := range j.respCode {
		res[strconv.Itoa(code)] = cnt
	}

	return res
}

type countingConn struct {
	j *JobProducer
	net.Conn
}

// Read reads data from the connection.
func (c countingConn) Read(b []byte) (n int, err error) {
	n, err = c.Conn.Read(b)
	atomic.AddInt64(&c.j.bytesRead, int64(n))

	return n, err
}

// Write writes data to the connection.
func (c countingConn) Write(b []byte) (n int, err error) {
	n, err = c.Conn.Write(b)
	atomic.AddInt64(&c.j.bytesWritten, int64(n))

	return n, err
}

func (j *JobProducer) makeTransport(maxIdle int) *http.Transport {
	d := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	t := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   maxIdle,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableCompression:    true,
		DisableKeepAlives:     j.f.NoKeepalive,
		ForceAttemptHTTP2:     true,
	}

	t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		c, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return c, err
		}

		return countingConn{
			j:    j,
			Conn: c,
		}, nil
	}

	return t
}

// NewJobProducer creates HTTP load generator.
func NewJobProducer(f Flags, lf loadgen.Flags) (*JobProducer, error) {
	u, err := url.Parse(f.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	if f.HTTP3 && u.Scheme != "https" {
		return nil, errors.New("HTTP/3 requires https URL")
	}

	j := JobProducer{}

	concurrencyLimit := int(lf.Threads) // Number of simultaneous jobs.
	if concurrencyLimit <= 0 {
		concurrencyLimit = 16
	}

	if f.HTTP3 {
		j.tr = j.makeTransport3()
	} else {
		j.tr = j.makeTransport(concurrencyLimit)
	}

	j.dnsHist = &dynhist.Collector{BucketsLimit: 10, WeightFunc: dynhist.LatencyWidth}
	j.connHist = &dynhist.Collector{BucketsLimit: 10, WeightFunc: dynhist.LatencyWidth}
	j.tlsHist = &dynhist.Collector{BucketsLimit: 10, WeightFunc: dynhist.LatencyWidth}
	j.respCode = make(map[int]int, 5)
	j.respBody = make(map[int]string, 5)

	headers := make(map[string]string, len(f.HeaderMap)+2)
	for k, v := range f.HeaderMap {
		headers[k] = v
	}

	if f.ContentType != "" {
		headers["Content-Type"] = f.ContentType
	}

	if _, ok := headers["User-Agent"]; !ok {
		headers["User-Agent"] = "dperf"
	}

	f.HeaderMap = headers
	j.f = f

	return &j, nil
}

// Print prints transport stats.
func (j *JobProducer) Print(w io.Writer) {
	if j.dnsHist.Count > 0 {
		_, _ = fmt.Fprintln(w, "DNS latency distribution in ms:")
		_, _ = fmt.Fprintln(w, j.dnsHist.String())
	}

	if j.tlsHist.Count > 0 {
		_, _ = fmt.Fprintln(w, "TLS handshake latency distribution in ms:")
		_, _ = fmt.Fprintln(w, j.tlsHist.String())
	}

	if j.connHist.Count > 0 {
		_, _ = fmt.Fprintln(w, "Connection latency distribution in ms:")
		_, _ = fmt.Fprintln(w, j.connHist.String())
	}

	j.mu.Lock()
	codes := make([]int, 0, len(j.respCode))

	for code := range j.respCode {
		codes = append(codes, code)
	}

	sort.Ints(codes)

	counts := ""
	resps := ""

	for _, code := range codes {
		counts += fmt.Sprintf("[%d] %d\n", code, j.respCode[code])
		resps += fmt.Sprintf("[%d]\n%s\n", code, j.respBody[code])
	}
	j.mu.Unlock()

	if counts == "" {
		return
	}

	_, _ = fmt.Fprintln(w, "Responses by status code")
	_, _ = fmt.Fprintln(w, counts)

	_, _ = fmt.Fprintln(w, "Bytes read", report.ByteSize(atomic.LoadInt64(&j.bytesRead)))
	_, _ = fmt.Fprintln(w, "Bytes written", report.ByteSize(atomic.LoadInt64(&j.bytesWritten)))

	_, _ = fmt.Fprintln(w, resps)
}

// Job posts a single query and returns response body.
func (j *JobProducer) Job(ctx context.Context, _ int, query string) (string, error) {
	var dnsStart, connStart, tlsStart time.Time

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.f.URL, strings.NewReader(query))
	if err != nil {
		return "", err
	}

	for k, v := range j.f.HeaderMap {
		req.Header.Set(k, v)
	}

	trace := &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) {
			dnsStart = time.Now()
		},
		DNSDone: func(httptrace.DNSDoneInfo) {
			j.dnsHist.Add(1000 * time.Since(dnsStart).Seconds())
		},

		ConnectStart: func(_, _ string) {
			connStart = time.Now()
		},
		ConnectDone: func(_, _ string, _ error) {
			j.connHist.Add(1000 * time.Since(connStart).Seconds())
		},

		TLSHandshakeStart: func() {
			tlsStart = time.Now()
		},
		TLSHandshakeDone: func(tls.ConnectionState, error) {
			j.tlsHist.Add(1000 * time.Since(tlsStart).Seconds())
		},
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	resp, err := j.tr.RoundTrip(req)
	if err != nil {
		return "", loadgen.TransportError{Err: err}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", loadgen.TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	j.mu.Lock()
	j.respCode[resp.StatusCode]++

	if j.respCode[resp.StatusCode] == 1 {
		j.respBody[resp.StatusCode] = report.PeekBody(string(body), 1000)
	}
	j.mu.Unlock()

	return string(body), nil
}
