// Package fasthttp implements http load generator with fasthttp transport.
package fasthttp

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/valyala/fasthttp"
	"github.com/vearutop/dperf/loadgen"
	"github.com/vearutop/dperf/nethttp"
	"github.com/vearutop/dperf/report"
)

// JobProducer sends queries as HTTP POST requests.
type JobProducer struct {
	bytesWritten int64
	bytesRead    int64

	mu       sync.Mutex
	respCode map[int]int
	respBody map[int]string

	f      nethttp.Flags
	client *fasthttp.Client
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

// NewJobProducer creates load generator.
func NewJobProducer(f nethttp.Flags, lf loadgen.Flags) (*JobProducer, error) {
	u, err := url.Parse(f.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	j := JobProducer{}

	j.respCode = make(map[int]int, 5)
	j.respBody = make(map[int]string, 5)
	j.f = f

	j.client = &fasthttp.Client{
		MaxConnsPerHost: max(int(lf.Threads), 1),
	}
	j.client.Dial = func(addr string) (net.Conn, error) {
		c, err := fasthttp.Dial(addr)
		if err != nil {
			return c, err
		}

		return countingConn{
			j:    &j,
			Conn: c,
		}, nil
	}

	if _, ok := f.HeaderMap["User-Agent"]; !ok {
		j.client.Name = "dperf"
	}

	return &j, nil
}

// Print reports results.
func (j *JobProducer) Print(w io.Writer) {
	j.mu.Lock()
	defer j.mu.Unlock()

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
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()

	req.SetBodyString(query)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(j.f.URL)

	for k, v := range j.f.HeaderMap {
		req.Header.Set(k, v)
	}

	if j.f.ContentType != "" {
		req.Header.SetContentType(j.f.ContentType)
	}

	if j.f.NoKeepalive {
		req.SetConnectionClose()
	}

	if err := j.do(ctx, req, resp); err != nil {
		return "", loadgen.TransportError{Err: err}
	}

	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	// Body is only valid until response is released.
	body := string(resp.Body())

	j.mu.Lock()
	j.respCode[resp.StatusCode()]++

	if j.respCode[resp.StatusCode()] == 1 {
		j.respBody[resp.StatusCode()] = report.PeekBody(body, 1000)
	}
	j.mu.Unlock()

	return body, nil
}

// do performs request until ctx is done.
//
// fasthttp client has no context support, so an abandoned call keeps running in background
// and releases req and resp when it finishes. Both are released here on error.
func (j *JobProducer) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	release := func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}

	if ctx.Done() == nil {
		err := j.client.Do(req, resp)
		if err != nil {
			release()
		}

		return err
	}

	done := make(chan error, 1)

	go func() {
		done <- j.client.Do(req, resp)
	}()

	select {
	case err := <-done:
		if err != nil {
			release()
		}

		return err
	case <-ctx.Done():
		go func() {
			<-done
			release()
		}()

		return ctx.Err()
	}
}
