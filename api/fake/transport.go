package fake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/sevigo/onecontext/api"
)

// Call is one request observed by the fake transport.
type Call struct {
	Method   string
	Endpoint string
	Body     []byte
	Fields   map[string]string
	Files    map[string][]byte
}

// Response is the canned reply for a method and endpoint. Body is encoded
// to JSON and decoded into the caller's output value.
type Response struct {
	Body any
	Err  error
}

// Transport is an in-memory api.Transport for testing purposes.
type Transport struct {
	mu        sync.Mutex
	responses map[string]Response
	downloads map[string][]byte
	calls     []Call
}

var _ api.Transport = (*Transport)(nil)

// NewTransport creates a transport with no canned responses. Unknown
// requests fail with a 404 api.Error.
func NewTransport() *Transport {
	return &Transport{
		responses: make(map[string]Response),
		downloads: make(map[string][]byte),
	}
}

// On registers the reply for method and endpoint.
func (t *Transport) On(method, endpoint string, resp Response) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses[method+" "+endpoint] = resp
}

// OnDownload registers the body served for a download URL.
func (t *Transport) OnDownload(rawURL string, body []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.downloads[rawURL] = body
}

// Calls returns a copy of every call made so far.
func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Call(nil), t.calls...)
}

// CallCount returns how many calls were made with method to endpoint.
func (t *Transport) CallCount(method, endpoint string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	count := 0
	for _, c := range t.calls {
		if c.Method == method && c.Endpoint == endpoint {
			count++
		}
	}
	return count
}

// LastCall returns the most recent call.
func (t *Transport) LastCall() (Call, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.calls) == 0 {
		return Call{}, false
	}
	return t.calls[len(t.calls)-1], true
}

func (t *Transport) Get(_ context.Context, endpoint string, out any) error {
	return t.reply(Call{Method: http.MethodGet, Endpoint: endpoint}, out)
}

func (t *Transport) Post(_ context.Context, endpoint string, in, out any) error {
	call := Call{Method: http.MethodPost, Endpoint: endpoint}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request data: %w", err)
		}
		call.Body = body
	}
	return t.reply(call, out)
}

func (t *Transport) PostMultipart(_ context.Context, endpoint string, form api.MultipartForm, out any) error {
	call := Call{
		Method:   http.MethodPost,
		Endpoint: endpoint,
		Fields:   make(map[string]string, len(form.Fields)),
		Files:    make(map[string][]byte, len(form.Files)),
	}
	for k, v := range form.Fields {
		call.Fields[k] = v
	}
	for _, f := range form.Files {
		data, err := io.ReadAll(f.Reader)
		if err != nil {
			return err
		}
		call.Files[f.FieldName+":"+f.FileName] = data
	}
	return t.reply(call, out)
}

func (t *Transport) Delete(_ context.Context, endpoint string, out any) error {
	return t.reply(Call{Method: http.MethodDelete, Endpoint: endpoint}, out)
}

func (t *Transport) Download(_ context.Context, rawURL string, w io.Writer) (int64, error) {
	t.mu.Lock()
	t.calls = append(t.calls, Call{Method: http.MethodGet, Endpoint: rawURL})
	body, ok := t.downloads[rawURL]
	t.mu.Unlock()

	if !ok {
		return 0, &api.Error{Op: "download", Method: http.MethodGet, URL: rawURL, StatusCode: http.StatusNotFound}
	}
	return io.Copy(w, bytes.NewReader(body))
}

func (t *Transport) reply(call Call, out any) error {
	t.mu.Lock()
	t.calls = append(t.calls, call)
	resp, ok := t.responses[call.Method+" "+call.Endpoint]
	t.mu.Unlock()

	if !ok {
		return &api.Error{Op: "fake", Method: call.Method, URL: call.Endpoint, StatusCode: http.StatusNotFound}
	}
	if resp.Err != nil {
		return resp.Err
	}
	if out == nil || resp.Body == nil {
		return nil
	}

	data, err := json.Marshal(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to encode canned response: %w", err)
	}
	return json.Unmarshal(data, out)
}
