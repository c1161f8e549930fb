package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const maxErrorBodySize = 64 << 10

// Client talks to the knowledge base service over HTTP. It holds
// configuration only and is safe for concurrent use.
type Client struct {
	urls           URLs
	apiKey         string
	userAgent      string
	httpClient     *http.Client
	downloadClient *http.Client
	logger         *slog.Logger
}

var _ Transport = (*Client)(nil)

var jsonBufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// pooledBody is a request body backed by a pooled buffer. The buffer goes
// back to the pool on the first Close only.
type pooledBody struct {
	*bytes.Buffer
	once sync.Once
}

func (b *pooledBody) Close() error {
	b.once.Do(func() {
		jsonBufferPool.Put(b.Buffer)
	})
	return nil
}

// NewClient creates a client. Without options the base URL and API key are
// read from ONECONTEXT_BASE_URL and ONECONTEXT_API_KEY.
func NewClient(opts ...Option) (*Client, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	urls, err := NewURLs(options.baseURL)
	if err != nil {
		return nil, err
	}

	httpClient := options.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: options.timeout,
			Transport: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				MaxIdleConns:      100,
				IdleConnTimeout:   90 * time.Second,
				MaxConnsPerHost:   100,
				ForceAttemptHTTP2: true,
			},
		}
	}

	downloadClient := options.downloadClient
	if downloadClient == nil {
		downloadClient = &http.Client{Timeout: options.downloadTimeout}
	}

	return &Client{
		urls:           urls,
		apiKey:         options.apiKey,
		userAgent:      options.userAgent,
		httpClient:     httpClient,
		downloadClient: downloadClient,
		logger:         options.logger.With("component", "onecontext_api"),
	}, nil
}

// URLs returns the endpoint builder rooted at the client's base URL.
func (c *Client) URLs() URLs {
	return c.urls
}

// HTTPClient returns the client used for service requests.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

func (c *Client) Get(ctx context.Context, endpoint string, out any) error {
	return c.doRequest(ctx, "get", http.MethodGet, endpoint, nil, out)
}

func (c *Client) Post(ctx context.Context, endpoint string, in, out any) error {
	return c.doRequest(ctx, "post", http.MethodPost, endpoint, in, out)
}

func (c *Client) Delete(ctx context.Context, endpoint string, out any) error {
	return c.doRequest(ctx, "delete", http.MethodDelete, endpoint, nil, out)
}

// PostMultipart streams form as multipart/form-data to endpoint.
func (c *Client) PostMultipart(ctx context.Context, endpoint string, form MultipartForm, out any) error {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(writer, form))
	}()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		pr.Close()
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.Header.Set("Accept", "application/json")
	c.setServiceHeaders(request)

	return c.send(request, "upload", out)
}

// Download fetches rawURL with the download client. No service headers are
// attached because download URLs carry their own authorization.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	start := time.Now()
	response, err := c.downloadClient.Do(request)
	if err != nil {
		return 0, &Error{Op: "download", Method: http.MethodGet, URL: redactURL(request.URL), Err: err}
	}
	defer response.Body.Close()

	if err := c.checkError("download", request, response); err != nil {
		return 0, err
	}

	n, err := io.Copy(w, response.Body)
	if err != nil {
		return n, &Error{Op: "download", Method: http.MethodGet, URL: redactURL(request.URL), Err: err}
	}

	c.logger.Debug("download completed",
		"url", redactURL(request.URL),
		"bytes", n,
		"duration", time.Since(start),
	)
	return n, nil
}

func (c *Client) doRequest(ctx context.Context, op, method, endpoint string, reqData, respData any) error {
	// The transport closes the body once it is done with it.
	var reqBody io.ReadCloser
	if reqData != nil {
		body, err := c.prepareRequestBody(reqData)
		if err != nil {
			return err
		}
		reqBody = body
	}

	request, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		if reqBody != nil {
			_ = reqBody.Close()
		}
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	if reqBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/json")
	c.setServiceHeaders(request)

	return c.send(request, op, respData)
}

func (c *Client) send(request *http.Request, op string, respData any) error {
	start := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		return &Error{Op: op, Method: request.Method, URL: redactURL(request.URL), Err: err}
	}
	defer response.Body.Close()

	c.logger.Debug("request completed",
		"method", request.Method,
		"url", redactURL(request.URL),
		"status", response.StatusCode,
		"request_id", request.Header.Get("X-Request-Id"),
		"duration", time.Since(start),
	)

	if err := c.checkError(op, request, response); err != nil {
		return err
	}

	if respData == nil {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(respData); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) prepareRequestBody(reqData any) (io.ReadCloser, error) {
	buf, ok := jsonBufferPool.Get().(*bytes.Buffer)
	if !ok {
		return nil, errors.New("failed get data from buffer")
	}
	buf.Reset()

	if err := json.NewEncoder(buf).Encode(reqData); err != nil {
		jsonBufferPool.Put(buf)
		return nil, fmt.Errorf("failed to encode request data: %w", err)
	}

	return &pooledBody{Buffer: buf}, nil
}

func (c *Client) setServiceHeaders(request *http.Request) {
	request.Header.Set("User-Agent", c.userAgent)
	request.Header.Set("X-Request-Id", uuid.NewString())
	if c.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) checkError(op string, request *http.Request, response *http.Response) error {
	if response.StatusCode >= http.StatusOK && response.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodySize))
	apiErr := &Error{
		Op:         op,
		Method:     request.Method,
		URL:        redactURL(request.URL),
		StatusCode: response.StatusCode,
		Message:    errorMessage(body),
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(response.StatusCode)
	}

	c.logger.Debug("request failed", "op", op, "status", response.StatusCode, "message", apiErr.Message)
	return apiErr
}

// errorMessage extracts a message from the common JSON error shapes
// ({"detail": ...}, {"error": ...}, {"message": ...}) or returns the raw body.
func errorMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return string(body)
	}
	for _, key := range []string{"detail", "error", "message"} {
		switch v := payload[key].(type) {
		case string:
			return v
		case nil:
			continue
		default:
			if encoded, err := json.Marshal(v); err == nil {
				return string(encoded)
			}
		}
	}
	return string(body)
}

func writeMultipart(writer *multipart.Writer, form MultipartForm) error {
	keys := make([]string, 0, len(form.Fields))
	for key := range form.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := writer.WriteField(key, form.Fields[key]); err != nil {
			return fmt.Errorf("failed to write form field %q: %w", key, err)
		}
	}

	for _, file := range form.Files {
		part, err := writer.CreateFormFile(file.FieldName, file.FileName)
		if err != nil {
			return fmt.Errorf("failed to create form file %q: %w", file.FileName, err)
		}
		if _, err := io.Copy(part, file.Reader); err != nil {
			return fmt.Errorf("failed to copy form file %q: %w", file.FileName, err)
		}
	}

	return writer.Close()
}

// redactURL drops query and credentials so presigned URLs are never logged.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	redacted := *u
	redacted.User = nil
	redacted.RawQuery = ""
	redacted.Fragment = ""
	return strings.TrimSuffix(redacted.String(), "?")
}
