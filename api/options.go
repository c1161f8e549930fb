package api

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

const (
	DefaultBaseURL         = "https://api.onecontext.ai/v1"
	DefaultTimeout         = 60 * time.Second
	DefaultDownloadTimeout = 10 * time.Second
	DefaultUserAgent       = "onecontext-go"

	EnvBaseURL = "ONECONTEXT_BASE_URL"
	EnvAPIKey  = "ONECONTEXT_API_KEY"
)

type options struct {
	baseURL         string
	apiKey          string
	userAgent       string
	timeout         time.Duration
	downloadTimeout time.Duration
	httpClient      *http.Client
	downloadClient  *http.Client
	logger          *slog.Logger
}

// Option defines a function type for configuring the client.
type Option func(*options)

func defaultOptions() *options {
	baseURL := os.Getenv(EnvBaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &options{
		baseURL:         baseURL,
		apiKey:          os.Getenv(EnvAPIKey),
		userAgent:       DefaultUserAgent,
		timeout:         DefaultTimeout,
		downloadTimeout: DefaultDownloadTimeout,
		logger:          slog.Default(),
	}
}

// WithBaseURL overrides the service address.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		if baseURL != "" {
			o.baseURL = baseURL
		}
	}
}

// WithAPIKey sets the key sent as a bearer token on every service request.
func WithAPIKey(apiKey string) Option {
	return func(o *options) {
		o.apiKey = apiKey
	}
}

func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		if userAgent != "" {
			o.userAgent = userAgent
		}
	}
}

// WithTimeout sets the timeout of the default service HTTP client.
// It has no effect when WithHTTPClient is used.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithDownloadTimeout bounds raw file downloads.
// It has no effect when WithDownloadClient is used.
func WithDownloadTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.downloadTimeout = timeout
		}
	}
}

// WithHTTPClient allows providing a custom http.Client for service requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithDownloadClient allows providing a custom http.Client for raw downloads.
func WithDownloadClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.downloadClient = client
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
