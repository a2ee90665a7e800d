// Package registry is a client for the public Terraform registry API.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/kdpb/inject"
	"github.com/kdpb/inject/internal/common/logging"
	"github.com/kdpb/inject/internal/docproc"
	"github.com/kdpb/inject/internal/docproc/components"
	"github.com/kdpb/inject/internal/docproc/model"
	"github.com/kdpb/inject/internal/docproc/settings"
)

const (
	providerVersionsInclude = "provider-versions"
	providerDocsInclude     = "provider-docs"
)

func init() {
	inject.Register(NewRegistryClient,
		inject.Tags(docproc.Tag),
		inject.Param(0, inject.Ref("settings").Field("Registry")),
		inject.Param(1, inject.Ref(components.LoggerKey)),
	)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("registry: GET %s: status %d", e.URL, e.StatusCode)
}

// RegistryClient fetches provider versions and documentation. Requests go
// through a circuit breaker that opens after MaxFailures consecutive server
// errors.
type RegistryClient struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger
}

// NewRegistryClient creates a client from the registry settings.
func NewRegistryClient(cfg settings.RegistrySettings, logger *logging.Logger) *RegistryClient {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.Named("RegistryClient")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "terraform-registry",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
		IsSuccessful: func(err error) bool {
			var status *StatusError
			if errors.As(err, &status) {
				return status.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
	})

	return &RegistryClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  logger,
	}
}

// State returns the circuit breaker state.
func (c *RegistryClient) State() gobreaker.State {
	return c.breaker.State()
}

type resource struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Version     string `json:"version"`
		PublishedAt string `json:"published-at"`
		Content     string `json:"content"`
	} `json:"attributes"`
}

type document struct {
	Data     resource   `json:"data"`
	Included []resource `json:"included"`
}

// LatestVersion returns the most recently published version of provider.
// ok is false when the registry lists no usable version.
func (c *RegistryClient) LatestVersion(ctx context.Context, provider model.ProviderConfig) (v model.ProviderVersion, ok bool, err error) {
	path := fmt.Sprintf("/v2/providers/%s/%s?include=%s",
		url.PathEscape(provider.Namespace), url.PathEscape(provider.Name), providerVersionsInclude)

	var doc document
	if err := c.get(ctx, path, &doc); err != nil {
		return model.ProviderVersion{}, false, err
	}

	var latest *resource
	for i := range doc.Included {
		r := &doc.Included[i]
		if r.Type != providerVersionsInclude {
			continue
		}
		if latest == nil || publishedAt(r) > publishedAt(latest) {
			latest = r
		}
	}

	if latest == nil || latest.ID == "" || latest.Attributes.Version == "" {
		return model.ProviderVersion{}, false, nil
	}

	return model.ProviderVersion{
		Provider:          provider,
		Version:           latest.Attributes.Version,
		ProviderVersionID: latest.ID,
	}, true, nil
}

// publishedAt returns the RFC 3339 publish time, which sorts lexically.
func publishedAt(r *resource) string {
	return r.Attributes.PublishedAt
}

// ProviderDocs returns the document IDs of a provider version.
func (c *RegistryClient) ProviderDocs(ctx context.Context, providerVersionID string) ([]string, error) {
	path := fmt.Sprintf("/v2/provider-versions/%s?include=%s", url.PathEscape(providerVersionID), providerDocsInclude)

	var doc document
	if err := c.get(ctx, path, &doc); err != nil {
		return nil, err
	}

	var ids []string
	for _, r := range doc.Included {
		if r.Type == providerDocsInclude && r.ID != "" {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

// Document returns the markdown content of a provider document.
func (c *RegistryClient) Document(ctx context.Context, id string) (string, error) {
	var doc document
	if err := c.get(ctx, "/v2/provider-docs/"+url.PathEscape(id), &doc); err != nil {
		return "", err
	}
	return doc.Data.Attributes.Content, nil
}

func (c *RegistryClient) get(ctx context.Context, path string, out any) error {
	target := c.baseURL + path

	_, err := c.breaker.Execute(func() (interface{}, error) {
		start := time.Now()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/vnd.api+json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		c.logger.Debug("registry request",
			zap.String("url", target),
			zap.Int("status", resp.StatusCode),
			zap.Duration("took", time.Since(start)),
		)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, &StatusError{URL: target, StatusCode: resp.StatusCode}
		}

		return nil, json.NewDecoder(resp.Body).Decode(out)
	})
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	return nil
}
