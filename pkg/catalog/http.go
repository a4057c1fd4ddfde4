package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-picker/pkg/record"
)

// HTTPConfig describes a remote catalog endpoint.
type HTTPConfig struct {
	URL    string
	Method string
	// ResultsPath is the dotted path of the record list inside the response;
	// empty means the response itself is the list.
	ResultsPath string
	SearchParam string
	FieldsParam string
	LimitParam  string
	Params      map[string]string
	Headers     map[string]string
}

// HTTP fetches records from a JSON endpoint.
type HTTP struct {
	cfg    HTTPConfig
	client *http.Client
}

var _ Fetcher = (*HTTP)(nil)

// HTTPOption configures an HTTP fetcher.
type HTTPOption func(*HTTP)

// WithHTTPClient overrides http.DefaultClient.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		if client != nil {
			h.client = client
		}
	}
}

// NewHTTP validates cfg and applies defaults: GET, `q`, `fields` and `limit`.
func NewHTTP(cfg HTTPConfig, opts ...HTTPOption) (*HTTP, error) {
	cfg.URL = strings.TrimSpace(cfg.URL)
	if cfg.URL == "" {
		return nil, ErrMissingURL
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("catalog: parse url: %w", err)
	}
	cfg.Method = strings.ToUpper(strings.TrimSpace(cfg.Method))
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	if cfg.SearchParam == "" {
		cfg.SearchParam = "q"
	}
	if cfg.FieldsParam == "" {
		cfg.FieldsParam = "fields"
	}
	if cfg.LimitParam == "" {
		cfg.LimitParam = "limit"
	}
	cfg.Params = cloneStringMap(cfg.Params)
	cfg.Headers = cloneStringMap(cfg.Headers)

	h := &HTTP{cfg: cfg, client: http.DefaultClient}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Fetch issues one request and decodes the record list.
func (h *HTTP) Fetch(ctx context.Context, filter Filter) ([]record.Record, error) {
	params := h.params(filter)

	reqURL, err := url.Parse(h.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse url: %w", err)
	}

	var body *bytes.Reader
	if h.cfg.Method == http.MethodGet || h.cfg.Method == http.MethodHead {
		q := reqURL.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		reqURL.RawQuery = q.Encode()
		body = bytes.NewReader(nil)
	} else {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("catalog: encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, h.cfg.Method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("catalog: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body.Len() > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range h.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("catalog: unexpected status %d", resp.StatusCode)
	}

	var payload any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	items, err := extractResults(payload, h.cfg.ResultsPath)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (h *HTTP) params(filter Filter) map[string]string {
	params := make(map[string]string, len(h.cfg.Params)+len(filter.Params)+3)
	for k, v := range h.cfg.Params {
		params[k] = v
	}
	for k, v := range filter.Params {
		params[k] = v
	}
	if query := strings.TrimSpace(filter.Query); query != "" {
		params[h.cfg.SearchParam] = query
	}
	if len(filter.Fields) > 0 {
		params[h.cfg.FieldsParam] = strings.Join(filter.Fields, ",")
	}
	if filter.Limit > 0 {
		params[h.cfg.LimitParam] = strconv.Itoa(filter.Limit)
	}
	return params
}

func extractResults(payload any, path string) ([]record.Record, error) {
	cur := payload
	if path = strings.TrimSpace(path); path != "" {
		parsed, err := record.ParsePath(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: results path: %w", err)
		}
		value, ok := record.Lookup(payload, parsed)
		if !ok {
			return nil, fmt.Errorf("catalog: results path %q not found", path)
		}
		cur = value
	}
	switch v := cur.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]record.Record, len(v))
		copy(out, v)
		return out, nil
	default:
		return nil, fmt.Errorf("catalog: results at %q are %T, not a list", path, cur)
	}
}

func cloneStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
