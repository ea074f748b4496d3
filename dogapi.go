package main

import (
	"context"
	"encoding/json"
	"fmt"
	"golang.org/x/sync/singleflight"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type DogApiEnvelope struct {
	Status  string          `json:"status"`
	Message json.RawMessage `json:"message"`
	Code    int             `json:"code,omitempty"`
}

type ApiError struct {
	Code    int
	Message string
}

func (e *ApiError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("dog api error %d: %s", e.Code, e.Message)
	}
	return "dog api error: " + e.Message
}

type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

type DogApi struct {
	Http    http.Client
	cache   *ReqCache
	baseUrl string
	ttl     int
	metrics *Metrics
	group   singleflight.Group
	log     *log.Logger
}

func NewDogApi(cfg *Config, cache *ReqCache, metrics *Metrics) *DogApi {
	return &DogApi{
		Http:    http.Client{Timeout: time.Duration(cfg.DogApi.Timeout) * time.Second},
		cache:   cache,
		baseUrl: strings.TrimRight(cfg.DogApi.BaseUrl, "/"),
		ttl:     cfg.DogApi.TTL,
		metrics: metrics,
		log:     log.New(os.Stderr, "(dogapi) ", log.LstdFlags),
	}
}

// Breeds loads the full catalog. Concurrent callers share one upstream call.
func (api *DogApi) Breeds(ctx context.Context) (BreedCatalog, error) {
	v, err, _ := api.group.Do("/breeds/list/all", func() (interface{}, error) {
		env, err := api.get(ctx, "/breeds/list/all")
		if err != nil {
			return nil, err
		}
		catalog, err := parseCatalog(env.Message)
		if err != nil {
			api.log.Println("Failed to decode breed list", err)
			return nil, &TransportError{Op: "decode breed list", Err: err}
		}
		return catalog, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(BreedCatalog), nil
}

func (api *DogApi) Images(ctx context.Context, path string) ([]string, error) {
	env, err := api.get(ctx, imagesPath(path))
	if err != nil {
		return nil, err
	}
	var urls []string
	if err := json.Unmarshal(env.Message, &urls); err != nil {
		api.log.Println("Failed to decode image list for", path, err)
		return nil, &TransportError{Op: "decode image list", Err: err}
	}
	if urls == nil {
		urls = []string{}
	}
	return urls, nil
}

func imagesPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return "/breed/" + strings.Join(parts, "/") + "/images"
}

func (api *DogApi) get(ctx context.Context, path string) (DogApiEnvelope, error) {
	env := DogApiEnvelope{}
	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, api.baseUrl+path, nil)
	if err != nil {
		api.log.Println("Failed to create http request:", err)
		return env, &TransportError{Op: "build request", Err: err}
	}
	getReq.Header.Set("Accept", "application/json")
	res, err := api.cache.CachedFetch(getReq, &api.Http, api.ttl)
	if err != nil {
		api.log.Println("Failed to fetch:", err)
		api.metrics.Upstream(path, "transport")
		return env, &TransportError{Op: "GET " + path, Err: err}
	}
	defer res.Body.Close()

	decErr := json.NewDecoder(res.Body).Decode(&env)
	if decErr == nil && env.Status == StatusError {
		api.metrics.Upstream(path, "api_error")
		apiErr := &ApiError{Code: env.Code, Message: envelopeText(env.Message)}
		if apiErr.Code == 0 && res.StatusCode >= 300 {
			apiErr.Code = res.StatusCode
		}
		api.log.Println("Upstream reported error for", path, apiErr.Message)
		return env, apiErr
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		api.metrics.Upstream(path, "transport")
		api.log.Println("Unexpected response status for", path, res.Status)
		return env, &TransportError{Op: "GET " + path, Err: fmt.Errorf("unexpected status %s", res.Status)}
	}
	if decErr != nil {
		api.metrics.Upstream(path, "transport")
		api.log.Println("Failed to decode response", decErr)
		return env, &TransportError{Op: "decode " + path, Err: decErr}
	}
	if env.Status != StatusSuccess {
		api.metrics.Upstream(path, "transport")
		return env, &TransportError{Op: "GET " + path, Err: fmt.Errorf("unknown status %q", env.Status)}
	}
	api.metrics.Upstream(path, "ok")
	return env, nil
}

func envelopeText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
