package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ppiankov/startupscout/internal/model"
	"github.com/ppiankov/startupscout/internal/util"
	"github.com/ppiankov/startupscout/internal/worker"
)

// ErrDisallowed is returned when robots.txt forbids fetching the thread
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Reddit reads a thread through Reddit's public JSON rendering
// (<thread-url>.json), no authentication involved.
type Reddit struct {
	baseURL    string
	userAgent  string
	maxBytes   int64
	httpClient *http.Client
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
	logger     *zap.Logger
}

type redditListing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []redditThing `json:"children"`
	} `json:"data"`
}

type redditThing struct {
	Kind string     `json:"kind"`
	Data redditData `json:"data"`
}

type redditData struct {
	ID         string          `json:"id"`
	Body       string          `json:"body"`
	Author     string          `json:"author"`
	Subreddit  string          `json:"subreddit"`
	CreatedUTC float64         `json:"created_utc"`
	Replies    json.RawMessage `json:"replies"` // "" when there are none, a listing otherwise
}

// NewReddit creates a Reddit source
func NewReddit(cfg model.SourceConfig, logger *zap.Logger) *Reddit {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, ""),
		},
	}

	r := &Reddit{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		maxBytes:   cfg.MaxBodyBytes,
		httpClient: client,
		limiter:    worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		logger:     logger.With(zap.String("component", "source"), zap.String("source", "reddit")),
	}
	if r.baseURL == "" {
		r.baseURL = "https://www.reddit.com"
	}
	if r.maxBytes <= 0 {
		r.maxBytes = 10_000_000
	}
	if cfg.RespectRobots {
		r.robots = util.NewRobotsChecker(cfg.UserAgent, client)
	}

	return r
}

// Name returns the source name
func (r *Reddit) Name() string {
	return "reddit"
}

// Comments fetches the thread at ref (a thread URL or a bare post ID) and
// returns its comments breadth-first: all top-level comments, then their
// replies, and so on. "Load more" stubs are not followed.
func (r *Reddit) Comments(ctx context.Context, ref string, limit int) ([]model.Comment, error) {
	jsonURL, err := r.threadJSONURL(ref)
	if err != nil {
		return nil, err
	}

	if r.robots != nil {
		allowed, delay, err := r.robots.CanFetch(ctx, jsonURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", jsonURL, ErrDisallowed)
		}
		if err := r.limiter.WaitWithDelay(ctx, jsonURL, delay); err != nil {
			return nil, err
		}
	} else if err := r.limiter.Wait(ctx, jsonURL); err != nil {
		return nil, err
	}

	r.logger.Info("fetching thread", zap.String("url", jsonURL))

	body, err := r.fetch(ctx, jsonURL)
	if err != nil {
		return nil, err
	}

	var listings []redditListing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, fmt.Errorf("decode thread: %w", err)
	}
	if len(listings) < 2 {
		return nil, fmt.Errorf("decode thread: expected post and comment listings, got %d", len(listings))
	}

	comments := flattenComments(listings[1].Data.Children, limit)
	r.logger.Info("thread fetched", zap.Int("comments", len(comments)))

	return comments, nil
}

// threadJSONURL maps a thread reference to its .json URL
func (r *Reddit) threadJSONURL(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("empty thread reference")
	}

	if !strings.Contains(ref, "/") {
		return fmt.Sprintf("%s/comments/%s.json", r.baseURL, url.PathEscape(ref)), nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse thread URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported thread URL scheme: %q", u.Scheme)
	}

	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	if !strings.HasSuffix(u.Path, ".json") {
		u.Path += ".json"
	}
	u.RawPath = ""

	return u.String(), nil
}

// fetch performs the GET and returns at most maxBytes of the body
func (r *Reddit) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > r.maxBytes {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", rawURL, r.maxBytes)
	}

	return body, nil
}

// flattenComments walks the comment forest level by level, keeping only
// t1 (comment) things and stopping once limit comments are collected
func flattenComments(top []redditThing, limit int) []model.Comment {
	var out []model.Comment
	queue := append([]redditThing(nil), top...)

	for len(queue) > 0 {
		if limit > 0 && len(out) >= limit {
			break
		}

		thing := queue[0]
		queue = queue[1:]

		if thing.Kind != "t1" {
			continue
		}

		out = append(out, model.Comment{
			ID:         thing.Data.ID,
			Body:       html.UnescapeString(thing.Data.Body),
			Author:     thing.Data.Author,
			Origin:     thing.Data.Subreddit,
			CreatedUTC: thing.Data.CreatedUTC,
		})

		queue = append(queue, replies(thing.Data.Replies)...)
	}

	return out
}

func replies(raw json.RawMessage) []redditThing {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var listing redditListing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil
	}
	return listing.Data.Children
}
