package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/database"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/metrics"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// LanguageIDs maps the languages offered in the arena to Judge0 language ids.
var LanguageIDs = map[string]int{
	"python":     71,
	"cpp":        54,
	"c":          50,
	"java":       62,
	"javascript": 63,
}

var ErrUnsupportedLanguage = errors.New("unsupported language")

// LanguageID resolves a language name, case-insensitively.
func LanguageID(language string) (int, error) {
	id, ok := LanguageIDs[strings.ToLower(strings.TrimSpace(language))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}
	return id, nil
}

type ExecStatus string

const (
	StatusOK             ExecStatus = "ok"
	StatusCompileError   ExecStatus = "compile_error"
	StatusRuntimeError   ExecStatus = "runtime_error"
	StatusTransportError ExecStatus = "transport_error"
)

// ExecResult is the classified outcome of one judge submission. Stdout is set
// only for StatusOK, Message only for the error statuses.
type ExecResult struct {
	Status  ExecStatus `json:"status"`
	Stdout  string     `json:"stdout,omitempty"`
	Message string     `json:"message,omitempty"`
}

func (r ExecResult) OK() bool {
	return r.Status == StatusOK
}

// Executor runs source code against stdin. The only error it returns is
// ErrUnsupportedLanguage; upstream failures come back as StatusTransportError.
type Executor interface {
	Execute(ctx context.Context, language, code, stdin string) (ExecResult, error)
}

type judge0Request struct {
	LanguageID int    `json:"language_id"`
	SourceCode string `json:"source_code"`
	Stdin      string `json:"stdin"`
}

type judge0Response struct {
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Message       *string `json:"message"`
	Status        struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// classify applies the fixed priority: compile output, then stderr, then stdout.
func (r *judge0Response) classify() ExecResult {
	if out := strings.TrimSpace(deref(r.CompileOutput)); out != "" {
		return ExecResult{Status: StatusCompileError, Message: out}
	}
	if errOut := strings.TrimSpace(deref(r.Stderr)); errOut != "" {
		return ExecResult{Status: StatusRuntimeError, Message: errOut}
	}
	return ExecResult{Status: StatusOK, Stdout: strings.TrimSpace(deref(r.Stdout))}
}

// Judge0Client submits code synchronously (wait=true) to a Judge0 instance.
type Judge0Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	cache      ResultCache
	cacheTTL   time.Duration
}

func NewJudge0Client(baseURL, authToken string, cache ResultCache, cacheTTL time.Duration) *Judge0Client {
	return &Judge0Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		httpClient: &http.Client{
			// Callers bound each submission with a context deadline; this is a backstop.
			Timeout: 60 * time.Second,
		},
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

func getCacheKey(language, code, stdin string) string {
	hash := sha256.Sum256([]byte(language + ":" + code + ":" + stdin))
	return "arena:judge:" + hex.EncodeToString(hash[:])
}

func (j *Judge0Client) Execute(ctx context.Context, language, code, stdin string) (ExecResult, error) {
	langID, err := LanguageID(language)
	if err != nil {
		return ExecResult{}, err
	}
	language = strings.ToLower(strings.TrimSpace(language))

	cacheKey := getCacheKey(language, code, stdin)
	if j.cache != nil {
		if res, ok := j.cache.Get(ctx, cacheKey); ok {
			metrics.JudgeCacheHits.Inc()
			logger.Debug().Str("lang", language).Msg("Cache hit for code execution")
			return res, nil
		}
	}

	start := time.Now()
	res := j.submit(ctx, langID, code, stdin)
	metrics.JudgeDuration.WithLabelValues(language).Observe(time.Since(start).Seconds())
	metrics.JudgeExecutions.WithLabelValues(language, string(res.Status)).Inc()

	logger.Info().
		Str("lang", language).
		Str("status", string(res.Status)).
		Dur("latency", time.Since(start)).
		Msg("Executed code via Judge0")

	// Transport failures are transient and never cached.
	if j.cache != nil && res.Status != StatusTransportError {
		j.cache.Set(ctx, cacheKey, res, j.cacheTTL)
	}
	return res, nil
}

func (j *Judge0Client) submit(ctx context.Context, langID int, code, stdin string) ExecResult {
	body, err := json.Marshal(judge0Request{LanguageID: langID, SourceCode: code, Stdin: stdin})
	if err != nil {
		return transportError(err)
	}

	url := j.baseURL + "/submissions?base64_encoded=false&wait=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return transportError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if j.authToken != "" {
		req.Header.Set("X-Auth-Token", j.authToken)
	}

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return transportError(fmt.Errorf("judge returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	var out judge0Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return transportError(fmt.Errorf("decode judge response: %w", err))
	}
	return out.classify()
}

func transportError(err error) ExecResult {
	return ExecResult{Status: StatusTransportError, Message: "Execution Error: " + err.Error()}
}

// ResultCache stores classified results keyed by language, code and stdin.
type ResultCache interface {
	Get(ctx context.Context, key string) (ExecResult, bool)
	Set(ctx context.Context, key string, res ExecResult, ttl time.Duration)
}

type RedisResultCache struct {
	rdb *redis.Client
}

func NewRedisResultCache(rdb *redis.Client) *RedisResultCache {
	return &RedisResultCache{rdb: rdb}
}

func (c *RedisResultCache) Get(ctx context.Context, key string) (ExecResult, bool) {
	var res ExecResult
	if err := database.CacheGet(ctx, c.rdb, key, &res); err != nil {
		if !errors.Is(err, database.ErrCacheMiss) {
			logger.Warn().Err(err).Msg("Judge cache read failed")
		}
		return ExecResult{}, false
	}
	return res, true
}

func (c *RedisResultCache) Set(ctx context.Context, key string, res ExecResult, ttl time.Duration) {
	if err := database.CacheSet(ctx, c.rdb, key, res, ttl); err != nil {
		logger.Warn().Err(err).Msg("Judge cache write failed")
	}
}

type cacheEntry struct {
	Result    ExecResult
	ExpiresAt time.Time
}

// MemoryResultCache is the process-local fallback when Redis is unavailable.
type MemoryResultCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewMemoryResultCache() *MemoryResultCache {
	return &MemoryResultCache{entries: make(map[string]cacheEntry)}
}

func (c *MemoryResultCache) Get(ctx context.Context, key string) (ExecResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.ExpiresAt) {
		return ExecResult{}, false
	}
	return entry.Result, true
}

func (c *MemoryResultCache) Set(ctx context.Context, key string, res ExecResult, ttl time.Duration) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if now.After(e.ExpiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{Result: res, ExpiresAt: now.Add(ttl)}
}
