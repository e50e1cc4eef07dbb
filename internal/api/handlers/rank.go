package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/momentum/internal/brain"
	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/internal/metrics"
	"github.com/wonny/momentum/internal/s0_data"
	"github.com/wonny/momentum/internal/selection"
	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/logger"
	"github.com/wonny/momentum/pkg/redis"
)

// uploadField is the multipart form field holding the CSV file
const uploadField = "file"

// errBadInput marks request problems that map to 400
var errBadInput = errors.New("bad input")

// UploadLimiter decides whether a client may upload now
type UploadLimiter interface {
	Allow(ctx context.Context, cfg redis.RateLimitConfig) (bool, int, error)
}

// RankHandler scores uploaded batches
// ⭐ SSOT: 랭킹 API 핸들러는 이 구조체에서만
type RankHandler struct {
	engine    *brain.Engine
	cache     *redis.Cache  // nil이면 캐시 안 함
	limiter   UploadLimiter // nil이면 제한 없음
	cacheTTL  time.Duration
	rateLimit config.RateLimitConfig
	trusted   []netip.Prefix // X-Forwarded-For 를 신뢰할 프록시
	maxBytes  int64
	metrics   *metrics.Registry
	logger    *logger.Logger
}

// NewRankHandler creates a new rank handler
func NewRankHandler(
	engine *brain.Engine,
	cfg *config.Config,
	cache *redis.Cache,
	limiter UploadLimiter,
	m *metrics.Registry,
	log *logger.Logger,
) *RankHandler {
	ttl := cfg.Cache.TTL
	if ttl <= 0 {
		ttl = redis.TTLMedium
	}
	trusted, err := cfg.RateLimit.TrustedPrefixes()
	if err != nil {
		log.WithError(err).Warn("Ignoring trusted proxies")
		trusted = nil
	}
	return &RankHandler{
		engine:    engine,
		cache:     cache,
		limiter:   limiter,
		cacheTTL:  ttl,
		rateLimit: cfg.RateLimit,
		trusted:   trusted,
		maxBytes:  cfg.MaxUploadBytes(),
		metrics:   m,
		logger:    log,
	}
}

// Rank scores one batch and returns the ranked result
// POST /api/rank?industry=&search=&top_only=&sort_by=&sort_dir=&as_of=
//
// Body: multipart upload (field "file", .csv), text/csv, or a JSON array
// of objects keyed by column header.
func (h *RankHandler) Rank(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.allow(r) {
		if h.metrics != nil {
			h.metrics.RateLimited.Inc()
		}
		w.Header().Set("Retry-After", strconv.Itoa(int(h.rateLimit.Window.Seconds())))
		respondError(w, http.StatusTooManyRequests, "Too many uploads, try again later")
		return
	}

	asOf, err := h.asOf(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	raws, body, err := h.readRecords(r)
	if err != nil {
		status, msg := classifyInputError(err)
		h.logger.WithError(err).Warn("Rejected ranking input")
		respondError(w, status, msg)
		return
	}

	key := redis.RankResultKey(body, h.engine.ConfigHash(), asOf)

	result, hit := h.cached(r, key)
	if !hit {
		result, err = h.engine.RunAt(ctx, raws, asOf)
		if err != nil {
			h.logger.WithError(err).Error("Ranking run failed")
			respondError(w, http.StatusInternalServerError, "Failed to rank records")
			return
		}
		if h.cache != nil {
			if err := h.cache.Set(ctx, key, result, h.cacheTTL); err != nil {
				h.logger.WithError(err).Warn("Failed to cache ranking result")
			}
		}
	}

	// 필터/정렬은 캐시된 전체 결과 위의 뷰
	view := *result
	if filter := selection.ParseFilter(r.URL.Query()); !filter.IsZero() {
		view.Records = filter.Apply(result.Records)
	}

	w.Header().Set("X-Config-Hash", h.engine.ConfigHash())
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	respondJSON(w, http.StatusOK, &view)
}

// allow applies the per-IP upload limit. Limiter errors fail open.
func (h *RankHandler) allow(r *http.Request) bool {
	if h.limiter == nil {
		return true
	}
	ip := h.clientIP(r)
	allowed, remaining, err := h.limiter.Allow(r.Context(),
		redis.UploadRateLimit(ip, h.rateLimit.Limit, h.rateLimit.Window))
	if err != nil {
		h.logger.WithError(err).Warn("Rate limiter unavailable")
		return true
	}
	if !allowed {
		h.logger.WithFields(map[string]interface{}{
			"ip":        ip,
			"remaining": remaining,
		}).Warn("Upload rate limit exceeded")
	}
	return allowed
}

func (h *RankHandler) asOf(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return h.engine.Now().UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid as_of (expected YYYY-MM-DD): %q", raw)
	}
	return t, nil
}

func (h *RankHandler) cached(r *http.Request, key string) (*contracts.RankedResult, bool) {
	if h.cache == nil {
		return nil, false
	}

	var result contracts.RankedResult
	found, err := h.cache.Get(r.Context(), key, &result)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to read ranking cache")
		found = false
	}
	if h.metrics != nil {
		h.metrics.RecordCacheHit(found)
	}
	if !found {
		return nil, false
	}
	return &result, true
}

// readRecords decodes the request body into raw records. The returned
// bytes are the canonical input used for the cache key.
func (h *RankHandler) readRecords(r *http.Request) ([]contracts.RawRecord, []byte, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	switch mediaType {
	case "multipart/form-data":
		body, err := h.readUpload(r)
		if err != nil {
			return nil, nil, err
		}
		raws, err := s0_data.ReadCSV(bytes.NewReader(body))
		return raws, body, err

	case "application/json":
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, nil, err
		}
		raws, err := decodeJSONRecords(body)
		return raws, body, err

	default:
		// text/csv, text/plain 또는 미지정
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, nil, err
		}
		raws, err := s0_data.ReadCSV(bytes.NewReader(body))
		return raws, body, err
	}
}

func (h *RankHandler) readUpload(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		return nil, err
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, fmt.Errorf("%w: multipart field %q is required", errBadInput, uploadField)
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		return nil, fmt.Errorf("%w: only .csv uploads are accepted", errBadInput)
	}
	return io.ReadAll(file)
}

func decodeJSONRecords(body []byte) ([]contracts.RawRecord, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return []contracts.RawRecord{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raws []contracts.RawRecord
	if err := dec.Decode(&raws); err != nil {
		return nil, fmt.Errorf("%w: body must be a JSON array of objects: %v", errBadInput, err)
	}
	if raws == nil {
		raws = []contracts.RawRecord{}
	}
	return raws, nil
}

func classifyInputError(err error) (int, string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d bytes", maxErr.Limit)
	case errors.Is(err, s0_data.ErrMissingSymbolColumn),
		errors.Is(err, errBadInput):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusBadRequest, "Failed to read request body"
	}
}

// clientIP returns the rate limit identity of the caller. X-Forwarded-For
// is read only when the peer is a trusted proxy, right to left, stopping
// at the first hop that is not itself trusted.
func (h *RankHandler) clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !h.isTrusted(host) {
		return host
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !h.isTrusted(hop) {
			return hop
		}
	}
	return host
}

func (h *RankHandler) isTrusted(ip string) bool {
	if len(h.trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range h.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
