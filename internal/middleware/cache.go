package middleware

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const cacheKeyPrefix = "rec_cache"

// ResponseCache caches successful GET responses of the recommendation
// endpoints in Redis. Entries expire after ttl and are flushed wholesale
// when a refresh replaces the snapshot, so cached lists never outlive the
// data that produced them by more than the TTL.
func ResponseCache(rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) gin.HandlerFunc {
	if rdb == nil || ttl <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cacheKey(c)

		if cached, err := rdb.Get(c.Request.Context(), key).Bytes(); err == nil {
			var resp cachedResponse
			if err := json.Unmarshal(cached, &resp); err == nil {
				c.Header("X-Cache", "HIT")
				c.Data(resp.StatusCode, resp.ContentType, resp.Body)
				c.Abort()
				return
			}
		}

		writer := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Header("X-Cache", "MISS")

		c.Next()

		if writer.Status() != http.StatusOK || len(writer.body) == 0 {
			return
		}

		data, err := json.Marshal(cachedResponse{
			StatusCode:  writer.Status(),
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.body,
		})
		if err != nil {
			return
		}
		if err := rdb.Set(c.Request.Context(), key, data, ttl).Err(); err != nil {
			logger.WithError(err).WithField("cache_key", key).Warn("Failed to cache response")
		}
	}
}

// InvalidateResponseCache drops every cached recommendation response.
// Called after a snapshot refresh.
func InvalidateResponseCache(ctx context.Context, rdb *redis.Client, logger *logrus.Logger) {
	if rdb == nil {
		return
	}

	var cursor uint64
	for {
		keys, next, err := rdb.Scan(ctx, cursor, cacheKeyPrefix+":*", 100).Result()
		if err != nil {
			logger.WithError(err).Warn("Failed to scan response cache keys")
			return
		}
		if len(keys) > 0 {
			if err := rdb.Del(ctx, keys...).Err(); err != nil {
				logger.WithError(err).Warn("Failed to invalidate response cache keys")
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

type cachedResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type captureWriter struct {
	gin.ResponseWriter
	body []byte
}

func (w *captureWriter) Write(data []byte) (int, error) {
	w.body = append(w.body, data...)
	return w.ResponseWriter.Write(data)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body = append(w.body, s...)
	return w.ResponseWriter.WriteString(s)
}

func cacheKey(c *gin.Context) string {
	keyStr := strings.Join([]string{
		c.Request.Method,
		c.Request.URL.Path,
		c.Request.URL.RawQuery,
	}, ":")
	return fmt.Sprintf("%s:%x", cacheKeyPrefix, md5.Sum([]byte(keyStr)))
}
