package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/auditflow-io/auditflow/internal/config"
	"github.com/auditflow-io/auditflow/internal/modules/model"
	"github.com/auditflow-io/auditflow/internal/modules/serializer"
	"github.com/auditflow-io/auditflow/internal/pkg/utils/tokens"
)

const memberCacheTTL = 5 * time.Minute

// MemberAuth authenticates requests with member API keys. The member row is
// cached in redis keyed by the key digest, so repeated requests skip the DB
// lookup. It sets the member in the context and tags the current span.
func MemberAuth(cfg *config.Config, db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		secret, ok := tokens.ParseToken(raw, cfg.Auth.ApiKeyPrefix)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}
		digest := tokens.HMAC256Hex(cfg.Auth.SecretPepper, secret)

		var member model.Member
		cacheKey := "member:" + digest
		if rdb != nil {
			if cached, err := rdb.Get(c.Request.Context(), cacheKey).Bytes(); err == nil {
				if sonic.Unmarshal(cached, &member) == nil && member.ID != uuid.Nil {
					finishAuth(c, &member)
					return
				}
			}
		}

		if err := db.WithContext(c.Request.Context()).Where(&model.Member{ApiKeyHMAC: digest}).First(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, serializer.DBErr("", err))
			return
		}

		if rdb != nil {
			if raw, err := sonic.Marshal(&member); err == nil {
				rdb.Set(c.Request.Context(), cacheKey, raw, memberCacheTTL)
			}
		}

		finishAuth(c, &member)
	}
}

func finishAuth(c *gin.Context, member *model.Member) {
	span := trace.SpanFromContext(c.Request.Context())
	if span.SpanContext().IsValid() {
		span.SetAttributes(
			attribute.String("member_id", member.ID.String()),
			attribute.String("member_role", member.Role),
		)
	}

	c.Set("member", member)
	c.Set("member_id", member.ID)
	c.Next()
}
