package server

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/notifybiz/console/internal/ratelimit"
	"github.com/notifybiz/console/internal/tenantctx"
)

// SignupRateLimit throttles the signup callback surface per vendor and
// endpoint-wide. Redis being unavailable fails open; the provider is the
// backstop for abusive traffic in that window.
func (s *Server) SignupRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.signupLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		vendorLabel := "unknown"
		if vendorID, ok := tenantctx.VendorIDFromContext(ctx); ok && vendorID != 0 {
			vendorLabel = vendorID.String()
			result, err := s.signupLimiter.AllowVendor(ctx, vendorLabel)
			if err == nil && !result.Allowed {
				s.recordRateLimitDenied(c, vendorLabel, "vendor_bucket")
				setRateLimitHeaders(c, result)
				AbortWithError(c, ErrTooManyRequests)
				return
			}
		}

		result, err := s.signupLimiter.AllowEndpoint(ctx)
		if err == nil && !result.Allowed {
			s.recordRateLimitDenied(c, vendorLabel, "endpoint_bucket")
			setRateLimitHeaders(c, result)
			AbortWithError(c, ErrTooManyRequests)
			return
		}

		if s.obsMetrics != nil {
			s.obsMetrics.RecordRateLimitAllowed(ctx, vendorLabel, c.FullPath())
		}
		c.Next()
	}
}

func (s *Server) recordRateLimitDenied(c *gin.Context, vendorID, reason string) {
	if s.obsMetrics == nil {
		return
	}
	s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), vendorID, c.FullPath(), reason)
}

func setRateLimitHeaders(c *gin.Context, result *ratelimit.Result) {
	if result == nil {
		return
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	if result.RetryAfter > 0 {
		c.Header("Retry-After", fmt.Sprintf("%.0f", result.RetryAfter.Seconds()))
	}
}
