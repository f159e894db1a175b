package http

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const identityKey = "identity"

// Authenticator resolves a bearer token to an identity.
type Authenticator interface {
	Authenticate(token string) (domain.Identity, error)
}

// RequireAuth accepts "Authorization: Bearer <token>" or, for websocket clients, ?token=.
// A missing token is 401; a token that fails verification is 403.
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, messageResponse{Message: "Authorization header format must be Bearer {token}"})
				return
			}
			token = strings.TrimSpace(parts[1])
		}
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, messageResponse{Message: "Authentication required"})
			return
		}

		identity, err := auth.Authenticate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, messageResponse{Message: "Invalid or expired token"})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireTeacher must run after RequireAuth.
func RequireTeacher() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identityFrom(c).IsTeacher() {
			c.AbortWithStatusJSON(http.StatusForbidden, messageResponse{Message: msgTeachersOnly})
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) domain.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}
	}
	identity, _ := v.(domain.Identity)
	return identity
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles each client IP to perMinute requests with a burst of the same size.
// Idle entries are swept lazily.
func RateLimiter(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	const idle = 10 * time.Minute
	var (
		mu        sync.Mutex
		visitors  = make(map[string]*visitor)
		lastSweep = time.Now()
	)
	limit := rate.Every(time.Minute / time.Duration(perMinute))

	return func(c *gin.Context) {
		now := time.Now()
		ip := c.ClientIP()

		mu.Lock()
		if now.Sub(lastSweep) > idle {
			for key, v := range visitors {
				if now.Sub(v.lastSeen) > idle {
					delete(visitors, key)
				}
			}
			lastSweep = now
		}
		v, ok := visitors[ip]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(limit, perMinute)}
			visitors[ip] = v
		}
		v.lastSeen = now
		allowed := v.limiter.AllowN(now, 1)
		mu.Unlock()

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, messageResponse{Message: "Too many requests, please try again later."})
			return
		}
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user", identityFrom(c).Username),
		)
	}
}
