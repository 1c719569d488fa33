package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           int
}

func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			HeaderXClientID,
		},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			HeaderXRequestID,
			HeaderXClientID,
		},
		AllowCredentials: true,
		MaxAge:           86400,
	}
}

// corsPolicy is a CORSConfig with its header values joined once.
type corsPolicy struct {
	any         bool
	exact       map[string]bool
	suffixes    []string
	credentials bool
	methods     string
	headers     string
	expose      string
	maxAge      string
}

func newCORSPolicy(config CORSConfig) *corsPolicy {
	p := &corsPolicy{
		exact:       make(map[string]bool),
		credentials: config.AllowCredentials,
		methods:     strings.Join(config.AllowMethods, ", "),
		headers:     strings.Join(config.AllowHeaders, ", "),
		expose:      strings.Join(config.ExposeHeaders, ", "),
		maxAge:      strconv.Itoa(config.MaxAge),
	}
	for _, o := range config.AllowOrigins {
		switch {
		case o == "*":
			p.any = true
		case strings.Contains(o, "://*."):
			// https://*.example.com matches any subdomain over the same scheme.
			scheme, host, _ := strings.Cut(o, "://*")
			p.suffixes = append(p.suffixes, scheme+"://|"+host)
		default:
			p.exact[o] = true
		}
	}
	return p
}

// allow returns the Access-Control-Allow-Origin value for origin, or "" when
// the origin is not allowed. Credentials forbid a literal "*".
func (p *corsPolicy) allow(origin string) string {
	if origin == "" {
		return ""
	}
	if p.exact[origin] {
		return origin
	}
	for _, s := range p.suffixes {
		scheme, host, _ := strings.Cut(s, "|")
		if strings.HasPrefix(origin, scheme) && strings.HasSuffix(origin, host) &&
			len(origin) > len(scheme)+len(host) {
			return origin
		}
	}
	if p.any {
		if p.credentials {
			return origin
		}
		return "*"
	}
	return ""
}

func CORS(config CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(config)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		preflight := c.Request.Method == http.MethodOptions

		allowed := policy.allow(origin)
		if allowed == "" {
			// Requests without an Origin are not cross-origin.
			if origin != "" && preflight {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowed)
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Expose-Headers", policy.expose)
		if policy.credentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if preflight {
			h.Set("Access-Control-Allow-Methods", policy.methods)
			h.Set("Access-Control-Allow-Headers", policy.headers)
			h.Set("Access-Control-Max-Age", policy.maxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
