package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/makhanda-smiles/portal-api/pkg/httputil"
)

// ErrorHandler renders errors attached with c.Error when the handler wrote
// nothing itself.
func ErrorHandler(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		log := requestLogger(c, logger)
		for _, e := range c.Errors {
			log.Debug().
				Err(e.Err).
				Str("path", c.Request.URL.Path).
				Msg("request error")
		}
		if c.Writer.Written() {
			return
		}
		httputil.RespondWithError(c, c.Errors.Last().Err)
	}
}
