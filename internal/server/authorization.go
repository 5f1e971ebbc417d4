package server

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// authorize checks the caller's role policy for object and action.
func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authorizeWithContext(c, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorizeWithContext(c *gin.Context, object string, action string) error {
	identity, ok := identityFromContext(c)
	if !ok {
		return ErrUnauthorized
	}
	if s.authzSvc == nil {
		return ErrForbidden
	}
	return s.authzSvc.Authorize(
		c.Request.Context(),
		identity.Subject(),
		string(identity.Role),
		strings.TrimSpace(object),
		strings.TrimSpace(action),
	)
}
