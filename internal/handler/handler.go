package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/makhanda-smiles/portal-api/pkg/errors"
	"github.com/makhanda-smiles/portal-api/pkg/httputil"
	"github.com/makhanda-smiles/portal-api/pkg/validator"
)

// BindJSON decodes the body into req and answers 400 on failure.
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(validator.Summary(err), err))
		return false
	}
	return true
}

// Bind decodes a form or multipart body into req and answers 400 on failure.
func Bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBind(req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(validator.Summary(err), err))
		return false
	}
	return true
}

// ParseID reads a UUID path parameter and answers 400 when it is malformed.
func ParseID(c *gin.Context, name, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid "+resource+" ID", err))
		return uuid.Nil, false
	}
	return id, true
}
