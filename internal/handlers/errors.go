package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/soundshare-api/internal/cascade"
	apierrors "github.com/yukikurage/soundshare-api/internal/errors"
)

// respondCascadeError maps removal failures. Storage details stay in the
// logs written by the resolver.
func respondCascadeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cascade.ErrRootNotFound):
		apierrors.NotFound(c, "")
	case errors.Is(err, cascade.ErrTransient),
		errors.Is(err, cascade.ErrLockUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		apierrors.ServiceUnavailable(c, "Something went wrong while removing this. Please try again in a moment.")
	case errors.Is(err, cascade.ErrInvariantViolation):
		apierrors.InternalError(c, "Something went wrong while removing this. We have been notified.")
	default:
		apierrors.InternalError(c, "")
	}
}

func parseID(c *gin.Context, param string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid ID")
		return 0, false
	}
	return id, true
}
