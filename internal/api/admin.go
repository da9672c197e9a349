package api

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/victornm/quizkeep/internal/domain"
	"github.com/victornm/quizkeep/internal/errors"
	"github.com/victornm/quizkeep/internal/mirror"
)

const defaultUsersLimit = 100

func (a *API) listRemoteUsers(c *gin.Context) {
	limit := defaultUsersLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("invalid limit %q", s)))
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	users, err := a.mirror.RecentAccounts(ctx, limit)
	if err != nil {
		abortWithError(c, remoteError(err))
		return
	}

	active, err := a.mirror.ActiveAccounts(ctx)
	if err != nil {
		abortWithError(c, remoteError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "active": active})
}

func (a *API) listActions(c *gin.Context) {
	actions, err := a.mirror.Actions(c.Request.Context(), domain.ActionKind(c.Query("action")))
	if err != nil {
		abortWithError(c, remoteError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"actions": actions})
}

func (a *API) backfill(c *gin.Context) {
	ctx := c.Request.Context()

	accounts, err := a.accounts.List(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}

	res, err := a.mirror.Backfill(ctx, accounts)
	if err != nil {
		abortWithError(c, remoteError(err))
		return
	}

	c.JSON(http.StatusOK, res)
}

func remoteError(err error) error {
	if stderrors.Is(err, mirror.ErrDisabled) {
		return errors.New(errors.CodeFailedPrecondition, errors.WithMessagef("remote store is not configured"), errors.WithCause(err))
	}
	return err
}
