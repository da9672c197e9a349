package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) getLeaderboard(c *gin.Context) {
	c.JSON(http.StatusOK, toLeaderboard(a.leaderboard.List(c.Request.Context())))
}
