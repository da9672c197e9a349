package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/victornm/quizkeep/internal/account"
	"github.com/victornm/quizkeep/internal/domain"
)

// Account is the public view of an account. It never carries the password digest.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Avatar       string    `json:"avatar"`
	RegisteredAt time.Time `json:"registeredAt"`
	GamesPlayed  int       `json:"gamesPlayed"`
	BestScore    float64   `json:"bestScore"`
	TotalPoints  int       `json:"totalPoints"`
	IsAdmin      bool      `json:"isAdmin"`
}

func toAccount(a *domain.Account) Account {
	return Account{
		ID:           a.ID,
		Name:         a.Name,
		Avatar:       a.Avatar,
		RegisteredAt: a.RegisteredAt,
		GamesPlayed:  a.GamesPlayed,
		BestScore:    a.BestScore,
		TotalPoints:  a.TotalPoints,
		IsAdmin:      a.IsAdmin,
	}
}

type credentials struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *API) register(c *gin.Context) {
	var req credentials
	if !bind(c, &req) {
		return
	}

	acc, err := a.accounts.Register(c.Request.Context(), account.RegisterRequest{Name: req.Name, Password: req.Password})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toAccount(acc))
}

func (a *API) login(c *gin.Context) {
	var req credentials
	if !bind(c, &req) {
		return
	}

	acc, err := a.accounts.Authenticate(c.Request.Context(), account.AuthenticateRequest{Name: req.Name, Password: req.Password})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAccount(acc))
}

// logout always succeeds, even when nobody is logged in.
func (a *API) logout(c *gin.Context) {
	ctx := c.Request.Context()
	if cur := a.accounts.Current(ctx); cur != nil {
		a.accounts.Logout(ctx, cur.ID)
	}

	c.Status(http.StatusNoContent)
}

func (a *API) me(c *gin.Context) {
	c.JSON(http.StatusOK, toAccount(currentAccount(c)))
}

type profileRequest struct {
	Avatar *string `json:"avatar"`
}

// updateProfile is allowed on the current account, or on any account for an administrator.
func (a *API) updateProfile(c *gin.Context) {
	id := c.Param("id")
	if cur := currentAccount(c); cur.ID != id && !cur.IsAdmin {
		abortWithError(c, errNotAdmin)
		return
	}

	var req profileRequest
	if !bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	a.accounts.UpdateProfile(ctx, id, account.ProfileUpdate{Avatar: req.Avatar})

	acc, err := a.accounts.Get(ctx, id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAccount(acc))
}

func (a *API) listHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"records": a.history.List(c.Request.Context(), c.Param("id")),
	})
}

func (a *API) premium(c *gin.Context) {
	p, err := a.accounts.Premium(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}
