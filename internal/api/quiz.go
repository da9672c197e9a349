package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/victornm/quizkeep/internal/domain"
	"github.com/victornm/quizkeep/internal/errors"
	"github.com/victornm/quizkeep/internal/quiz"
)

func (a *API) listModes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"modes": a.questions.Modes()})
}

type startRequest struct {
	Mode string `json:"mode" binding:"required"`
}

func (a *API) startQuiz(c *gin.Context) {
	var req startRequest
	if !bind(c, &req) {
		return
	}

	mode, ok := a.questions.Mode(req.Mode)
	if !ok {
		abortWithError(c, errors.New(errors.CodeNotFound, errors.WithMessagef("unknown mode %q", req.Mode)))
		return
	}

	ss, err := a.quiz.Start(c.Request.Context(), mode)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ss.Snapshot())
}

func (a *API) getQuiz(c *gin.Context) {
	ss, ok := a.session(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, ss.Snapshot())
}

type answerRequest struct {
	Option *int `json:"option" binding:"required"`
}

func (a *API) submitAnswer(c *gin.Context) {
	var req answerRequest
	if !bind(c, &req) {
		return
	}

	ss, ok := a.session(c)
	if !ok {
		return
	}

	renderSnapshot(c)(ss.Submit(*req.Option))
}

func (a *API) nextQuestion(c *gin.Context) {
	ss, ok := a.session(c)
	if !ok {
		return
	}

	renderSnapshot(c)(ss.Next(c.Request.Context()))
}

const (
	abortRequest = "request"
	abortConfirm = "confirm"
	abortDismiss = "dismiss"
)

type abortBody struct {
	Action string `json:"action" binding:"required,oneof=request confirm dismiss"`
}

func (a *API) abortQuiz(c *gin.Context) {
	var req abortBody
	if !bind(c, &req) {
		return
	}

	ss, ok := a.session(c)
	if !ok {
		return
	}

	switch req.Action {
	case abortRequest:
		renderSnapshot(c)(ss.RequestAbort())
	case abortConfirm:
		renderSnapshot(c)(ss.ConfirmAbort())
	case abortDismiss:
		renderSnapshot(c)(ss.DismissAbort())
	}
}

func (a *API) session(c *gin.Context) (*quiz.Session, bool) {
	ss, err := a.quiz.Session(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return ss, true
}

func renderSnapshot(c *gin.Context) func(domain.QuizSnapshot, error) {
	return func(snap domain.QuizSnapshot, err error) {
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}
