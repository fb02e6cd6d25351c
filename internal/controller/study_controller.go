package controller

import (
	"errors"
	"net/http"

	"flashdecks_backend/internal/model"
	"flashdecks_backend/internal/service"
	"flashdecks_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StudyController struct {
	StudyService *service.StudyService
	ExamService  *service.ExamService
}

func NewStudyController(studyService *service.StudyService, examService *service.ExamService) *StudyController {
	return &StudyController{
		StudyService: studyService,
		ExamService:  examService,
	}
}

func studyError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrSessionClosed):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrCardNotInSession),
		errors.Is(err, util.ErrNoEligibleCards),
		errors.Is(err, util.ErrInvalidQuality),
		errors.Is(err, util.ErrMalformedAnswer),
		errors.Is(err, util.ErrWrongSessionMode):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// swagger:model CreateSessionRequest
type CreateSessionRequest struct {
	DeckID uint                `json:"deckId" binding:"required"`
	Mode   model.StudyMode     `json:"mode" binding:"required,oneof=review practice exam"`
	Config model.SessionConfig `json:"config"`
}

// CreateSession godoc
// @Summary Start a study session
// @Description Builds the card queue for the requested mode and returns the session.
// @Tags study
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateSessionRequest true "session request"
// @Success 201 {object} util.Response{data=model.StudySession}
// @Failure 400 {object} util.Response "no eligible cards for an exam"
// @Router /api/study/sessions [post]
func (c *StudyController) CreateSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.StudyService.CreateSession(claims.UserID, req.DeckID, req.Mode, req.Config)
	if err != nil {
		studyError(ctx, err)
		return
	}
	util.Created(ctx, session)
}

// GetSession godoc
// @Summary Get a session's state
// @Tags study
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} util.Response{data=model.StudySession}
// @Router /api/study/sessions/{id} [get]
func (c *StudyController) GetSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	session, err := c.StudyService.GetSession(claims.UserID, ctx.Param("id"))
	if err != nil {
		studyError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// swagger:model SubmitAnswerRequest
type SubmitAnswerRequest struct {
	CardID     uint   `json:"cardId" binding:"required"`
	UserAnswer string `json:"userAnswer"`
	Quality    *int   `json:"quality"`
}

// SubmitAnswer godoc
// @Summary Submit an answer for the current card
// @Description Review and practice answers are graded immediately; exam answers are buffered until the exam is submitted.
// @Tags study
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Param body body SubmitAnswerRequest true "answer"
// @Success 200 {object} util.Response{data=model.StudyResponse}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response "session already completed"
// @Router /api/study/sessions/{id}/answer [post]
func (c *StudyController) SubmitAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	sessionID := ctx.Param("id")

	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.StudyService.GetSession(claims.UserID, sessionID)
	if err != nil {
		studyError(ctx, err)
		return
	}

	if session.Mode == model.ModeExam {
		if err := c.ExamService.BufferAnswer(ctx.Request.Context(), claims.UserID, sessionID, req.CardID, req.UserAnswer); err != nil {
			studyError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, util.Response{
			Code:    http.StatusOK,
			Message: "buffered",
		})
		return
	}

	resp, err := c.StudyService.SubmitAnswer(ctx.Request.Context(), claims.UserID, sessionID, req.CardID, req.UserAnswer, req.Quality)
	if err != nil {
		studyError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// FinishSession godoc
// @Summary End a session early
// @Description Always permitted while active. An exam finished this way discards its buffered answers without grading.
// @Tags study
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} util.Response{data=model.StudySession}
// @Failure 409 {object} util.Response "already completed"
// @Router /api/study/sessions/{id}/finish [post]
func (c *StudyController) FinishSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	session, err := c.StudyService.Finish(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		studyError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// SubmitExam godoc
// @Summary Grade a buffered exam
// @Description Grades buffered answers in queue order, completes the session and returns the per-card summary.
// @Tags study
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} util.Response{data=service.ExamSummary}
// @Failure 409 {object} util.Response "already completed"
// @Router /api/study/sessions/{id}/submit-exam [post]
func (c *StudyController) SubmitExam(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	summary, err := c.ExamService.SubmitExam(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		studyError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// Responses godoc
// @Summary List answers recorded for a session
// @Tags study
// @Produce json
// @Security BearerAuth
// @Param id path string true "session id"
// @Success 200 {object} util.Response{data=[]model.StudyResponse}
// @Router /api/study/sessions/{id}/responses [get]
func (c *StudyController) Responses(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	resps, err := c.StudyService.Responses(claims.UserID, ctx.Param("id"))
	if err != nil {
		studyError(ctx, err)
		return
	}
	util.Success(ctx, resps)
}

// DueReviews godoc
// @Summary List all cards due for review, soonest first
// @Tags study
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.DueCard}
// @Router /api/study/reviews/due [get]
func (c *StudyController) DueReviews(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	due, err := c.StudyService.DueReviews(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, due)
}
