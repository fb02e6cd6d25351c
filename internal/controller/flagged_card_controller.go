package controller

import (
	"errors"

	"flashdecks_backend/internal/service"
	"flashdecks_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type FlaggedCardController struct {
	FlaggedCardService *service.FlaggedCardService
}

func NewFlaggedCardController(flaggedCardService *service.FlaggedCardService) *FlaggedCardController {
	return &FlaggedCardController{FlaggedCardService: flaggedCardService}
}

// Flag godoc
// @Summary Flag a card for later review (idempotent)
// @Tags flagged-cards
// @Produce json
// @Security BearerAuth
// @Param id path int true "card id"
// @Success 200 {object} util.Response
// @Router /api/cards/{id}/flag [post]
func (c *FlaggedCardController) Flag(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.FlaggedCardService.Flag(claims.UserID, util.MustParseUint(ctx.Param("id"))); err != nil {
		if errors.Is(err, util.ErrCardNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Unflag godoc
// @Summary Remove a card's flag
// @Tags flagged-cards
// @Produce json
// @Security BearerAuth
// @Param id path int true "card id"
// @Success 200 {object} util.Response
// @Router /api/cards/{id}/flag [delete]
func (c *FlaggedCardController) Unflag(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.FlaggedCardService.Unflag(claims.UserID, util.MustParseUint(ctx.Param("id"))); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListByDeck godoc
// @Summary List the user's flagged cards in a deck
// @Tags flagged-cards
// @Produce json
// @Security BearerAuth
// @Param id path int true "deck id"
// @Success 200 {object} util.Response{data=[]model.Card}
// @Router /api/decks/{id}/flagged [get]
func (c *FlaggedCardController) ListByDeck(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	cards, err := c.FlaggedCardService.ListCards(claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, util.ErrDeckNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, cards)
}

// Counts godoc
// @Summary Flag counts per deck
// @Tags flagged-cards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=map[uint]int64}
// @Router /api/flagged/counts [get]
func (c *FlaggedCardController) Counts(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	counts, err := c.FlaggedCardService.CountByDeck(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, counts)
}
