package controller

import (
	"flashdecks_backend/internal/service"
	"flashdecks_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CardController struct {
	CardService *service.CardService
}

func NewCardController(cardService *service.CardService) *CardController {
	return &CardController{CardService: cardService}
}

// Create godoc
// @Summary Add a card to a deck
// @Tags cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "deck id"
// @Param body body service.CardInput true "card"
// @Success 201 {object} util.Response{data=model.Card}
// @Failure 400 {object} util.Response
// @Router /api/decks/{id}/cards [post]
func (c *CardController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.CardInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	card, err := c.CardService.Create(claims.UserID, util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		cardError(ctx, err)
		return
	}
	util.Created(ctx, card)
}

// Get godoc
// @Summary Get one card
// @Tags cards
// @Produce json
// @Security BearerAuth
// @Param id path int true "card id"
// @Success 200 {object} util.Response{data=model.Card}
// @Router /api/cards/{id} [get]
func (c *CardController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	card, err := c.CardService.Get(claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		cardError(ctx, err)
		return
	}
	util.Success(ctx, card)
}

// Update godoc
// @Summary Replace a card's content
// @Tags cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "card id"
// @Param body body service.CardInput true "card"
// @Success 200 {object} util.Response{data=model.Card}
// @Router /api/cards/{id} [put]
func (c *CardController) Update(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.CardInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	card, err := c.CardService.Update(claims.UserID, util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		cardError(ctx, err)
		return
	}
	util.Success(ctx, card)
}

// Delete godoc
// @Summary Delete a card
// @Tags cards
// @Produce json
// @Security BearerAuth
// @Param id path int true "card id"
// @Success 200 {object} util.Response
// @Router /api/cards/{id} [delete]
func (c *CardController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.CardService.Delete(claims.UserID, util.MustParseUint(ctx.Param("id"))); err != nil {
		cardError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

func cardError(ctx *gin.Context, err error) {
	switch {
	case err == util.ErrCardNotFound || err == util.ErrDeckNotFound:
		util.NotFound(ctx)
	case err == util.ErrPermissionDenied:
		util.Forbidden(ctx)
	default:
		// Validation failures read better as 400s than 500s.
		util.BadRequest(ctx, err.Error())
	}
}
