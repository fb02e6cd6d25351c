package controller

import (
	"errors"
	"strconv"

	"flashdecks_backend/internal/service"
	"flashdecks_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DeckController struct {
	DeckService *service.DeckService
}

func NewDeckController(deckService *service.DeckService) *DeckController {
	return &DeckController{DeckService: deckService}
}

func deckError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrDeckNotFound), errors.Is(err, util.ErrCardNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

// Create godoc
// @Summary Create a deck
// @Tags decks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.DeckInput true "deck"
// @Success 201 {object} util.Response{data=model.Deck}
// @Router /api/decks [post]
func (c *DeckController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.DeckInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	deck, err := c.DeckService.Create(claims.UserID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, deck)
}

// List godoc
// @Summary List the user's decks
// @Tags decks
// @Produce json
// @Security BearerAuth
// @Param search query string false "name filter"
// @Param page query int false "page"
// @Param limit query int false "page size"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/decks [get]
func (c *DeckController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	decks, total, err := c.DeckService.List(claims.UserID, ctx.Query("search"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: decks, Total: total, Page: page, Limit: limit})
}

// Get godoc
// @Summary Get one deck with tags and card count
// @Tags decks
// @Produce json
// @Security BearerAuth
// @Param id path int true "deck id"
// @Success 200 {object} util.Response{data=model.Deck}
// @Router /api/decks/{id} [get]
func (c *DeckController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	deck, err := c.DeckService.Get(claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		deckError(ctx, err)
		return
	}
	util.Success(ctx, deck)
}

// Update godoc
// @Summary Update a deck
// @Tags decks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "deck id"
// @Param body body service.DeckInput true "deck"
// @Success 200 {object} util.Response{data=model.Deck}
// @Router /api/decks/{id} [put]
func (c *DeckController) Update(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.DeckInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	deck, err := c.DeckService.Update(claims.UserID, util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		deckError(ctx, err)
		return
	}
	util.Success(ctx, deck)
}

// Delete godoc
// @Summary Delete a deck and its cards
// @Tags decks
// @Produce json
// @Security BearerAuth
// @Param id path int true "deck id"
// @Success 200 {object} util.Response
// @Router /api/decks/{id} [delete]
func (c *DeckController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if err := c.DeckService.Delete(claims.UserID, util.MustParseUint(ctx.Param("id"))); err != nil {
		deckError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Cards godoc
// @Summary List a deck's cards
// @Tags decks
// @Produce json
// @Security BearerAuth
// @Param id path int true "deck id"
// @Success 200 {object} util.Response{data=[]model.Card}
// @Router /api/decks/{id}/cards [get]
func (c *DeckController) Cards(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	cards, err := c.DeckService.Cards(claims.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		deckError(ctx, err)
		return
	}
	util.Success(ctx, cards)
}
