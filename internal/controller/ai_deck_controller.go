package controller

import (
	"errors"

	"flashdecks_backend/internal/service"
	"flashdecks_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AIDeckController struct {
	AIDeckService *service.AIDeckService
}

func NewAIDeckController(aiDeckService *service.AIDeckService) *AIDeckController {
	return &AIDeckController{AIDeckService: aiDeckService}
}

// Generate godoc
// @Summary Generate a deck from submitted text
// @Tags ai-decks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.GenerateDeckInput true "generation request"
// @Success 201 {object} util.Response{data=model.Deck}
// @Failure 502 {object} util.Response "model unavailable or unusable output"
// @Router /api/ai/decks [post]
func (c *AIDeckController) Generate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req service.GenerateDeckInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	deck, err := c.AIDeckService.GenerateDeck(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		aiDeckError(ctx, err)
		return
	}
	util.Created(ctx, deck)
}

// GenerateFromDocument godoc
// @Summary Generate a deck from an uploaded text document
// @Tags ai-decks
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string true "deck name"
// @Param file formData file true "plain text or markdown source"
// @Success 201 {object} util.Response{data=model.Deck}
// @Router /api/ai/decks/upload [post]
func (c *AIDeckController) GenerateFromDocument(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	name := ctx.PostForm("name")
	if name == "" {
		util.BadRequest(ctx, "name is required")
		return
	}
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	deck, err := c.AIDeckService.GenerateDeckFromDocument(ctx.Request.Context(), claims.UserID, name, fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		aiDeckError(ctx, err)
		return
	}
	util.Created(ctx, deck)
}

func aiDeckError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrLLMUnavailable), errors.Is(err, util.ErrMalformedLLMResponse):
		util.Error(ctx, 502, "deck generation failed, try again later")
	default:
		util.BadRequest(ctx, err.Error())
	}
}
