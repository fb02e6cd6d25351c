package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"flashdecks_backend/internal/model"
	"flashdecks_backend/internal/repository"
	"flashdecks_backend/internal/util"
	"flashdecks_backend/pkg/logger"

	"go.uber.org/zap"
)

// AIDeckService builds whole decks from source text via the LLM. Only
// plain text and markdown sources are accepted; binary formats are out.
type AIDeckService struct {
	LLM      *LLMService
	DeckRepo *repository.DeckRepository
	CardRepo *repository.CardRepository
	Storage  StorageProvider
}

func NewAIDeckService(llm *LLMService, deckRepo *repository.DeckRepository, cardRepo *repository.CardRepository, storage StorageProvider) *AIDeckService {
	return &AIDeckService{
		LLM:      llm,
		DeckRepo: deckRepo,
		CardRepo: cardRepo,
		Storage:  storage,
	}
}

type GenerateDeckInput struct {
	Name      string   `json:"name" binding:"required"`
	Text      string   `json:"text" binding:"required"`
	CardCount int      `json:"cardCount"`
	Tags      []string `json:"tags"`
}

const maxSourceTextBytes = 64 * 1024

// GenerateDeck asks the model for cards, keeps the valid ones and persists
// them as a new deck. At least one card must survive validation.
func (s *AIDeckService) GenerateDeck(ctx context.Context, userID uint, input GenerateDeckInput) (*model.Deck, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, fmt.Errorf("source text is empty")
	}
	if len(text) > maxSourceTextBytes {
		text = text[:maxSourceTextBytes]
	}

	generated, err := s.LLM.GenerateCards(ctx, text, input.CardCount)
	if err != nil {
		return nil, err
	}

	cards := make([]model.Card, 0, len(generated))
	for i, g := range generated {
		card, err := s.toCard(g)
		if err != nil {
			logger.Log.Warn("dropping invalid generated card",
				zap.Int("index", i), zap.String("type", g.Type), zap.Error(err))
			continue
		}
		cards = append(cards, *card)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: no valid cards in model output", util.ErrMalformedLLMResponse)
	}

	deck := &model.Deck{
		OwnerID:     userID,
		Name:        input.Name,
		Description: "Generated from submitted text",
	}
	if len(input.Tags) > 0 {
		tags, err := s.DeckRepo.FindOrCreateTags(input.Tags)
		if err != nil {
			return nil, err
		}
		deck.Tags = tags
	}
	if err := s.DeckRepo.Create(deck); err != nil {
		return nil, err
	}

	for i := range cards {
		cards[i].DeckID = deck.ID
	}
	if err := s.CardRepo.CreateBatch(cards); err != nil {
		return nil, err
	}
	deck.Cards = cards
	return deck, nil
}

// GenerateDeckFromDocument stores the uploaded source, reads it as text
// and runs the same generation path.
func (s *AIDeckService) GenerateDeckFromDocument(ctx context.Context, userID uint, name, filename string, reader io.Reader, size int64) (*model.Deck, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	allowed := false
	for _, e := range util.AllowedDocumentExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("unsupported document type %q, only plain text is accepted", ext)
	}

	content, err := io.ReadAll(io.LimitReader(reader, maxSourceTextBytes))
	if err != nil {
		return nil, err
	}

	// Extension alone is not trusted, sniff the actual bytes too.
	mimeType := util.DetectMimeType(content)
	if err := util.ValidateMimeType(mimeType, []string{util.MimeText}); err != nil {
		return nil, err
	}

	storedName := fmt.Sprintf("sources/%d/%s", userID, filepath.Base(filename))
	url, err := s.Storage.Upload(ctx, storedName, strings.NewReader(string(content)), int64(len(content)), util.MimeText+"plain")
	if err != nil {
		return nil, err
	}

	deck, err := s.GenerateDeck(ctx, userID, GenerateDeckInput{Name: name, Text: string(content)})
	if err != nil {
		return nil, err
	}
	deck.SourceDoc = url
	if err := s.DeckRepo.Update(deck); err != nil {
		return nil, err
	}
	return deck, nil
}

// toCard converts one generated card, enforcing the same shape rules as
// manual card creation.
func (s *AIDeckService) toCard(g GeneratedCard) (*model.Card, error) {
	cardType := model.CardType(g.Type)
	switch cardType {
	case model.CardBasic, model.CardMultipleChoice, model.CardShortAnswer, model.CardCloze:
	default:
		cardType = model.CardBasic
	}
	if strings.TrimSpace(g.Prompt) == "" || strings.TrimSpace(g.Answer) == "" {
		return nil, fmt.Errorf("missing prompt or answer")
	}

	card := &model.Card{
		Type:        cardType,
		Prompt:      g.Prompt,
		Answer:      g.Answer,
		Explanation: g.Explanation,
		ClozeData:   g.ClozeData,
	}
	if len(g.Options) > 0 {
		data, err := json.Marshal(g.Options)
		if err != nil {
			return nil, err
		}
		card.Options = data
	}
	if err := ValidateCard(card); err != nil {
		return nil, err
	}
	return card, nil
}
