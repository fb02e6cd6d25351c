package service

import (
	"encoding/json"
	"fmt"

	"flashdecks_backend/internal/model"
	"flashdecks_backend/internal/repository"
	"flashdecks_backend/internal/util"
)

type CardService struct {
	CardRepo *repository.CardRepository
	DeckRepo *repository.DeckRepository
}

func NewCardService(cardRepo *repository.CardRepository, deckRepo *repository.DeckRepository) *CardService {
	return &CardService{
		CardRepo: cardRepo,
		DeckRepo: deckRepo,
	}
}

type CardInput struct {
	Type        model.CardType  `json:"type" binding:"required"`
	Prompt      string          `json:"prompt" binding:"required"`
	Answer      string          `json:"answer" binding:"required"`
	Explanation string          `json:"explanation"`
	Options     []string        `json:"options"`
	ClozeData   json.RawMessage `json:"clozeData"`
}

// ValidateCard enforces the per-type shape rules: a multiple choice card
// needs at least two options, one of them the answer; a cloze card needs
// at least one blank and exactly one prompt marker per blank.
func ValidateCard(card *model.Card) error {
	switch card.Type {
	case model.CardBasic, model.CardShortAnswer:
		return nil
	case model.CardMultipleChoice:
		opts := card.OptionList()
		if len(opts) < 2 {
			return fmt.Errorf("multiple choice card needs at least 2 options")
		}
		for _, opt := range opts {
			if normalize(opt) == normalize(card.Answer) {
				return nil
			}
		}
		return fmt.Errorf("answer %q is not one of the options", card.Answer)
	case model.CardCloze:
		blanks, err := card.ClozeBlanks()
		if err != nil {
			return fmt.Errorf("invalid cloze data: %v", err)
		}
		if len(blanks) == 0 {
			return fmt.Errorf("cloze card needs at least one blank")
		}
		for i, blank := range blanks {
			if len(blank.Answers) == 0 {
				return fmt.Errorf("cloze blank %d has no acceptable answers", i+1)
			}
		}
		if markers := card.BlankMarkerCount(); markers != len(blanks) {
			return fmt.Errorf("prompt has %d blank markers but %d blanks are defined", markers, len(blanks))
		}
		return nil
	default:
		return fmt.Errorf("unknown card type %q", card.Type)
	}
}

func (s *CardService) buildCard(deckID uint, input CardInput) (*model.Card, error) {
	card := &model.Card{
		DeckID:      deckID,
		Type:        input.Type,
		Prompt:      input.Prompt,
		Answer:      input.Answer,
		Explanation: input.Explanation,
		ClozeData:   input.ClozeData,
	}
	if input.Options != nil {
		data, err := json.Marshal(input.Options)
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

func (s *CardService) checkDeckOwnership(userID, deckID uint) error {
	deck, err := s.DeckRepo.FindByID(deckID)
	if err != nil {
		return err
	}
	if deck == nil {
		return util.ErrDeckNotFound
	}
	if deck.OwnerID != userID {
		return util.ErrPermissionDenied
	}
	return nil
}

func (s *CardService) Create(userID, deckID uint, input CardInput) (*model.Card, error) {
	if err := s.checkDeckOwnership(userID, deckID); err != nil {
		return nil, err
	}
	card, err := s.buildCard(deckID, input)
	if err != nil {
		return nil, err
	}
	if err := s.CardRepo.Create(card); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *CardService) Get(userID, cardID uint) (*model.Card, error) {
	card, err := s.CardRepo.FindByID(cardID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, util.ErrCardNotFound
	}
	if err := s.checkDeckOwnership(userID, card.DeckID); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *CardService) Update(userID, cardID uint, input CardInput) (*model.Card, error) {
	card, err := s.Get(userID, cardID)
	if err != nil {
		return nil, err
	}

	updated, err := s.buildCard(card.DeckID, input)
	if err != nil {
		return nil, err
	}
	updated.BaseModel = card.BaseModel
	if err := s.CardRepo.Update(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *CardService) Delete(userID, cardID uint) error {
	if _, err := s.Get(userID, cardID); err != nil {
		return err
	}
	return s.CardRepo.Delete(cardID)
}
