package service

import (
	"flashdecks_backend/internal/model"
	"flashdecks_backend/internal/repository"
	"flashdecks_backend/internal/util"
)

// FlaggedCardService lets a learner mark cards to revisit. Flagged cards
// feed practice sessions started with flaggedOnly.
type FlaggedCardService struct {
	FlagRepo *repository.FlaggedCardRepository
	CardRepo *repository.CardRepository
	DeckRepo *repository.DeckRepository
}

func NewFlaggedCardService(flagRepo *repository.FlaggedCardRepository, cardRepo *repository.CardRepository, deckRepo *repository.DeckRepository) *FlaggedCardService {
	return &FlaggedCardService{
		FlagRepo: flagRepo,
		CardRepo: cardRepo,
		DeckRepo: deckRepo,
	}
}

func (s *FlaggedCardService) Flag(userID, cardID uint) error {
	card, err := s.CardRepo.FindByID(cardID)
	if err != nil {
		return err
	}
	if card == nil {
		return util.ErrCardNotFound
	}
	return s.FlagRepo.Flag(userID, cardID, card.DeckID)
}

func (s *FlaggedCardService) Unflag(userID, cardID uint) error {
	return s.FlagRepo.Unflag(userID, cardID)
}

func (s *FlaggedCardService) ListCards(userID, deckID uint) ([]model.Card, error) {
	deck, err := s.DeckRepo.FindByID(deckID)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, util.ErrDeckNotFound
	}
	return s.FlagRepo.ListCards(userID, deckID)
}

func (s *FlaggedCardService) ListCardIDs(userID, deckID uint) ([]uint, error) {
	return s.FlagRepo.ListCardIDs(userID, deckID)
}

func (s *FlaggedCardService) CountByDeck(userID uint) (map[uint]int64, error) {
	return s.FlagRepo.CountByDeck(userID)
}
