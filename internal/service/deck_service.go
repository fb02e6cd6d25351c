package service

import (
	"flashdecks_backend/internal/model"
	"flashdecks_backend/internal/repository"
	"flashdecks_backend/internal/util"
)

type DeckService struct {
	DeckRepo *repository.DeckRepository
	CardRepo *repository.CardRepository
}

func NewDeckService(deckRepo *repository.DeckRepository, cardRepo *repository.CardRepository) *DeckService {
	return &DeckService{
		DeckRepo: deckRepo,
		CardRepo: cardRepo,
	}
}

type DeckInput struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Pinned      bool     `json:"pinned"`
	Tags        []string `json:"tags"`
}

func (s *DeckService) Create(ownerID uint, input DeckInput) (*model.Deck, error) {
	deck := &model.Deck{
		OwnerID:     ownerID,
		Name:        input.Name,
		Description: input.Description,
		Pinned:      input.Pinned,
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
	return deck, nil
}

// getOwned fetches a deck and enforces ownership.
func (s *DeckService) getOwned(ownerID, deckID uint) (*model.Deck, error) {
	deck, err := s.DeckRepo.FindByID(deckID)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, util.ErrDeckNotFound
	}
	if deck.OwnerID != ownerID {
		return nil, util.ErrPermissionDenied
	}
	return deck, nil
}

func (s *DeckService) Get(ownerID, deckID uint) (*model.Deck, error) {
	return s.getOwned(ownerID, deckID)
}

func (s *DeckService) List(ownerID uint, search string, page, limit int) ([]model.Deck, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.DeckRepo.ListByOwner(ownerID, search, page, limit)
}

func (s *DeckService) Update(ownerID, deckID uint, input DeckInput) (*model.Deck, error) {
	deck, err := s.getOwned(ownerID, deckID)
	if err != nil {
		return nil, err
	}

	deck.Name = input.Name
	deck.Description = input.Description
	deck.Pinned = input.Pinned
	if err := s.DeckRepo.Update(deck); err != nil {
		return nil, err
	}
	if input.Tags != nil {
		tags, err := s.DeckRepo.FindOrCreateTags(input.Tags)
		if err != nil {
			return nil, err
		}
		if err := s.DeckRepo.ReplaceTags(deck, tags); err != nil {
			return nil, err
		}
		deck.Tags = tags
	}
	return deck, nil
}

func (s *DeckService) Delete(ownerID, deckID uint) error {
	if _, err := s.getOwned(ownerID, deckID); err != nil {
		return err
	}
	return s.DeckRepo.Delete(deckID)
}

func (s *DeckService) Cards(ownerID, deckID uint) ([]model.Card, error) {
	if _, err := s.getOwned(ownerID, deckID); err != nil {
		return nil, err
	}
	return s.CardRepo.ListByDeck(deckID)
}
