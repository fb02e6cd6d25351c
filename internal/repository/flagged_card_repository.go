package repository

import (
	"errors"

	"flashdecks_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FlaggedCardRepository struct {
	DB *gorm.DB
}

func NewFlaggedCardRepository(db *gorm.DB) *FlaggedCardRepository {
	return &FlaggedCardRepository{DB: db}
}

// Flag is idempotent: flagging an already-flagged card is a no-op.
func (r *FlaggedCardRepository) Flag(userID, cardID, deckID uint) error {
	flag := model.FlaggedCard{UserID: userID, CardID: cardID, DeckID: deckID}
	return r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&flag).Error
}

func (r *FlaggedCardRepository) Unflag(userID, cardID uint) error {
	return r.DB.Where("user_id = ? AND card_id = ?", userID, cardID).
		Delete(&model.FlaggedCard{}).Error
}

func (r *FlaggedCardRepository) IsFlagged(userID, cardID uint) (bool, error) {
	var flag model.FlaggedCard
	err := r.DB.Where("user_id = ? AND card_id = ?", userID, cardID).First(&flag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *FlaggedCardRepository) ListCardIDs(userID, deckID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.FlaggedCard{}).
		Where("user_id = ? AND deck_id = ?", userID, deckID).
		Order("card_id ASC").
		Pluck("card_id", &ids).Error
	return ids, err
}

func (r *FlaggedCardRepository) ListCards(userID, deckID uint) ([]model.Card, error) {
	var cards []model.Card
	err := r.DB.Model(&model.Card{}).
		Joins("JOIN flagged_cards ON flagged_cards.card_id = cards.id").
		Where("flagged_cards.user_id = ? AND flagged_cards.deck_id = ?", userID, deckID).
		Order("cards.id ASC").
		Find(&cards).Error
	return cards, err
}

// CountByDeck returns flag counts per deck for the user.
func (r *FlaggedCardRepository) CountByDeck(userID uint) (map[uint]int64, error) {
	type row struct {
		DeckID uint
		N      int64
	}
	var rows []row
	err := r.DB.Model(&model.FlaggedCard{}).
		Select("deck_id, COUNT(*) AS n").
		Where("user_id = ?", userID).
		Group("deck_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.DeckID] = r.N
	}
	return counts, nil
}
