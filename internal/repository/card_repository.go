package repository

import (
	"errors"

	"flashdecks_backend/internal/model"

	"gorm.io/gorm"
)

type CardRepository struct {
	DB *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{DB: db}
}

func (r *CardRepository) Create(card *model.Card) error {
	return r.DB.Create(card).Error
}

func (r *CardRepository) CreateBatch(cards []model.Card) error {
	if len(cards) == 0 {
		return nil
	}
	return r.DB.Create(&cards).Error
}

func (r *CardRepository) FindByID(id uint) (*model.Card, error) {
	var card model.Card
	err := r.DB.First(&card, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &card, err
}

func (r *CardRepository) ListByDeck(deckID uint) ([]model.Card, error) {
	var cards []model.Card
	err := r.DB.Where("deck_id = ?", deckID).Order("id ASC").Find(&cards).Error
	return cards, err
}

func (r *CardRepository) ListByIDs(ids []uint) ([]model.Card, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var cards []model.Card
	err := r.DB.Where("id IN ?", ids).Find(&cards).Error
	return cards, err
}

func (r *CardRepository) CountByDeck(deckID uint) (int64, error) {
	var n int64
	err := r.DB.Model(&model.Card{}).Where("deck_id = ?", deckID).Count(&n).Error
	return n, err
}

func (r *CardRepository) Update(card *model.Card) error {
	return r.DB.Save(card).Error
}

func (r *CardRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Card{}, id).Error
}
