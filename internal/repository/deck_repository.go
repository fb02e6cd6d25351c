package repository

import (
	"errors"

	"flashdecks_backend/internal/model"

	"gorm.io/gorm"
)

type DeckRepository struct {
	DB *gorm.DB
}

func NewDeckRepository(db *gorm.DB) *DeckRepository {
	return &DeckRepository{DB: db}
}

func (r *DeckRepository) Create(deck *model.Deck) error {
	return r.DB.Create(deck).Error
}

func (r *DeckRepository) FindByID(id uint) (*model.Deck, error) {
	var deck model.Deck
	err := r.DB.Preload("Tags").First(&deck, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.DB.Model(&model.Card{}).Where("deck_id = ?", id).Count(&deck.CardCount)
	return &deck, nil
}

// ListByOwner returns the owner's decks, pinned first, with name filtering.
func (r *DeckRepository) ListByOwner(ownerID uint, search string, page, limit int) ([]model.Deck, int64, error) {
	var decks []model.Deck
	var total int64

	query := r.DB.Model(&model.Deck{}).Where("owner_id = ?", ownerID)
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Tags").
		Order("pinned DESC, updated_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&decks).Error
	if err != nil {
		return nil, 0, err
	}

	for i := range decks {
		r.DB.Model(&model.Card{}).Where("deck_id = ?", decks[i].ID).Count(&decks[i].CardCount)
	}
	return decks, total, nil
}

func (r *DeckRepository) Update(deck *model.Deck) error {
	return r.DB.Save(deck).Error
}

func (r *DeckRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("deck_id = ?", id).Delete(&model.Card{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Deck{}, id).Error
	})
}

func (r *DeckRepository) ReplaceTags(deck *model.Deck, tags []model.Tag) error {
	return r.DB.Model(deck).Association("Tags").Replace(tags)
}

// FindOrCreateTags resolves tag names to rows, creating missing ones.
func (r *DeckRepository) FindOrCreateTags(names []string) ([]model.Tag, error) {
	tags := make([]model.Tag, 0, len(names))
	for _, name := range names {
		var tag model.Tag
		err := r.DB.Where("name = ?", name).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = model.Tag{Name: name}
			if err := r.DB.Create(&tag).Error; err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
