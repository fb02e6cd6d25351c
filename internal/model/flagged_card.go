package model

// FlaggedCard marks a card a user wants to revisit. Flagging is idempotent.
type FlaggedCard struct {
	BaseModel
	UserID uint `gorm:"uniqueIndex:idx_user_flag;not null" json:"userId"`
	CardID uint `gorm:"uniqueIndex:idx_user_flag;not null" json:"cardId"`
	DeckID uint `gorm:"index;not null" json:"deckId"`
}

func (FlaggedCard) TableName() string {
	return "flagged_cards"
}
