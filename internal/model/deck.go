package model

// swagger:model Tag
type Tag struct {
	BaseModel
	Name string `gorm:"size:50;uniqueIndex;not null" json:"name"`
}

func (Tag) TableName() string {
	return "tags"
}

// swagger:model Deck
type Deck struct {
	BaseModel
	OwnerID     uint   `gorm:"index;not null" json:"ownerId"`
	Owner       User   `gorm:"foreignKey:OwnerID" json:"-"`
	Name        string `gorm:"size:200;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Pinned      bool   `gorm:"default:false" json:"pinned"`
	SourceDoc   string `gorm:"size:255" json:"sourceDoc,omitempty"`
	Tags        []Tag  `gorm:"many2many:deck_tags;" json:"tags"`
	Cards       []Card `gorm:"foreignKey:DeckID" json:"cards,omitempty"`
	CardCount   int64  `gorm:"-" json:"cardCount"`
}

func (Deck) TableName() string {
	return "decks"
}
