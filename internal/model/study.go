package model

import (
	"encoding/json"
	"time"
)

type StudyMode string

const (
	ModeReview   StudyMode = "review"
	ModePractice StudyMode = "practice"
	ModeExam     StudyMode = "exam"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// Verdict provenance: whether correctness came from the semantic checker
// or from the deterministic exact-match path.
const (
	ProvenanceExactMatch    = "exact_match"
	ProvenanceSemanticCheck = "semantic_check"
)

// SessionConfig is the caller-supplied session options, stored verbatim.
type SessionConfig struct {
	Endless     bool `json:"endless,omitempty"`
	CardLimit   int  `json:"cardLimit,omitempty"`
	FlaggedOnly bool `json:"flaggedOnly,omitempty"`
}

// swagger:model StudySession
type StudySession struct {
	UUIDBase
	UserID uint          `gorm:"index;not null" json:"userId"`
	DeckID uint          `gorm:"index;not null" json:"deckId"`
	Mode   StudyMode     `gorm:"size:20;not null" json:"mode"`
	Status SessionStatus `gorm:"size:20;not null;default:'active'" json:"status"`
	// JSON-encoded SessionConfig, kept as submitted.
	Config json.RawMessage `gorm:"type:json" json:"config,omitempty"`
	// JSON array of card ids, materialized once at creation. Only a
	// practice session running endless ever rewrites it.
	Queue        json.RawMessage `gorm:"type:json;not null" json:"queue"`
	CurrentIndex int             `gorm:"default:0" json:"currentIndex"`
	StartedAt    time.Time       `json:"startedAt"`
	EndedAt      *time.Time      `json:"endedAt,omitempty"`
}

func (StudySession) TableName() string {
	return "study_sessions"
}

func (s *StudySession) QueueIDs() ([]uint, error) {
	var ids []uint
	if err := json.Unmarshal(s.Queue, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *StudySession) ConfigOptions() SessionConfig {
	var cfg SessionConfig
	if len(s.Config) > 0 {
		json.Unmarshal(s.Config, &cfg)
	}
	return cfg
}

// swagger:model StudyResponse
type StudyResponse struct {
	BaseModel
	SessionID   string    `gorm:"index;type:varchar(36);not null" json:"sessionId"`
	CardID      uint      `gorm:"index;not null" json:"cardId"`
	UserAnswer  string    `gorm:"type:text" json:"userAnswer"`
	IsCorrect   *bool     `json:"isCorrect,omitempty"`
	Quality     *int      `json:"quality,omitempty"`
	Provenance  string    `gorm:"size:20" json:"provenance,omitempty"`
	Feedback    string    `gorm:"type:text" json:"feedback,omitempty"`
	RespondedAt time.Time `json:"respondedAt"`
}

func (StudyResponse) TableName() string {
	return "study_responses"
}

// SRSReview is the per-user per-card memory record driving review scheduling.
// Created lazily on the first graded review, never deleted.
type SRSReview struct {
	BaseModel
	UserID       uint      `gorm:"uniqueIndex:idx_user_card;not null" json:"userId"`
	CardID       uint      `gorm:"uniqueIndex:idx_user_card;not null" json:"cardId"`
	Repetitions  int       `gorm:"default:0" json:"repetitions"`
	IntervalDays int       `gorm:"default:1" json:"intervalDays"`
	Easiness     float64   `gorm:"default:2.5" json:"easiness"`
	DueAt        time.Time `gorm:"index" json:"dueAt"`
	LastQuality  *int      `json:"lastQuality,omitempty"`
}

func (SRSReview) TableName() string {
	return "srs_reviews"
}

// swagger:model UserDeckProgress
type UserDeckProgress struct {
	BaseModel
	UserID        uint       `gorm:"uniqueIndex:idx_user_deck;not null" json:"userId"`
	DeckID        uint       `gorm:"uniqueIndex:idx_user_deck;not null" json:"deckId"`
	CardsStudied  int        `gorm:"default:0" json:"cardsStudied"`
	PercentDone   float64    `gorm:"default:0" json:"percentDone"`
	LastStudiedAt *time.Time `json:"lastStudiedAt,omitempty"`
}

func (UserDeckProgress) TableName() string {
	return "user_deck_progress"
}

// DueCard is the projection returned by the due-reviews listing.
type DueCard struct {
	DeckID uint      `json:"deckId"`
	CardID uint      `json:"cardId"`
	DueAt  time.Time `json:"dueAt"`
}
