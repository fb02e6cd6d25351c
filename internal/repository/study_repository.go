package repository

import (
	"errors"
	"time"

	"flashdecks_backend/internal/model"

	"gorm.io/gorm"
)

// StudyRepository persists sessions, responses, memory records and per-deck
// progress for the study engine.
type StudyRepository struct {
	DB *gorm.DB
}

func NewStudyRepository(db *gorm.DB) *StudyRepository {
	return &StudyRepository{DB: db}
}

func (r *StudyRepository) CreateSession(session *model.StudySession) error {
	return r.DB.Create(session).Error
}

func (r *StudyRepository) FindSession(id string) (*model.StudySession, error) {
	var session model.StudySession
	err := r.DB.Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &session, err
}

func (r *StudyRepository) UpdateSession(session *model.StudySession) error {
	return r.DB.Save(session).Error
}

func (r *StudyRepository) CreateResponse(resp *model.StudyResponse) error {
	return r.DB.Create(resp).Error
}

func (r *StudyRepository) CreateResponses(resps []model.StudyResponse) error {
	if len(resps) == 0 {
		return nil
	}
	return r.DB.Create(&resps).Error
}

func (r *StudyRepository) ListResponses(sessionID string) ([]model.StudyResponse, error) {
	var resps []model.StudyResponse
	err := r.DB.Where("session_id = ?", sessionID).Order("id ASC").Find(&resps).Error
	return resps, err
}

func (r *StudyRepository) FindReview(userID, cardID uint) (*model.SRSReview, error) {
	var rev model.SRSReview
	err := r.DB.Where("user_id = ? AND card_id = ?", userID, cardID).First(&rev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &rev, err
}

func (r *StudyRepository) SaveReview(rev *model.SRSReview) error {
	return r.DB.Save(rev).Error
}

// ListReviewsForCards returns the memory records a user holds for the given
// cards, keyed by card id.
func (r *StudyRepository) ListReviewsForCards(userID uint, cardIDs []uint) (map[uint]model.SRSReview, error) {
	if len(cardIDs) == 0 {
		return map[uint]model.SRSReview{}, nil
	}
	var revs []model.SRSReview
	err := r.DB.Where("user_id = ? AND card_id IN ?", userID, cardIDs).Find(&revs).Error
	if err != nil {
		return nil, err
	}
	byCard := make(map[uint]model.SRSReview, len(revs))
	for _, rev := range revs {
		byCard[rev.CardID] = rev
	}
	return byCard, nil
}

// ListDue returns every (deck, card, dueAt) the user has due, soonest first,
// card id breaking ties.
func (r *StudyRepository) ListDue(userID uint, now time.Time) ([]model.DueCard, error) {
	var due []model.DueCard
	err := r.DB.Model(&model.SRSReview{}).
		Select("cards.deck_id AS deck_id, srs_reviews.card_id AS card_id, srs_reviews.due_at AS due_at").
		Joins("JOIN cards ON cards.id = srs_reviews.card_id AND cards.deleted_at IS NULL").
		Where("srs_reviews.user_id = ? AND srs_reviews.due_at <= ?", userID, now).
		Order("srs_reviews.due_at ASC, srs_reviews.card_id ASC").
		Scan(&due).Error
	return due, err
}

func (r *StudyRepository) FindProgress(userID, deckID uint) (*model.UserDeckProgress, error) {
	var p model.UserDeckProgress
	err := r.DB.Where("user_id = ? AND deck_id = ?", userID, deckID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &p, err
}

func (r *StudyRepository) SaveProgress(p *model.UserDeckProgress) error {
	return r.DB.Save(p).Error
}

// CountStudiedCards counts distinct deck cards the user has ever answered.
func (r *StudyRepository) CountStudiedCards(userID, deckID uint) (int64, error) {
	var n int64
	err := r.DB.Model(&model.StudyResponse{}).
		Joins("JOIN study_sessions ON study_sessions.id = study_responses.session_id").
		Joins("JOIN cards ON cards.id = study_responses.card_id").
		Where("study_sessions.user_id = ? AND cards.deck_id = ?", userID, deckID).
		Distinct("study_responses.card_id").
		Count(&n).Error
	return n, err
}
