package service

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"sync"
	"time"

	"flashdecks_backend/internal/model"
	"flashdecks_backend/internal/srs"
	"flashdecks_backend/internal/util"
	"flashdecks_backend/pkg/logger"
	"flashdecks_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// CardSource is read-only access to deck cards.
type CardSource interface {
	ListByDeck(deckID uint) ([]model.Card, error)
	ListByIDs(ids []uint) ([]model.Card, error)
	CountByDeck(deckID uint) (int64, error)
}

// SessionStore persists sessions, responses, memory records and progress.
type SessionStore interface {
	CreateSession(session *model.StudySession) error
	FindSession(id string) (*model.StudySession, error)
	UpdateSession(session *model.StudySession) error
	CreateResponse(resp *model.StudyResponse) error
	CreateResponses(resps []model.StudyResponse) error
	ListResponses(sessionID string) ([]model.StudyResponse, error)
	FindReview(userID, cardID uint) (*model.SRSReview, error)
	SaveReview(rev *model.SRSReview) error
	ListReviewsForCards(userID uint, cardIDs []uint) (map[uint]model.SRSReview, error)
	ListDue(userID uint, now time.Time) ([]model.DueCard, error)
	FindProgress(userID, deckID uint) (*model.UserDeckProgress, error)
	SaveProgress(p *model.UserDeckProgress) error
	CountStudiedCards(userID, deckID uint) (int64, error)
}

// FlaggedSource lists the user's flagged card ids for a deck.
type FlaggedSource interface {
	ListCardIDs(userID, deckID uint) ([]uint, error)
}

// StreakStore is the slice of user persistence the engine touches.
type StreakStore interface {
	FindByID(id uint) (*model.User, error)
	Update(user *model.User) error
}

// ExamBuffer holds raw exam answers between submission and batch grading.
type ExamBuffer interface {
	Put(ctx context.Context, sessionID string, cardID uint, rawAnswer string) error
	Has(ctx context.Context, sessionID string, cardID uint) (bool, error)
	All(ctx context.Context, sessionID string) (map[uint]string, error)
	Clear(ctx context.Context, sessionID string) error
}

// StudyService drives study sessions: queue construction, the answer loop,
// scheduling updates and progress tracking. Exam batch grading lives in
// ExamService; exam answers pass through here only on finish, where the
// buffer is discarded.
type StudyService struct {
	Cards  CardSource
	Store  SessionStore
	Flags  FlaggedSource
	Users  StreakStore
	Grader *GraderService
	Buffer ExamBuffer

	// MaxCards caps cardLimit; 0 means uncapped.
	MaxCards int

	// Rand is not safe for concurrent use; every shuffle goes through
	// shuffle, which holds randMu.
	Rand *rand.Rand
	Now  func() time.Time

	randMu       sync.Mutex
	sessionLocks sync.Map
}

func NewStudyService(cards CardSource, store SessionStore, flags FlaggedSource, users StreakStore, grader *GraderService, buffer ExamBuffer) *StudyService {
	return &StudyService{
		Cards:  cards,
		Store:  store,
		Flags:  flags,
		Users:  users,
		Grader: grader,
		Buffer: buffer,
		Rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		Now:    time.Now,
	}
}

// shuffle permutes ids in place. Queue builds for unrelated sessions run
// concurrently, so the shared source is guarded.
func (s *StudyService) shuffle(ids []uint) {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	s.Rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

// lockSession serializes mutating calls on one session. Overlapping calls
// for the same session wait their turn; the loser of a same-card race then
// fails the current-card check instead of double-recording. Returns the
// unlock func.
func (s *StudyService) lockSession(sessionID string) func() {
	v, _ := s.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// CreateSession materializes the queue for the requested mode and persists
// the session. The queue never changes afterwards, except that an endless
// practice session reshuffles on exhaustion.
func (s *StudyService) CreateSession(userID, deckID uint, mode model.StudyMode, cfg model.SessionConfig) (*model.StudySession, error) {
	queue, err := s.buildQueue(userID, deckID, mode, cfg)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	queueJSON, err := json.Marshal(queue)
	if err != nil {
		return nil, err
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	session := &model.StudySession{
		UserID:    userID,
		DeckID:    deckID,
		Mode:      mode,
		Status:    model.SessionActive,
		Config:    cfgJSON,
		Queue:     queueJSON,
		StartedAt: now,
	}
	// Nothing to study: the session is born completed rather than failing,
	// except exams, which refuse to start.
	if len(queue) == 0 {
		session.Status = model.SessionCompleted
		ended := now
		session.EndedAt = &ended
	}

	if err := s.Store.CreateSession(session); err != nil {
		return nil, err
	}
	monitoring.SessionsStarted.WithLabelValues(string(mode)).Inc()
	return session, nil
}

func (s *StudyService) buildQueue(userID, deckID uint, mode model.StudyMode, cfg model.SessionConfig) ([]uint, error) {
	cards, err := s.Cards.ListByDeck(deckID)
	if err != nil {
		return nil, err
	}

	switch mode {
	case model.ModeReview:
		return s.buildReviewQueue(userID, cards)
	case model.ModePractice:
		return s.buildPracticeQueue(userID, deckID, cards, cfg)
	case model.ModeExam:
		return s.buildExamQueue(cards)
	default:
		return nil, util.ErrNoEligibleCards
	}
}

// buildReviewQueue keeps the cards whose memory record is due, soonest
// first, card id breaking ties.
func (s *StudyService) buildReviewQueue(userID uint, cards []model.Card) ([]uint, error) {
	ids := make([]uint, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	reviews, err := s.Store.ListReviewsForCards(userID, ids)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	type dueEntry struct {
		cardID uint
		dueAt  time.Time
	}
	var due []dueEntry
	for _, c := range cards {
		rev, ok := reviews[c.ID]
		if !ok || rev.DueAt.After(now) {
			continue
		}
		due = append(due, dueEntry{cardID: c.ID, dueAt: rev.DueAt})
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].dueAt.Equal(due[j].dueAt) {
			return due[i].cardID < due[j].cardID
		}
		return due[i].dueAt.Before(due[j].dueAt)
	})

	queue := make([]uint, len(due))
	for i, d := range due {
		queue[i] = d.cardID
	}
	return queue, nil
}

func (s *StudyService) buildPracticeQueue(userID, deckID uint, cards []model.Card, cfg model.SessionConfig) ([]uint, error) {
	ids := make([]uint, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}

	if cfg.FlaggedOnly {
		flagged, err := s.Flags.ListCardIDs(userID, deckID)
		if err != nil {
			return nil, err
		}
		flaggedSet := make(map[uint]bool, len(flagged))
		for _, id := range flagged {
			flaggedSet[id] = true
		}
		kept := ids[:0]
		for _, id := range ids {
			if flaggedSet[id] {
				kept = append(kept, id)
			}
		}
		ids = kept
	}

	s.shuffle(ids)

	limit := cfg.CardLimit
	if s.MaxCards > 0 && (limit <= 0 || limit > s.MaxCards) {
		limit = s.MaxCards
	}
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return ids, nil
}

// buildExamQueue shuffles the gradeable cards. Basic cards have no
// automatic verdict and never appear in an exam.
func (s *StudyService) buildExamQueue(cards []model.Card) ([]uint, error) {
	var ids []uint
	for _, c := range cards {
		switch c.Type {
		case model.CardMultipleChoice, model.CardShortAnswer, model.CardCloze:
			ids = append(ids, c.ID)
		}
	}
	if len(ids) == 0 {
		return nil, util.ErrNoEligibleCards
	}
	s.shuffle(ids)
	return ids, nil
}

// GetSession returns the user's session or ErrSessionNotFound.
func (s *StudyService) GetSession(userID uint, sessionID string) (*model.StudySession, error) {
	session, err := s.Store.FindSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != userID {
		return nil, util.ErrSessionNotFound
	}
	return session, nil
}

// SubmitAnswer records one answer in a review or practice session: grades
// it, applies SM-2 in review mode, appends the response and advances the
// queue. Exam sessions never reach here; their answers are buffered by
// ExamService.
func (s *StudyService) SubmitAnswer(ctx context.Context, userID uint, sessionID string, cardID uint, rawAnswer string, quality *int) (*model.StudyResponse, error) {
	defer s.lockSession(sessionID)()

	session, err := s.GetSession(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionCompleted {
		return nil, util.ErrSessionClosed
	}
	// Exam answers are buffered by ExamService, never graded here.
	if session.Mode == model.ModeExam {
		return nil, util.ErrWrongSessionMode
	}

	queue, err := session.QueueIDs()
	if err != nil {
		return nil, err
	}
	if session.CurrentIndex >= len(queue) || queue[session.CurrentIndex] != cardID {
		return nil, util.ErrCardNotInSession
	}

	cards, err := s.Cards.ListByIDs([]uint{cardID})
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, util.ErrCardNotInSession
	}
	card := &cards[0]

	// Review mode is self-assessed: the learner's quality rating is
	// mandatory and drives scheduling regardless of the grader's opinion.
	if session.Mode == model.ModeReview {
		if quality == nil {
			return nil, util.ErrInvalidQuality
		}
	}

	verdict, err := s.Grader.Grade(ctx, card, rawAnswer, session.Mode)
	if err != nil {
		return nil, err
	}

	if session.Mode == model.ModeReview {
		if err := s.applyReview(userID, cardID, *quality); err != nil {
			return nil, err
		}
	}

	resp := &model.StudyResponse{
		SessionID:   session.ID,
		CardID:      cardID,
		UserAnswer:  rawAnswer,
		IsCorrect:   verdict.IsCorrect,
		Quality:     quality,
		Provenance:  verdict.Provenance,
		Feedback:    verdict.Feedback,
		RespondedAt: s.Now(),
	}
	if err := s.Store.CreateResponse(resp); err != nil {
		return nil, err
	}

	if err := s.advance(session); err != nil {
		return nil, err
	}
	s.recordActivity(userID, session.DeckID)

	return resp, nil
}

// applyReview runs SM-2 over the user's memory record for the card,
// creating it on first review.
func (s *StudyService) applyReview(userID, cardID uint, quality int) error {
	now := s.Now()

	rev, err := s.Store.FindReview(userID, cardID)
	if err != nil {
		return err
	}
	rec := srs.NewRecord(now)
	if rev != nil {
		rec = srs.Record{
			Repetitions:  rev.Repetitions,
			IntervalDays: rev.IntervalDays,
			Easiness:     rev.Easiness,
			DueAt:        rev.DueAt,
			LastQuality:  rev.LastQuality,
		}
	} else {
		rev = &model.SRSReview{UserID: userID, CardID: cardID}
	}

	updated, err := srs.Apply(rec, quality, now)
	if err != nil {
		return err
	}

	rev.Repetitions = updated.Repetitions
	rev.IntervalDays = updated.IntervalDays
	rev.Easiness = updated.Easiness
	rev.DueAt = updated.DueAt
	rev.LastQuality = updated.LastQuality
	return s.Store.SaveReview(rev)
}

// advance moves the session to the next card. Exhausting the queue
// completes the session, unless an endless practice session reshuffles
// and starts over.
func (s *StudyService) advance(session *model.StudySession) error {
	queue, err := session.QueueIDs()
	if err != nil {
		return err
	}

	session.CurrentIndex++
	if session.CurrentIndex >= len(queue) {
		cfg := session.ConfigOptions()
		if session.Mode == model.ModePractice && cfg.Endless {
			s.shuffle(queue)
			queueJSON, err := json.Marshal(queue)
			if err != nil {
				return err
			}
			session.Queue = queueJSON
			session.CurrentIndex = 0
		} else {
			s.complete(session)
		}
	}
	return s.Store.UpdateSession(session)
}

func (s *StudyService) complete(session *model.StudySession) {
	session.Status = model.SessionCompleted
	ended := s.Now()
	session.EndedAt = &ended
}

// Finish closes the session early. Always permitted while active; exams
// abandon their buffered answers without grading.
func (s *StudyService) Finish(ctx context.Context, userID uint, sessionID string) (*model.StudySession, error) {
	defer s.lockSession(sessionID)()

	session, err := s.GetSession(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionCompleted {
		return nil, util.ErrSessionClosed
	}

	session.Status = model.SessionCompleted
	ended := s.Now()
	session.EndedAt = &ended
	if err := s.Store.UpdateSession(session); err != nil {
		return nil, err
	}

	if session.Mode == model.ModeExam && s.Buffer != nil {
		if err := s.Buffer.Clear(ctx, session.ID); err != nil {
			logger.Log.Warn("failed to clear exam buffer",
				zap.String("session_id", session.ID), zap.Error(err))
		}
	}
	return session, nil
}

// DueReviews lists everything the user has due, soonest first.
func (s *StudyService) DueReviews(userID uint) ([]model.DueCard, error) {
	return s.Store.ListDue(userID, s.Now())
}

// Responses returns the answers recorded for a session, oldest first.
func (s *StudyService) Responses(userID uint, sessionID string) ([]model.StudyResponse, error) {
	if _, err := s.GetSession(userID, sessionID); err != nil {
		return nil, err
	}
	return s.Store.ListResponses(sessionID)
}

// recordActivity refreshes deck progress and the user's study streak.
// Failures are logged, not surfaced: bookkeeping must not fail an answer.
func (s *StudyService) recordActivity(userID, deckID uint) {
	if err := s.updateProgress(userID, deckID); err != nil {
		logger.Log.Warn("failed to update deck progress",
			zap.Uint("user_id", userID), zap.Uint("deck_id", deckID), zap.Error(err))
	}
	if err := s.updateStreak(userID); err != nil {
		logger.Log.Warn("failed to update streak",
			zap.Uint("user_id", userID), zap.Error(err))
	}
}

func (s *StudyService) updateProgress(userID, deckID uint) error {
	progress, err := s.Store.FindProgress(userID, deckID)
	if err != nil {
		return err
	}
	if progress == nil {
		progress = &model.UserDeckProgress{UserID: userID, DeckID: deckID}
	}

	total, err := s.Cards.CountByDeck(deckID)
	if err != nil {
		return err
	}
	studied, err := s.Store.CountStudiedCards(userID, deckID)
	if err != nil {
		return err
	}

	progress.CardsStudied = int(studied)
	if total > 0 {
		pct := float64(studied) / float64(total) * 100
		if pct > 100 {
			pct = 100
		}
		progress.PercentDone = pct
	}
	now := s.Now()
	progress.LastStudiedAt = &now
	return s.Store.SaveProgress(progress)
}

// updateStreak extends or resets the daily study streak based on the gap
// since the last study day.
func (s *StudyService) updateStreak(userID uint) error {
	user, err := s.Users.FindByID(userID)
	if err != nil || user == nil {
		return err
	}

	now := s.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if user.LastStudyDate != nil {
		last := *user.LastStudyDate
		lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, last.Location())
		switch days := int(today.Sub(lastDay).Hours() / 24); {
		case days == 0:
			return nil
		case days == 1:
			user.CurrentStreak++
		default:
			user.CurrentStreak = 1
		}
	} else {
		user.CurrentStreak = 1
	}

	if user.CurrentStreak > user.LongestStreak {
		user.LongestStreak = user.CurrentStreak
	}
	user.LastStudyDate = &today
	return s.Users.Update(user)
}
