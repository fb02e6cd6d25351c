package service

import (
	"context"

	"flashdecks_backend/internal/model"
	"flashdecks_backend/internal/util"
	"flashdecks_backend/pkg/logger"

	"go.uber.org/zap"
)

// ExamService runs the exam flow: answers are buffered ungraded while the
// session is active, then graded as one ordered batch on submit. Exams
// never touch scheduling state.
type ExamService struct {
	Study  *StudyService
	Grader *GraderService
	Buffer ExamBuffer
}

func NewExamService(study *StudyService, grader *GraderService, buffer ExamBuffer) *ExamService {
	return &ExamService{
		Study:  study,
		Grader: grader,
		Buffer: buffer,
	}
}

// ExamCardResult is the graded outcome for one answered card.
type ExamCardResult struct {
	CardID     uint   `json:"cardId"`
	UserAnswer string `json:"userAnswer"`
	IsCorrect  *bool  `json:"isCorrect,omitempty"`
	Provenance string `json:"provenance,omitempty"`
	Feedback   string `json:"feedback,omitempty"`
}

// ExamSummary is the batch grading report returned by SubmitExam.
type ExamSummary struct {
	SessionID  string           `json:"sessionId"`
	Correct    int              `json:"correct"`
	Incorrect  int              `json:"incorrect"`
	Unanswered int              `json:"unanswered"`
	Total      int              `json:"total"`
	Results    []ExamCardResult `json:"results"`
}

// BufferAnswer stores a raw answer without grading it and advances the
// session. Any queue card not yet buffered is accepted, so a learner can
// go back and fill skipped cards.
func (s *ExamService) BufferAnswer(ctx context.Context, userID uint, sessionID string, cardID uint, rawAnswer string) error {
	defer s.Study.lockSession(sessionID)()

	session, err := s.Study.GetSession(userID, sessionID)
	if err != nil {
		return err
	}
	if session.Status == model.SessionCompleted {
		return util.ErrSessionClosed
	}
	if session.Mode != model.ModeExam {
		return util.ErrWrongSessionMode
	}

	queue, err := session.QueueIDs()
	if err != nil {
		return err
	}
	inQueue := false
	for _, id := range queue {
		if id == cardID {
			inQueue = true
			break
		}
	}
	if !inQueue {
		return util.ErrCardNotInSession
	}

	buffered, err := s.Buffer.Has(ctx, sessionID, cardID)
	if err != nil {
		return err
	}
	if buffered {
		return util.ErrCardNotInSession
	}

	if err := s.Buffer.Put(ctx, sessionID, cardID, rawAnswer); err != nil {
		return err
	}

	// Advance past the current card; completion waits for SubmitExam.
	if session.CurrentIndex < len(queue)-1 {
		session.CurrentIndex++
		return s.Study.Store.UpdateSession(session)
	}
	return nil
}

// SubmitExam grades the buffered answers in the queue's stored order, one
// card at a time, and completes the session. Unanswered cards are reported
// but not scored. An empty buffer still completes the session with zero
// responses.
func (s *ExamService) SubmitExam(ctx context.Context, userID uint, sessionID string) (*ExamSummary, error) {
	defer s.Study.lockSession(sessionID)()

	session, err := s.Study.GetSession(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionCompleted {
		return nil, util.ErrSessionClosed
	}
	if session.Mode != model.ModeExam {
		return nil, util.ErrWrongSessionMode
	}

	queue, err := session.QueueIDs()
	if err != nil {
		return nil, err
	}
	answers, err := s.Buffer.All(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cards, err := s.Study.Cards.ListByIDs(queue)
	if err != nil {
		return nil, err
	}
	cardsByID := make(map[uint]*model.Card, len(cards))
	for i := range cards {
		cardsByID[cards[i].ID] = &cards[i]
	}

	summary := &ExamSummary{
		SessionID: sessionID,
		Total:     len(queue),
	}
	now := s.Study.Now()
	var responses []model.StudyResponse

	// Grade strictly in queue order, awaiting each verdict before the
	// next call, so the checker sees bounded, reproducible load.
	for _, cardID := range queue {
		rawAnswer, answered := answers[cardID]
		if !answered {
			summary.Unanswered++
			continue
		}
		card, ok := cardsByID[cardID]
		if !ok {
			summary.Unanswered++
			continue
		}

		verdict, err := s.Grader.Grade(ctx, card, rawAnswer, model.ModeExam)
		if err != nil {
			// A malformed buffered answer scores as incorrect rather
			// than aborting the whole batch.
			incorrect := false
			verdict = &Verdict{IsCorrect: &incorrect, Provenance: model.ProvenanceExactMatch}
		}

		if verdict.IsCorrect != nil {
			if *verdict.IsCorrect {
				summary.Correct++
			} else {
				summary.Incorrect++
			}
		}
		summary.Results = append(summary.Results, ExamCardResult{
			CardID:     cardID,
			UserAnswer: rawAnswer,
			IsCorrect:  verdict.IsCorrect,
			Provenance: verdict.Provenance,
			Feedback:   verdict.Feedback,
		})
		responses = append(responses, model.StudyResponse{
			SessionID:   sessionID,
			CardID:      cardID,
			UserAnswer:  rawAnswer,
			IsCorrect:   verdict.IsCorrect,
			Provenance:  verdict.Provenance,
			Feedback:    verdict.Feedback,
			RespondedAt: now,
		})
	}

	if err := s.Study.Store.CreateResponses(responses); err != nil {
		return nil, err
	}

	session.Status = model.SessionCompleted
	ended := now
	session.EndedAt = &ended
	if err := s.Study.Store.UpdateSession(session); err != nil {
		return nil, err
	}

	if err := s.Buffer.Clear(ctx, sessionID); err != nil {
		logger.Log.Warn("failed to clear exam buffer after submit",
			zap.String("session_id", sessionID), zap.Error(err))
	}

	s.Study.recordActivity(userID, session.DeckID)
	return summary, nil
}
