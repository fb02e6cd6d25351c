package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"flashdecks_backend/internal/model"
	"flashdecks_backend/internal/util"
	"flashdecks_backend/pkg/logger"
	"flashdecks_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// SemanticChecker is the external collaborator consulted for free-text
// answers in practice and exam modes. Implemented by LLMService.
type SemanticChecker interface {
	CheckAnswer(ctx context.Context, question, expectedAnswer, userAnswer string) (*SemanticVerdict, error)
	Timeout() time.Duration
}

// Verdict is the grading outcome for one submitted answer.
type Verdict struct {
	// Nil for basic cards, which are self-graded by the learner.
	IsCorrect  *bool  `json:"isCorrect,omitempty"`
	Provenance string `json:"provenance,omitempty"`
	Feedback   string `json:"feedback,omitempty"`
}

// GraderService grades submitted answers. Free-text card types go through
// the semantic checker when the mode allows it; every checker failure
// resolves to the deterministic exact-match path, so grading always
// completes.
type GraderService struct {
	Checker SemanticChecker
}

func NewGraderService(checker SemanticChecker) *GraderService {
	return &GraderService{Checker: checker}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Grade produces a verdict for rawAnswer against card under the given mode.
// The only error it returns is util.ErrMalformedAnswer for undecodable
// cloze submissions; checker failures never surface.
func (s *GraderService) Grade(ctx context.Context, card *model.Card, rawAnswer string, mode model.StudyMode) (*Verdict, error) {
	var verdict *Verdict
	var err error

	switch card.Type {
	case model.CardBasic:
		// Self-graded: the learner's quality rating is authoritative.
		verdict = &Verdict{}
	case model.CardMultipleChoice:
		verdict = s.gradeMultipleChoice(card, rawAnswer)
	case model.CardShortAnswer:
		verdict = s.gradeShortAnswer(ctx, card, rawAnswer, mode)
	case model.CardCloze:
		verdict, err = s.gradeCloze(ctx, card, rawAnswer, mode)
	default:
		verdict = &Verdict{}
	}
	if err != nil {
		return nil, err
	}

	if verdict.Provenance != "" {
		monitoring.AnswersGraded.WithLabelValues(string(card.Type), verdict.Provenance).Inc()
	}
	return verdict, nil
}

func (s *GraderService) gradeMultipleChoice(card *model.Card, rawAnswer string) *Verdict {
	correct := normalize(rawAnswer) == normalize(card.Answer)
	return &Verdict{
		IsCorrect:  &correct,
		Provenance: model.ProvenanceExactMatch,
	}
}

// exactMatchShortAnswer checks the answer against the primary answer and
// every stored alternative.
func exactMatchShortAnswer(card *model.Card, rawAnswer string) bool {
	got := normalize(rawAnswer)
	if got == normalize(card.Answer) {
		return true
	}
	for _, alt := range card.OptionList() {
		if got == normalize(alt) {
			return true
		}
	}
	return false
}

func (s *GraderService) gradeShortAnswer(ctx context.Context, card *model.Card, rawAnswer string, mode model.StudyMode) *Verdict {
	if mode != model.ModeReview {
		if verdict := s.trySemanticCheck(ctx, card.Prompt, card.Answer, rawAnswer); verdict != nil {
			return verdict
		}
	}
	correct := exactMatchShortAnswer(card, rawAnswer)
	return &Verdict{
		IsCorrect:  &correct,
		Provenance: model.ProvenanceExactMatch,
	}
}

func (s *GraderService) gradeCloze(ctx context.Context, card *model.Card, rawAnswer string, mode model.StudyMode) (*Verdict, error) {
	blanks, err := card.ClozeBlanks()
	if err != nil {
		return nil, util.ErrMalformedAnswer
	}

	var submitted []string
	if err := json.Unmarshal([]byte(rawAnswer), &submitted); err != nil {
		return nil, util.ErrMalformedAnswer
	}
	if len(submitted) != len(blanks) {
		return nil, util.ErrMalformedAnswer
	}

	if mode != model.ModeReview {
		expected := make([]string, len(blanks))
		for i, blank := range blanks {
			if len(blank.Answers) > 0 {
				expected[i] = blank.Answers[0]
			}
		}
		verdict := s.trySemanticCheck(ctx, card.Prompt,
			strings.Join(expected, ", "), strings.Join(submitted, ", "))
		if verdict != nil {
			return verdict, nil
		}
	}

	correct := true
	for i, blank := range blanks {
		got := normalize(submitted[i])
		blankOK := false
		for _, acceptable := range blank.Answers {
			if got == normalize(acceptable) {
				blankOK = true
				break
			}
		}
		if !blankOK {
			correct = false
			break
		}
	}
	return &Verdict{
		IsCorrect:  &correct,
		Provenance: model.ProvenanceExactMatch,
	}, nil
}

// trySemanticCheck consults the checker under its timeout. A nil return
// means "fall back to exact matching".
func (s *GraderService) trySemanticCheck(ctx context.Context, question, expected, userAnswer string) *Verdict {
	if s.Checker == nil {
		return nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, s.Checker.Timeout())
	defer cancel()

	result, err := s.Checker.CheckAnswer(checkCtx, question, expected, userAnswer)
	if err != nil {
		monitoring.SemanticCheckFailures.Inc()
		logger.Log.Warn("semantic check failed, using exact match",
			zap.Error(err))
		return nil
	}
	return &Verdict{
		IsCorrect:  &result.IsCorrect,
		Provenance: model.ProvenanceSemanticCheck,
		Feedback:   result.Feedback,
	}
}
