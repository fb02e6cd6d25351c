package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"flashdecks_backend/internal/config"
	"flashdecks_backend/internal/util"
	"flashdecks_backend/pkg/logger"

	"go.uber.org/zap"
)

// LLMService talks to an OpenAI-compatible chat-completions endpoint. It
// backs both semantic answer checking and deck generation.
type LLMService struct {
	config config.AIConfig
	client *http.Client
}

func NewLLMService(cfg config.AIConfig) *LLMService {
	return &LLMService{
		config: cfg,
		client: &http.Client{},
	}
}

// Timeout is the per-call budget for semantic checks.
func (s *LLMService) Timeout() time.Duration {
	return time.Duration(s.config.TimeoutSeconds) * time.Second
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// SemanticVerdict is the checker's judgement of a free-text answer.
type SemanticVerdict struct {
	IsCorrect bool   `json:"is_correct"`
	Feedback  string `json:"feedback"`
}

// complete performs one non-streaming chat completion and returns the
// assistant message content. Transport and HTTP failures map to
// util.ErrLLMUnavailable, unparseable bodies to util.ErrMalformedLLMResponse.
func (s *LLMService) complete(ctx context.Context, messages []chatMessage) (string, error) {
	reqBody := map[string]interface{}{
		"model":    s.config.Model,
		"messages": messages,
	}
	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrLLMUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logger.Log.Warn("LLM API error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return "", fmt.Errorf("%w: status %d", util.ErrLLMUnavailable, resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrMalformedLLMResponse, err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("%w: %s", util.ErrLLMUnavailable, completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", util.ErrMalformedLLMResponse)
	}
	return completion.Choices[0].Message.Content, nil
}

// stripCodeFence removes a surrounding markdown code fence, which models
// add around JSON despite instructions not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// CheckAnswer asks the model whether a free-text answer is semantically
// correct. The caller owns the fallback: any error here means "use exact
// matching instead", never "fail the grading".
func (s *LLMService) CheckAnswer(ctx context.Context, question, expectedAnswer, userAnswer string) (*SemanticVerdict, error) {
	if question == "" || expectedAnswer == "" || userAnswer == "" {
		return nil, fmt.Errorf("%w: empty check input", util.ErrMalformedLLMResponse)
	}

	prompt := fmt.Sprintf(`You are an expert educator tasked with evaluating student answers.

Question: %s
Expected Answer: %s
Student's Answer: %s

Evaluate if the student's answer is semantically correct compared to the expected answer. Consider:
1. The core meaning and concepts are the same
2. Minor wording differences are acceptable
3. Synonyms and paraphrasing are acceptable
4. Spelling and grammar errors should be ignored if the meaning is clear

You must respond with ONLY a JSON object in this exact format:
{
  "is_correct": true or false,
  "feedback": "Brief explanation of why the answer is correct or incorrect. If incorrect, provide the correct answer and optionally a helpful explanation."
}

Important:
- The "is_correct" field must be a boolean (true/false)
- The "feedback" field should be a concise string (1-2 sentences)
- If the answer is correct, the feedback should be encouraging (e.g., "Correct! Great job.")
- If incorrect, provide the correct answer and a brief explanation of why
DO NOT include any text before or after the JSON.`, question, expectedAnswer, userAnswer)

	content, err := s.complete(ctx, []chatMessage{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, err
	}

	var verdict SemanticVerdict
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &verdict); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrMalformedLLMResponse, err)
	}
	return &verdict, nil
}

// GeneratedCard is one card proposed by the model during deck generation.
type GeneratedCard struct {
	Type        string          `json:"type"`
	Prompt      string          `json:"prompt"`
	Answer      string          `json:"answer"`
	Explanation string          `json:"explanation,omitempty"`
	Options     []string        `json:"options,omitempty"`
	ClozeData   json.RawMessage `json:"cloze_data,omitempty"`
}

type generatedDeck struct {
	Cards []GeneratedCard `json:"cards"`
}

// GenerateCards produces flashcards from source text. count is clamped to
// 5..20. Invalid cards in the model output are dropped, not repaired; an
// output with no usable card at all is malformed.
func (s *LLMService) GenerateCards(ctx context.Context, sourceText string, count int) ([]GeneratedCard, error) {
	if count < 5 {
		count = 5
	}
	if count > 20 {
		count = 20
	}

	prompt := fmt.Sprintf(`You are an expert educator creating flashcards from study material.

Create exactly %d flashcards from the following text. Use these card types:
1. BASIC - Simple question and answer pairs
2. MULTIPLE_CHOICE - Questions with 4 options and one correct answer
3. SHORT_ANSWER - Open-ended questions with a definitive answer
4. CLOZE - Fill-in-the-blank style questions

Guidelines for each type:
- BASIC: Simple Q&A for definitions, facts, concepts
- MULTIPLE_CHOICE: Include 4 plausible options with one correct answer. Distractors should be related but clearly incorrect.
- SHORT_ANSWER: Test deeper understanding with questions requiring constructed responses
- CLOZE: Create sentences with missing key terms. Use [BLANK] for each blank (not {{c1::text}}).

Respond with ONLY a JSON object of this shape:
{
  "cards": [
    {"type": "basic", "prompt": "...", "answer": "...", "explanation": "..."},
    {"type": "multiple_choice", "prompt": "...", "answer": "...", "options": ["...", "...", "...", "..."]},
    {"type": "short_answer", "prompt": "...", "answer": "..."},
    {"type": "cloze", "prompt": "The [BLANK] is ...", "answer": "mitochondria", "cloze_data": {"blanks": [{"answer": "mitochondria"}]}}
  ]
}

IMPORTANT:
- For MULTIPLE_CHOICE, the "answer" field must be the exact correct option text (one of the items in "options")
- For CLOZE, use [BLANK] for each blank in the prompt (in order). The cloze_data.blanks array must contain an object with an "answer" field for each blank.
- Ensure a good mix of all 4 types
DO NOT include any text before or after the JSON.

Text:
%s`, count, sourceText)

	content, err := s.complete(ctx, []chatMessage{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, err
	}

	var deck generatedDeck
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &deck); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrMalformedLLMResponse, err)
	}
	if len(deck.Cards) == 0 {
		return nil, fmt.Errorf("%w: no cards generated", util.ErrMalformedLLMResponse)
	}
	return deck.Cards, nil
}
