package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"flashdecks_backend/internal/config"
	"flashdecks_backend/internal/util"
)

func checkerForServer(srv *httptest.Server) *LLMService {
	return NewLLMService(config.AIConfig{
		BaseURL:        srv.URL,
		APIKey:         "test",
		Model:          "test-model",
		TimeoutSeconds: 2,
	})
}

func completionBody(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":` + jsonString(content) + `}}]}`
}

func jsonString(s string) string {
	out := `"`
	for _, r := range s {
		switch r {
		case '"':
			out += `\"`
		case '\\':
			out += `\\`
		case '\n':
			out += `\n`
		default:
			out += string(r)
		}
	}
	return out + `"`
}

func TestCheckAnswerParsesVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test" {
			t.Error("missing auth header")
		}
		w.Write([]byte(completionBody(`{"is_correct": true, "feedback": "Correct! Great job."}`)))
	}))
	defer srv.Close()

	verdict, err := checkerForServer(srv).CheckAnswer(context.Background(), "q", "expected", "given")
	if err != nil {
		t.Fatal(err)
	}
	if !verdict.IsCorrect || verdict.Feedback == "" {
		t.Errorf("verdict = %+v", verdict)
	}
}

func TestCheckAnswerStripsCodeFence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody("```json\n{\"is_correct\": false, \"feedback\": \"No.\"}\n```")))
	}))
	defer srv.Close()

	verdict, err := checkerForServer(srv).CheckAnswer(context.Background(), "q", "expected", "given")
	if err != nil {
		t.Fatal(err)
	}
	if verdict.IsCorrect {
		t.Error("want incorrect verdict")
	}
}

func TestCheckAnswerServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := checkerForServer(srv).CheckAnswer(context.Background(), "q", "expected", "given")
	if !errors.Is(err, util.ErrLLMUnavailable) {
		t.Errorf("want ErrLLMUnavailable, got %v", err)
	}
}

func TestCheckAnswerMalformedContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody("I think the answer is probably right")))
	}))
	defer srv.Close()

	_, err := checkerForServer(srv).CheckAnswer(context.Background(), "q", "expected", "given")
	if !errors.Is(err, util.ErrMalformedLLMResponse) {
		t.Errorf("want ErrMalformedLLMResponse, got %v", err)
	}
}

func TestCheckAnswerUnreachable(t *testing.T) {
	svc := NewLLMService(config.AIConfig{BaseURL: "http://127.0.0.1:1", Model: "m", TimeoutSeconds: 1})
	_, err := svc.CheckAnswer(context.Background(), "q", "expected", "given")
	if !errors.Is(err, util.ErrLLMUnavailable) {
		t.Errorf("want ErrLLMUnavailable, got %v", err)
	}
}

func TestGenerateCardsParsesDeck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody(`{"cards":[{"type":"basic","prompt":"p","answer":"a"},{"type":"multiple_choice","prompt":"p","answer":"x","options":["x","y","z","w"]}]}`)))
	}))
	defer srv.Close()

	cards, err := checkerForServer(srv).GenerateCards(context.Background(), "source text", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 2 {
		t.Fatalf("cards = %d, want 2", len(cards))
	}
	if cards[1].Type != "multiple_choice" || len(cards[1].Options) != 4 {
		t.Errorf("card = %+v", cards[1])
	}
}

func TestGenerateCardsEmptyOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody(`{"cards":[]}`)))
	}))
	defer srv.Close()

	_, err := checkerForServer(srv).GenerateCards(context.Background(), "text", 10)
	if !errors.Is(err, util.ErrMalformedLLMResponse) {
		t.Errorf("want ErrMalformedLLMResponse, got %v", err)
	}
}
