package service

import (
	"testing"

	"flashdecks_backend/internal/model"
)

func TestValidateCard(t *testing.T) {
	tests := []struct {
		name    string
		card    model.Card
		wantErr bool
	}{
		{
			name: "basic always valid",
			card: model.Card{Type: model.CardBasic, Prompt: "p", Answer: "a"},
		},
		{
			name: "short answer valid without alternatives",
			card: model.Card{Type: model.CardShortAnswer, Prompt: "p", Answer: "a"},
		},
		{
			name: "multiple choice with answer among options",
			card: model.Card{
				Type: model.CardMultipleChoice, Prompt: "p", Answer: "Paris",
				Options: []byte(`["Paris","London"]`),
			},
		},
		{
			name: "multiple choice answer matching case-insensitively",
			card: model.Card{
				Type: model.CardMultipleChoice, Prompt: "p", Answer: "paris",
				Options: []byte(`["Paris","London"]`),
			},
		},
		{
			name: "multiple choice with too few options",
			card: model.Card{
				Type: model.CardMultipleChoice, Prompt: "p", Answer: "Paris",
				Options: []byte(`["Paris"]`),
			},
			wantErr: true,
		},
		{
			name: "multiple choice answer not an option",
			card: model.Card{
				Type: model.CardMultipleChoice, Prompt: "p", Answer: "Rome",
				Options: []byte(`["Paris","London"]`),
			},
			wantErr: true,
		},
		{
			name: "cloze with matching markers",
			card: model.Card{
				Type: model.CardCloze, Prompt: "The [BLANK] produces [BLANK].", Answer: "mitochondria, ATP",
				ClozeData: []byte(`{"blanks":[{"answer":"mitochondria"},{"answer":"ATP"}]}`),
			},
		},
		{
			name: "cloze accepts alternate marker style",
			card: model.Card{
				Type: model.CardCloze, Prompt: "Water is [...].", Answer: "H2O",
				ClozeData: []byte(`{"blanks":[{"answer":["H2O","water"]}]}`),
			},
		},
		{
			name: "cloze marker count mismatch",
			card: model.Card{
				Type: model.CardCloze, Prompt: "The [BLANK] produces energy.", Answer: "x",
				ClozeData: []byte(`{"blanks":[{"answer":"a"},{"answer":"b"}]}`),
			},
			wantErr: true,
		},
		{
			name: "cloze without blanks",
			card: model.Card{
				Type: model.CardCloze, Prompt: "No blanks here.", Answer: "x",
				ClozeData: []byte(`{"blanks":[]}`),
			},
			wantErr: true,
		},
		{
			name:    "cloze missing data",
			card:    model.Card{Type: model.CardCloze, Prompt: "The [BLANK].", Answer: "x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCard(&tt.card)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCard() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
