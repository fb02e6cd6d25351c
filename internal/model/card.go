package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

type CardType string

const (
	CardBasic          CardType = "basic"
	CardMultipleChoice CardType = "multiple_choice"
	CardShortAnswer    CardType = "short_answer"
	CardCloze          CardType = "cloze"
)

// Markers accepted inside cloze prompts, one per blank, in order.
var ClozeMarkers = []string{"[BLANK]", "[...]"}

// swagger:model Card
type Card struct {
	BaseModel
	DeckID      uint     `gorm:"index;not null" json:"deckId"`
	Type        CardType `gorm:"size:20;not null;default:'basic'" json:"type"`
	Prompt      string   `gorm:"type:text;not null" json:"prompt"`
	Answer      string   `gorm:"type:text;not null" json:"answer"`
	Explanation string   `gorm:"type:text" json:"explanation,omitempty"`
	// JSON string array. Multiple choice: the options shown to the learner.
	// Short answer: acceptable alternative phrasings.
	Options json.RawMessage `gorm:"type:json" json:"options,omitempty"`
	// Cloze only: {"blanks":[{"answer": "x"} | {"answer": ["x","y"]}]}.
	ClozeData json.RawMessage `gorm:"type:json" json:"clozeData,omitempty"`
}

func (Card) TableName() string {
	return "cards"
}

// ClozeBlank is one fill-in slot. The stored "answer" field may be a single
// string or an array of acceptable strings.
type ClozeBlank struct {
	Answers []string `json:"answer"`
}

func (b *ClozeBlank) UnmarshalJSON(data []byte) error {
	var raw struct {
		Answer json.RawMessage `json:"answer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Answer) == 0 {
		return fmt.Errorf("cloze blank missing answer")
	}
	var single string
	if err := json.Unmarshal(raw.Answer, &single); err == nil {
		b.Answers = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(raw.Answer, &many); err != nil {
		return fmt.Errorf("cloze blank answer must be a string or string array")
	}
	b.Answers = many
	return nil
}

func (b ClozeBlank) MarshalJSON() ([]byte, error) {
	if len(b.Answers) == 1 {
		return json.Marshal(map[string]string{"answer": b.Answers[0]})
	}
	return json.Marshal(map[string][]string{"answer": b.Answers})
}

type clozeData struct {
	Blanks []ClozeBlank `json:"blanks"`
}

// OptionList decodes the Options column. Nil when absent or invalid.
func (c *Card) OptionList() []string {
	if len(c.Options) == 0 {
		return nil
	}
	var opts []string
	if err := json.Unmarshal(c.Options, &opts); err != nil {
		return nil
	}
	return opts
}

// ClozeBlanks decodes the ClozeData column.
func (c *Card) ClozeBlanks() ([]ClozeBlank, error) {
	if len(c.ClozeData) == 0 {
		return nil, fmt.Errorf("card %d has no cloze data", c.ID)
	}
	var cd clozeData
	if err := json.Unmarshal(c.ClozeData, &cd); err != nil {
		return nil, err
	}
	return cd.Blanks, nil
}

// BlankMarkerCount counts cloze markers in the prompt.
func (c *Card) BlankMarkerCount() int {
	n := 0
	for _, m := range ClozeMarkers {
		n += strings.Count(c.Prompt, m)
	}
	return n
}
