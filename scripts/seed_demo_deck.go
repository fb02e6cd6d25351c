// Seeds a demo account with one deck covering all four card types.
//
// Intended for local development and demos, not for production databases.
//
// Usage: go run scripts/seed_demo_deck.go

package main

import (
	"encoding/json"
	"log"

	"flashdecks_backend/internal/config"
	"flashdecks_backend/internal/model"
	"flashdecks_backend/internal/repository"
	"flashdecks_backend/pkg/database"
	"flashdecks_backend/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	users := repository.NewUserRepository(db)
	decks := repository.NewDeckRepository(db)
	cards := repository.NewCardRepository(db)

	existing, err := users.FindByEmail("demo@flashdecks.local")
	if err != nil {
		log.Fatalf("Failed to look up demo user: %v", err)
	}
	if existing != nil {
		log.Println("Demo user already exists, nothing to do")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	user := &model.User{
		Name:     "Demo Student",
		Email:    "demo@flashdecks.local",
		Password: string(hash),
		Role:     model.RoleUser,
	}
	if err := users.Create(user); err != nil {
		log.Fatalf("Failed to create demo user: %v", err)
	}

	deck := &model.Deck{
		OwnerID:     user.ID,
		Name:        "Spanish Basics",
		Description: "A small starter deck showing every card type.",
	}
	if err := decks.Create(deck); err != nil {
		log.Fatalf("Failed to create demo deck: %v", err)
	}

	options, _ := json.Marshal([]string{"el gato", "el perro", "la casa"})
	clozeData, _ := json.Marshal(map[string]any{
		"blanks": []map[string]any{
			{"answer": "días"},
			{"answer": []string{"estás", "está usted"}},
		},
	})

	demoCards := []model.Card{
		{
			DeckID: deck.ID,
			Type:   model.CardBasic,
			Prompt: "What does \"hola\" mean?",
			Answer: "hello",
		},
		{
			DeckID:  deck.ID,
			Type:    model.CardMultipleChoice,
			Prompt:  "Which of these means \"the cat\"?",
			Answer:  "el gato",
			Options: options,
		},
		{
			DeckID:      deck.ID,
			Type:        model.CardShortAnswer,
			Prompt:      "Translate to Spanish: \"thank you very much\"",
			Answer:      "muchas gracias",
			Explanation: "\"Gracias\" alone also works in casual speech.",
		},
		{
			DeckID:    deck.ID,
			Type:      model.CardCloze,
			Prompt:    "Buenos [BLANK], ¿cómo [BLANK]?",
			Answer:    "días / estás",
			ClozeData: clozeData,
		},
	}
	if err := cards.CreateBatch(demoCards); err != nil {
		log.Fatalf("Failed to create demo cards: %v", err)
	}

	log.Printf("Seeded demo user %q with deck %q (%d cards)", user.Email, deck.Name, len(demoCards))
}
