package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"flashdecks_backend/internal/model"
	"flashdecks_backend/internal/util"
)

// In-memory store fakes backing the engine tests.

type fakeCards struct {
	cards map[uint]model.Card
	order []uint
}

func newFakeCards(cards ...model.Card) *fakeCards {
	f := &fakeCards{cards: map[uint]model.Card{}}
	for _, c := range cards {
		f.cards[c.ID] = c
		f.order = append(f.order, c.ID)
	}
	return f
}

func (f *fakeCards) ListByDeck(deckID uint) ([]model.Card, error) {
	var out []model.Card
	for _, id := range f.order {
		if f.cards[id].DeckID == deckID {
			out = append(out, f.cards[id])
		}
	}
	return out, nil
}

func (f *fakeCards) ListByIDs(ids []uint) ([]model.Card, error) {
	var out []model.Card
	for _, id := range ids {
		if c, ok := f.cards[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCards) CountByDeck(deckID uint) (int64, error) {
	cards, _ := f.ListByDeck(deckID)
	return int64(len(cards)), nil
}

type fakeStore struct {
	mu        sync.Mutex
	sessions  map[string]*model.StudySession
	responses []model.StudyResponse
	reviews   map[string]*model.SRSReview
	progress  map[string]*model.UserDeckProgress
	nextID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: map[string]*model.StudySession{},
		reviews:  map[string]*model.SRSReview{},
		progress: map[string]*model.UserDeckProgress{},
	}
}

func reviewKey(userID, cardID uint) string {
	return fmt.Sprintf("%d:%d", userID, cardID)
}

func (f *fakeStore) CreateSession(s *model.StudySession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == "" {
		f.nextID++
		s.ID = fmt.Sprintf("session-%d", f.nextID)
	}
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeStore) FindSession(id string) (*model.StudySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) UpdateSession(s *model.StudySession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeStore) CreateResponse(r *model.StudyResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, *r)
	return nil
}

func (f *fakeStore) CreateResponses(rs []model.StudyResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, rs...)
	return nil
}

func (f *fakeStore) ListResponses(sessionID string) ([]model.StudyResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StudyResponse
	for _, r := range f.responses {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) FindReview(userID, cardID uint) (*model.SRSReview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reviews[reviewKey(userID, cardID)]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) SaveReview(r *model.SRSReview) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	f.reviews[reviewKey(r.UserID, r.CardID)] = &cp
	return nil
}

func (f *fakeStore) ListReviewsForCards(userID uint, cardIDs []uint) (map[uint]model.SRSReview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uint]model.SRSReview{}
	for _, id := range cardIDs {
		if r, ok := f.reviews[reviewKey(userID, id)]; ok {
			out[id] = *r
		}
	}
	return out, nil
}

func (f *fakeStore) ListDue(userID uint, now time.Time) ([]model.DueCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []model.DueCard
	for _, r := range f.reviews {
		if r.UserID == userID && !r.DueAt.After(now) {
			due = append(due, model.DueCard{CardID: r.CardID, DueAt: r.DueAt})
		}
	}
	return due, nil
}

func (f *fakeStore) FindProgress(userID, deckID uint) (*model.UserDeckProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.progress[reviewKey(userID, deckID)]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) SaveProgress(p *model.UserDeckProgress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.progress[reviewKey(p.UserID, p.DeckID)] = &cp
	return nil
}

func (f *fakeStore) CountStudiedCards(userID, deckID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[uint]bool{}
	for _, r := range f.responses {
		seen[r.CardID] = true
	}
	return int64(len(seen)), nil
}

type fakeFlags struct {
	flagged []uint
}

func (f *fakeFlags) ListCardIDs(userID, deckID uint) ([]uint, error) {
	return f.flagged, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[uint]*model.User
}

func newFakeUsers(ids ...uint) *fakeUsers {
	f := &fakeUsers{users: map[uint]*model.User{}}
	for _, id := range ids {
		u := &model.User{}
		u.ID = id
		f.users[id] = u
	}
	return f
}

func (f *fakeUsers) FindByID(id uint) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Update(u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

type fakeBuffer struct {
	data map[string]map[uint]string
}

func newFakeBuffer() *fakeBuffer {
	return &fakeBuffer{data: map[string]map[uint]string{}}
}

func (f *fakeBuffer) Put(ctx context.Context, sessionID string, cardID uint, raw string) error {
	if f.data[sessionID] == nil {
		f.data[sessionID] = map[uint]string{}
	}
	f.data[sessionID][cardID] = raw
	return nil
}

func (f *fakeBuffer) Has(ctx context.Context, sessionID string, cardID uint) (bool, error) {
	_, ok := f.data[sessionID][cardID]
	return ok, nil
}

func (f *fakeBuffer) All(ctx context.Context, sessionID string) (map[uint]string, error) {
	out := map[uint]string{}
	for k, v := range f.data[sessionID] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeBuffer) Clear(ctx context.Context, sessionID string) error {
	delete(f.data, sessionID)
	return nil
}

const (
	testUserID = uint(1)
	testDeckID = uint(10)
)

var engineNow = time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

func basicCard(id uint) model.Card {
	c := model.Card{DeckID: testDeckID, Type: model.CardBasic, Prompt: "p", Answer: "a"}
	c.ID = id
	return c
}

func shortCard(id uint, answer string) model.Card {
	c := model.Card{DeckID: testDeckID, Type: model.CardShortAnswer, Prompt: "p", Answer: answer}
	c.ID = id
	return c
}

func mcCard(id uint, answer string) model.Card {
	c := model.Card{
		DeckID:  testDeckID,
		Type:    model.CardMultipleChoice,
		Prompt:  "p",
		Answer:  answer,
		Options: []byte(`["` + answer + `","other","third","fourth"]`),
	}
	c.ID = id
	return c
}

func newTestEngine(cards *fakeCards, checker SemanticChecker) (*StudyService, *fakeStore, *fakeBuffer) {
	store := newFakeStore()
	buffer := newFakeBuffer()
	svc := NewStudyService(cards, store, &fakeFlags{}, newFakeUsers(testUserID), NewGraderService(checker), buffer)
	svc.Rand = rand.New(rand.NewSource(42))
	svc.Now = func() time.Time { return engineNow }
	return svc, store, buffer
}

func TestCreateReviewSessionQueueOrder(t *testing.T) {
	cards := newFakeCards(basicCard(1), basicCard(2), basicCard(3), basicCard(4))
	svc, store, _ := newTestEngine(cards, nil)

	// Card 3 due earliest, cards 1 and 2 tie on dueAt, card 4 not due.
	due := engineNow.Add(-time.Hour)
	store.SaveReview(&model.SRSReview{UserID: testUserID, CardID: 2, DueAt: due})
	store.SaveReview(&model.SRSReview{UserID: testUserID, CardID: 1, DueAt: due})
	store.SaveReview(&model.SRSReview{UserID: testUserID, CardID: 3, DueAt: engineNow.Add(-2 * time.Hour)})
	store.SaveReview(&model.SRSReview{UserID: testUserID, CardID: 4, DueAt: engineNow.Add(time.Hour)})

	session, err := svc.CreateSession(testUserID, testDeckID, model.ModeReview, model.SessionConfig{})
	if err != nil {
		t.Fatal(err)
	}
	queue, err := session.QueueIDs()
	if err != nil {
		t.Fatal(err)
	}
	want := []uint{3, 1, 2}
	if len(queue) != len(want) {
		t.Fatalf("queue = %v, want %v", queue, want)
	}
	for i := range want {
		if queue[i] != want[i] {
			t.Fatalf("queue = %v, want %v", queue, want)
		}
	}
}

func TestCreateReviewSessionNothingDueCompletesImmediately(t *testing.T) {
	cards := newFakeCards(basicCard(1))
	svc, _, _ := newTestEngine(cards, nil)

	session, err := svc.CreateSession(testUserID, testDeckID, model.ModeReview, model.SessionConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if session.Status != model.SessionCompleted {
		t.Errorf("status = %q, want completed", session.Status)
	}
}

func TestCreatePracticeSessionShufflesAndLimits(t *testing.T) {
	cards := newFakeCards(basicCard(1), basicCard(2), basicCard(3), basicCard(4), basicCard(5))
	svc, _, _ := newTestEngine(cards, nil)

	session, err := svc.CreateSession(testUserID, testDeckID, model.ModePractice, model.SessionConfig{CardLimit: 3})
	if err != nil {
		t.Fatal(err)
	}
	queue, _ := session.QueueIDs()
	if len(queue) != 3 {
		t.Fatalf("queue length = %d, want 3", len(queue))
	}
	seen := map[uint]bool{}
	for _, id := range queue {
		if id < 1 || id > 5 || seen[id] {
			t.Fatalf("bad queue %v", queue)
		}
		seen[id] = true
	}
}

func TestCreatePracticeSessionFlaggedOnly(t *testing.T) {
	cards := newFakeCards(basicCard(1), basicCard(2), basicCard(3))
	store := newFakeStore()
	svc := NewStudyService(cards, store, &fakeFlags{flagged: []uint{2}}, newFakeUsers(testUserID), NewGraderService(nil), newFakeBuffer())
	svc.Rand = rand.New(rand.NewSource(1))
	svc.Now = func() time.Time { return engineNow }

	session, err := svc.CreateSession(testUserID, testDeckID, model.ModePractice, model.SessionConfig{FlaggedOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	queue, _ := session.QueueIDs()
	if len(queue) != 1 || queue[0] != 2 {
		t.Errorf("queue = %v, want [2]", queue)
	}
}

func TestCreateExamSessionExcludesBasic(t *testing.T) {
	cards := newFakeCards(basicCard(1), mcCard(2, "x"), shortCard(3, "y"), basicCard(4))
	svc, _, _ := newTestEngine(cards, nil)

	session, err := svc.CreateSession(testUserID, testDeckID, model.ModeExam, model.SessionConfig{})
	if err != nil {
		t.Fatal(err)
	}
	queue, _ := session.QueueIDs()
	if len(queue) != 2 {
		t.Fatalf("queue = %v, want two gradeable cards", queue)
	}
	for _, id := range queue {
		if id == 1 || id == 4 {
			t.Errorf("basic card %d in exam queue", id)
		}
	}
}

func TestCreateExamSessionNoEligibleCards(t *testing.T) {
	cards := newFakeCards(basicCard(1), basicCard(2))
	svc, _, _ := newTestEngine(cards, nil)

	_, err := svc.CreateSession(testUserID, testDeckID, model.ModeExam, model.SessionConfig{})
	if !errors.Is(err, util.ErrNoEligibleCards) {
		t.Errorf("want ErrNoEligibleCards, got %v", err)
	}
}

func TestSubmitAnswerReviewAppliesSM2(t *testing.T) {
	cards := newFakeCards(basicCard(1))
	svc, store, _ := newTestEngine(cards, nil)
	store.SaveReview(&model.SRSReview{
		UserID: testUserID, CardID: 1,
		Repetitions: 0, IntervalDays: 1, Easiness: 2.5,
		DueAt: engineNow.Add(-time.Minute),
	})

	session, err := svc.CreateSession(testUserID, testDeckID, model.ModeReview, model.SessionConfig{})
	if err != nil {
		t.Fatal(err)
	}

	q := 5
	resp, err := svc.SubmitAnswer(context.Background(), testUserID, session.ID, 1, "my answer", &q)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Quality == nil || *resp.Quality != 5 {
		t.Error("response missing quality")
	}

	rev, _ := store.FindReview(testUserID, 1)
	if rev.Repetitions != 1 || rev.IntervalDays != 1 {
		t.Errorf("review state = reps %d interval %d, want 1/1", rev.Repetitions, rev.IntervalDays)
	}
	if !rev.DueAt.Equal(engineNow.AddDate(0, 0, 1)) {
		t.Errorf("dueAt = %v", rev.DueAt)
	}

	// Single-card queue: session is now complete.
	final, _ := svc.GetSession(testUserID, session.ID)
	if final.Status != model.SessionCompleted {
		t.Errorf("status = %q, want completed", final.Status)
	}
}

func TestSubmitAnswerReviewRequiresQuality(t *testing.T) {
	cards := newFakeCards(basicCard(1))
	svc, store, _ := newTestEngine(cards, nil)
	store.SaveReview(&model.SRSReview{UserID: testUserID, CardID: 1, IntervalDays: 1, Easiness: 2.5, DueAt: engineNow.Add(-time.Minute)})

	session, _ := svc.CreateSession(testUserID, testDeckID, model.ModeReview, model.SessionConfig{})

	if _, err := svc.SubmitAnswer(context.Background(), testUserID, session.ID, 1, "x", nil); !errors.Is(err, util.ErrInvalidQuality) {
		t.Errorf("want ErrInvalidQuality for missing quality, got %v", err)
	}
	bad := 9
	if _, err := svc.SubmitAnswer(context.Background(), testUserID, session.ID, 1, "x", &bad); !errors.Is(err, util.ErrInvalidQuality) {
		t.Errorf("want ErrInvalidQuality for out-of-range quality, got %v", err)
	}
}

func TestSubmitAnswerLazyMemoryRecordCreation(t *testing.T) {
	cards := newFakeCards(basicCard(1), basicCard(2))
	svc, store, _ := newTestEngine(cards, nil)
	// Only card 1 has a record, so only card 1 is due.
	store.SaveReview(&model.SRSReview{UserID: testUserID, CardID: 1, IntervalDays: 1, Easiness: 2.5, DueAt: engineNow.Add(-time.Minute)})

	session, _ := svc.CreateSession(testUserID, testDeckID, model.ModeReview, model.SessionConfig{})
	q := 4
	if _, err := svc.SubmitAnswer(context.Background(), testUserID, session.ID, 1, "x", &q); err != nil {
		t.Fatal(err)
	}

	rev, _ := store.FindReview(testUserID, 1)
	if rev == nil {
		t.Fatal("memory record missing after review")
	}
	if rev.Easiness <= 2.5 {
		t.Errorf("easiness = %f, want raised above initial for quality 4", rev.Easiness)
	}
}

func TestSubmitAnswerWrongCurrentCard(t *testing.T) {
	cards := newFakeCards(basicCard(1), basicCard(2))
	svc, store, _ := newTestEngine(cards, nil)
	due := engineNow.Add(-time.Minute)
	store.SaveReview(&model.SRSReview{UserID: testUserID, CardID: 1, IntervalDays: 1, Easiness: 2.5, DueAt: due.Add(-time.Minute)})
	store.SaveReview(&model.SRSReview{UserID: testUserID, CardID: 2, IntervalDays: 1, Easiness: 2.5, DueAt: due})

	session, _ := svc.CreateSession(testUserID, testDeckID, model.ModeReview, model.SessionConfig{})
	q := 3
	// Card 2 is second in the queue; submitting it first must fail.
	if _, err := svc.SubmitAnswer(context.Background(), testUserID, session.ID, 2, "x", &q); !errors.Is(err, util.ErrCardNotInSession) {
		t.Errorf("want ErrCardNotInSession, got %v", err)
	}
}

func TestSubmitAnswerOnCompletedSession(t *testing.T) {
	cards := newFakeCards(mcCard(1, "a"), mcCard(2, "b"))
	svc, _, _ := newTestEngine(cards, nil)

	session, err := svc.CreateSession(testUserID, testDeckID, model.ModePractice, model.SessionConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Finish(context.Background(), testUserID, session.ID); err != nil {
		t.Fatal(err)
	}

	queue, _ := session.QueueIDs()
	if _, err := svc.SubmitAnswer(context.Background(), testUserID, session.ID, queue[0], "a", nil); !errors.Is(err, util.ErrSessionClosed) {
		t.Errorf("want ErrSessionClosed, got %v", err)
	}
}

func TestSubmitAnswerUnknownSession(t *testing.T) {
	svc, _, _ := newTestEngine(newFakeCards(), nil)
	if _, err := svc.SubmitAnswer(context.Background(), testUserID, "missing", 1, "x", nil); !errors.Is(err, util.ErrSessionNotFound) {
		t.Errorf("want ErrSessionNotFound, got %v", err)
	}
}

func TestSubmitAnswerOtherUsersSession(t *testing.T) {
	cards := newFakeCards(mcCard(1, "a"))
	svc, _, _ := newTestEngine(cards, nil)
	session, _ := svc.CreateSession(testUserID, testDeckID, model.ModePractice, model.SessionConfig{})

	if _, err := svc.SubmitAnswer(context.Background(), 99, session.ID, 1, "a", nil); !errors.Is(err, util.ErrSessionNotFound) {
		t.Errorf("want ErrSessionNotFound for foreign session, got %v", err)
	}
}

func TestPracticeEndlessReshuffles(t *testing.T) {
	cards := newFakeCards(mcCard(1, "a"), mcCard(2, "b"), mcCard(3, "c"))
	svc, _, _ := newTestEngine(cards, nil)

	session, err := svc.CreateSession(testUserID, testDeckID, model.ModePractice, model.SessionConfig{Endless: true})
	if err != nil {
		t.Fatal(err)
	}
	queue, _ := session.QueueIDs()

	answers := map[uint]string{1: "a", 2: "b", 3: "c"}
	for _, id := range queue {
		current, _ := svc.GetSession(testUserID, session.ID)
		cq, _ := current.QueueIDs()
		if cq[current.CurrentIndex] != id {
			t.Fatalf("queue drifted before exhaustion")
		}
		if _, err := svc.SubmitAnswer(context.Background(), testUserID, session.ID, id, answers[id], nil); err != nil {
			t.Fatal(err)
		}
	}

	after, _ := svc.GetSession(testUserID, session.ID)
	if after.Status != model.SessionActive {
		t.Fatal("endless practice completed on exhaustion")
	}
	if after.CurrentIndex != 0 {
		t.Errorf("currentIndex = %d, want 0 after reshuffle", after.CurrentIndex)
	}
	newQueue, _ := after.QueueIDs()
	if len(newQueue) != 3 {
		t.Errorf("reshuffled queue = %v", newQueue)
	}
}

func TestPracticeNonEndlessCompletes(t *testing.T) {
	cards := newFakeCards(mcCard(1, "a"))
	svc, _, _ := newTestEngine(cards, nil)

	session, _ := svc.CreateSession(testUserID, testDeckID, model.ModePractice, model.SessionConfig{})
	if _, err := svc.SubmitAnswer(context.Background(), testUserID, session.ID, 1, "a", nil); err != nil {
		t.Fatal(err)
	}
	after, _ := svc.GetSession(testUserID, session.ID)
	if after.Status != model.SessionCompleted {
		t.Errorf("status = %q, want completed after queue exhaustion", after.Status)
	}
	if after.EndedAt == nil {
		t.Error("endedAt not set")
	}
}

func TestFinishIsTerminal(t *testing.T) {
	cards := newFakeCards(mcCard(1, "a"))
	svc, _, _ := newTestEngine(cards, nil)

	session, _ := svc.CreateSession(testUserID, testDeckID, model.ModePractice, model.SessionConfig{})
	if _, err := svc.Finish(context.Background(), testUserID, session.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Finish(context.Background(), testUserID, session.ID); !errors.Is(err, util.ErrSessionClosed) {
		t.Errorf("second finish: want ErrSessionClosed, got %v", err)
	}
}

func TestStreakUpdates(t *testing.T) {
	cards := newFakeCards(mcCard(1, "a"))
	store := newFakeStore()
	users := newFakeUsers(testUserID)
	yesterday := engineNow.AddDate(0, 0, -1)
	users.users[testUserID].CurrentStreak = 3
	users.users[testUserID].LongestStreak = 5
	users.users[testUserID].LastStudyDate = &yesterday

	svc := NewStudyService(cards, store, &fakeFlags{}, users, NewGraderService(nil), newFakeBuffer())
	svc.Rand = rand.New(rand.NewSource(7))
	svc.Now = func() time.Time { return engineNow }

	session, _ := svc.CreateSession(testUserID, testDeckID, model.ModePractice, model.SessionConfig{})
	if _, err := svc.SubmitAnswer(context.Background(), testUserID, session.ID, 1, "a", nil); err != nil {
		t.Fatal(err)
	}

	u, _ := users.FindByID(testUserID)
	if u.CurrentStreak != 4 {
		t.Errorf("streak = %d, want 4 after consecutive day", u.CurrentStreak)
	}
	if u.LongestStreak != 5 {
		t.Errorf("longest = %d, want unchanged 5", u.LongestStreak)
	}
}

func TestStreakResetsAfterGap(t *testing.T) {
	cards := newFakeCards(mcCard(1, "a"))
	store := newFakeStore()
	users := newFakeUsers(testUserID)
	lastWeek := engineNow.AddDate(0, 0, -7)
	users.users[testUserID].CurrentStreak = 9
	users.users[testUserID].LongestStreak = 9
	users.users[testUserID].LastStudyDate = &lastWeek

	svc := NewStudyService(cards, store, &fakeFlags{}, users, NewGraderService(nil), newFakeBuffer())
	svc.Rand = rand.New(rand.NewSource(7))
	svc.Now = func() time.Time { return engineNow }

	session, _ := svc.CreateSession(testUserID, testDeckID, model.ModePractice, model.SessionConfig{})
	if _, err := svc.SubmitAnswer(context.Background(), testUserID, session.ID, 1, "a", nil); err != nil {
		t.Fatal(err)
	}

	u, _ := users.FindByID(testUserID)
	if u.CurrentStreak != 1 {
		t.Errorf("streak = %d, want reset to 1", u.CurrentStreak)
	}
}

// Meaningful under the race detector: queue builds for unrelated sessions
// share one rand source and must not trip it.
func TestCreateSessionConcurrentUsers(t *testing.T) {
	cards := newFakeCards(basicCard(1), basicCard(2), basicCard(3), basicCard(4))
	svc, _, _ := newTestEngine(cards, nil)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateSession(uint(i+1), testDeckID, model.ModePractice, model.SessionConfig{})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestSubmitAnswerOverlappingSubmitsRecordOnce(t *testing.T) {
	cards := newFakeCards(basicCard(1), basicCard(2), basicCard(3))
	svc, store, _ := newTestEngine(cards, nil)

	session, err := svc.CreateSession(testUserID, testDeckID, model.ModePractice, model.SessionConfig{})
	if err != nil {
		t.Fatal(err)
	}
	queue, err := session.QueueIDs()
	if err != nil {
		t.Fatal(err)
	}
	current := queue[0]

	// Two overlapping submits for the same current card: exactly one may
	// win; the other must see the advanced queue and be rejected.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.SubmitAnswer(context.Background(), testUserID, session.ID, current, "a", nil)
		}(i)
	}
	wg.Wait()

	var accepted, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, util.ErrCardNotInSession):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if accepted != 1 || rejected != 1 {
		t.Fatalf("accepted = %d, rejected = %d, want exactly one of each", accepted, rejected)
	}

	resps, _ := store.ListResponses(session.ID)
	if len(resps) != 1 {
		t.Errorf("responses = %d, want 1", len(resps))
	}
	after, _ := svc.GetSession(testUserID, session.ID)
	if after.CurrentIndex != 1 {
		t.Errorf("currentIndex = %d, want 1", after.CurrentIndex)
	}
}

func TestSubmitAnswerRejectsExamSessions(t *testing.T) {
	cards := newFakeCards(mcCard(1, "a"), mcCard(2, "b"))
	svc, store, _ := newTestEngine(cards, nil)

	session, err := svc.CreateSession(testUserID, testDeckID, model.ModeExam, model.SessionConfig{})
	if err != nil {
		t.Fatal(err)
	}
	queue, _ := session.QueueIDs()

	if _, err := svc.SubmitAnswer(context.Background(), testUserID, session.ID, queue[0], "a", nil); !errors.Is(err, util.ErrWrongSessionMode) {
		t.Errorf("want ErrWrongSessionMode, got %v", err)
	}
	if len(store.responses) != 0 {
		t.Error("exam answer must not be graded immediately")
	}
	if len(store.reviews) != 0 {
		t.Error("exam answer must not touch memory records")
	}
}
