package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lectio-quiz-service/internal/app"
	"lectio-quiz-service/internal/domain"
	"lectio-quiz-service/internal/infra/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *app.QuizService, string) {
	t.Helper()

	profiles := memory.NewProfileRepository()
	sets := memory.NewDailyQuestionsRepository()
	events := app.NewProfileEvents()
	now := time.Date(2025, 9, 26, 10, 0, 0, 0, domain.ReferenceZone)
	clock := func() time.Time { return now }
	quiz := app.NewQuizServiceWithClock(profiles, sets, memory.NewAccountLock(), events, clock)
	auth := app.NewAuthServiceWithClock(memory.NewAuthGateway(), profiles, clock)

	ctx := context.Background()
	if err := profiles.Create(ctx, domain.NewProfile("acc-1", "alice", 0, now)); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	set, err := sets.Create(ctx, domain.NewDailyQuestions(now, []domain.Question{
		{ID: 0, Text: "2 + 2?", Difficulty: domain.DifficultyEasy, Options: []string{"3", "4"}, CorrectOptionIndex: 1, Answer: "Four."},
	}, now))
	if err != nil {
		t.Fatalf("seed questions: %v", err)
	}

	mux := http.NewServeMux()
	NewHandler(quiz, auth).Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, quiz, set.ID
}

func TestSignUpAndSignIn(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/v1/auth/signup", "application/json",
		strings.NewReader(`{"email":"bob@example.com","password":"secret","username":"bob","bonusPoints":200}`))
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var tokens app.Tokens
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		t.Fatalf("decode tokens: %v", err)
	}
	if tokens.AccessToken == "" {
		t.Fatal("expected an access token")
	}

	resp, err = http.Post(server.URL+"/v1/auth/signin", "application/json",
		strings.NewReader(`{"email":"bob@example.com","password":"secret"}`))
	if err != nil {
		t.Fatalf("signin: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestSignUpDuplicateUsername(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/v1/auth/signup", "application/json",
		strings.NewReader(`{"email":"second@example.com","password":"secret","username":"alice"}`))
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestGetProfileRequiresIdentity(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/v1/profile")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestGetProfile(t *testing.T) {
	server, _, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/v1/profile", nil)
	req.Header.Set(accountHeader, "acc-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var profile domain.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.AccountID != "acc-1" || profile.Username != "alice" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestSubmitAnswerScoresSignedInUser(t *testing.T) {
	server, _, setID := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, server.URL+"/v1/answers",
		strings.NewReader(`{"dailyQuestionsId":"`+setID+`","questionId":0,"answer":"4"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(accountHeader, "acc-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result app.AnswerResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !result.IsCorrect || result.CorrectOptionIndex != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	profileReq, _ := http.NewRequest(http.MethodGet, server.URL+"/v1/profile", nil)
	profileReq.Header.Set(accountHeader, "acc-1")
	profileResp, err := http.DefaultClient.Do(profileReq)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	defer profileResp.Body.Close()
	var profile domain.Profile
	if err := json.NewDecoder(profileResp.Body).Decode(&profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Points != 10 || profile.StreakCount != 1 {
		t.Fatalf("expected scored profile, got %+v", profile)
	}
}

func TestSubmitAnswerAnonymous(t *testing.T) {
	server, _, setID := newTestServer(t)

	resp, err := http.Post(server.URL+"/v1/answers", "application/json",
		strings.NewReader(`{"dailyQuestionsId":"`+setID+`","questionId":0,"answer":"3"}`))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result app.AnswerResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.IsCorrect {
		t.Fatal("expected incorrect grade")
	}
	if result.Answer != "Four." {
		t.Fatalf("expected explanation text, got %q", result.Answer)
	}
}

func TestSubmitAnswerUnknownSet(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/v1/answers", "application/json",
		strings.NewReader(`{"dailyQuestionsId":"missing","questionId":0,"answer":"4"}`))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDailyQuestionsViewHidesAnswers(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/v1/daily-questions?date=2025-09-26")
	if err != nil {
		t.Fatalf("get daily questions: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	questions, ok := raw["questions"].([]any)
	if !ok || len(questions) != 1 {
		t.Fatalf("expected one question, got %v", raw["questions"])
	}
	question := questions[0].(map[string]any)
	if _, leaked := question["correctOptionIndex"]; leaked {
		t.Fatal("correct option index must not reach clients")
	}
	if _, leaked := question["answer"]; leaked {
		t.Fatal("answer text must not reach clients")
	}
}

func TestCreateDailyQuestionsDeduplicatesByDate(t *testing.T) {
	server, _, setID := newTestServer(t)

	resp, err := http.Post(server.URL+"/v1/daily-questions", "application/json",
		strings.NewReader(`{"date":"2025-09-26","questions":[{"id":0,"text":"again?","difficulty":"EASY","options":["a","b"],"correctOptionIndex":0,"answer":"a"}]}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var view dailyQuestionsView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.ID != setID {
		t.Fatalf("expected the existing set %s, got %s", setID, view.ID)
	}
}

func TestBuyShieldWithoutPoints(t *testing.T) {
	server, _, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, server.URL+"/v1/shields", nil)
	req.Header.Set(accountHeader, "acc-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("buy shield: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}
