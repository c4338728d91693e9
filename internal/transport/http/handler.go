package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"lectio-quiz-service/internal/app"
	"lectio-quiz-service/internal/domain"
)

// accountHeader carries the authenticated account id. Token validation
// happens at the edge; this service trusts the forwarded identity.
const accountHeader = "X-Account-Id"

// Handler exposes the quiz and auth use cases over REST.
type Handler struct {
	quiz *app.QuizService
	auth *app.AuthService
}

func NewHandler(quiz *app.QuizService, auth *app.AuthService) *Handler {
	return &Handler{quiz: quiz, auth: auth}
}

// Register mounts all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/auth/signup", h.signUp)
	mux.HandleFunc("POST /v1/auth/signin", h.signIn)
	mux.HandleFunc("GET /v1/profile", h.getProfile)
	mux.HandleFunc("POST /v1/shields", h.buyShield)
	mux.HandleFunc("GET /v1/daily-questions", h.getDailyQuestions)
	mux.HandleFunc("POST /v1/daily-questions", h.createDailyQuestions)
	mux.HandleFunc("POST /v1/answers", h.submitAnswer)
}

type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Username    string `json:"username"`
	BonusPoints int    `json:"bonusPoints"`
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.Username == "" {
		writeError(w, http.StatusUnprocessableEntity, "email, password and username are required")
		return
	}

	tokens, err := h.auth.SignUp(r.Context(), app.SignUpInput{
		Email:       req.Email,
		Password:    req.Password,
		Username:    req.Username,
		BonusPoints: req.BonusPoints,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokens)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "email and password are required")
		return
	}

	tokens, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	accountID := r.Header.Get(accountHeader)
	if accountID == "" {
		writeError(w, http.StatusUnauthorized, "missing account identity")
		return
	}

	profile, err := h.quiz.GetProfile(r.Context(), accountID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) buyShield(w http.ResponseWriter, r *http.Request) {
	accountID := r.Header.Get(accountHeader)
	if accountID == "" {
		writeError(w, http.StatusUnauthorized, "missing account identity")
		return
	}

	profile, err := h.quiz.BuyShield(r.Context(), accountID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// questionView is the client-facing question shape. The correct option
// stays server-side until the question is answered.
type questionView struct {
	ID         int      `json:"id"`
	Text       string   `json:"text"`
	Difficulty string   `json:"difficulty"`
	Points     int      `json:"points"`
	Options    []string `json:"options"`
}

type dailyQuestionsView struct {
	ID        string         `json:"id"`
	Date      string         `json:"date"`
	Questions []questionView `json:"questions"`
}

func toDailyQuestionsView(set domain.DailyQuestions) dailyQuestionsView {
	questions := make([]questionView, 0, len(set.Questions))
	for _, q := range set.Questions {
		questions = append(questions, questionView{
			ID:         q.ID,
			Text:       q.Text,
			Difficulty: string(q.Difficulty),
			Points:     q.Points,
			Options:    q.Options,
		})
	}
	return dailyQuestionsView{
		ID:        set.ID,
		Date:      set.Date.Format("2006-01-02"),
		Questions: questions,
	}
}

func (h *Handler) getDailyQuestions(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "date must be YYYY-MM-DD")
		return
	}

	set, err := h.quiz.GetDailyQuestionsByDate(r.Context(), date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyQuestionsView(set))
}

type createDailyQuestionsRequest struct {
	Date      string            `json:"date"`
	Questions []domain.Question `json:"questions"`
}

func (h *Handler) createDailyQuestions(w http.ResponseWriter, r *http.Request) {
	var req createDailyQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "date must be YYYY-MM-DD")
		return
	}
	if len(req.Questions) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "questions must not be empty")
		return
	}

	set, err := h.quiz.CreateDailyQuestions(r.Context(), date, req.Questions)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDailyQuestionsView(set))
}

type submitAnswerRequest struct {
	DailyQuestionsID string `json:"dailyQuestionsId"`
	QuestionID       int    `json:"questionId"`
	Answer           string `json:"answer"`
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DailyQuestionsID == "" {
		writeError(w, http.StatusUnprocessableEntity, "dailyQuestionsId is required")
		return
	}

	result, err := h.quiz.SubmitAnswer(r.Context(), app.AnswerInput{
		AccountID:        r.Header.Get(accountHeader),
		DailyQuestionsID: req.DailyQuestionsID,
		QuestionID:       req.QuestionID,
		UserAnswerText:   req.Answer,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().In(domain.ReferenceZone), nil
	}
	return time.ParseInLocation("2006-01-02", raw, domain.ReferenceZone)
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrProfileNotFound), errors.Is(err, domain.ErrDailyQuestionsNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUsernameTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInsufficientPoints), errors.Is(err, domain.ErrShieldCapacity):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type errorBody struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
