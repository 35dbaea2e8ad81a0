package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pluzgi/chatbot-study-sub001/internal/config"
	"github.com/pluzgi/chatbot-study-sub001/internal/database"
	"github.com/pluzgi/chatbot-study-sub001/internal/models"
	"github.com/pluzgi/chatbot-study-sub001/internal/repository"
	"github.com/pluzgi/chatbot-study-sub001/internal/study"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupRouter wires the handlers onto a bare engine with the same session
// middleware the real router uses, backed by a fresh in-memory database.
// Rate limiters and security headers are left off; they are orthogonal to
// handler behavior.
func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	def, err := study.LoadDefinition("../../config/study.yaml")
	require.NoError(t, err)
	repository.Def = def

	config.Conf = &config.Config{
		Server: config.ServerConfig{SessionSecret: "test-secret"},
		Study: config.StudyConfig{
			RecruitmentTarget: 200,
			MinChatTurns:      3,
			DuplicateCheck: config.DuplicateCheckConfig{
				Enabled:       true,
				WindowDays:    7,
				CompletedOnly: false,
			},
		},
	}

	log := zap.NewNop()
	participantHandler := NewParticipantHandler(log, def)
	clickHandler := NewClickHandler(log)
	statsHandler := NewStatsHandler(log)
	adminHandler := NewAdminHandler(log)

	r := gin.New()
	r.Use(sessions.Sessions("studysession", cookie.NewStore([]byte("test-secret"))))

	api := r.Group("/api")
	participants := api.Group("/participants")
	participants.POST("", participantHandler.Initialize)
	participants.GET("/me", participantHandler.Me)
	participants.GET("/:id", participantHandler.Get)
	participants.POST("/:id/consent", participantHandler.AcceptConsent)
	participants.POST("/:id/baseline", participantHandler.RecordBaseline)
	participants.POST("/:id/decision/open", participantHandler.OpenDecision)
	participants.POST("/:id/decision", participantHandler.RecordDecision)
	participants.POST("/:id/survey", participantHandler.RecordSurvey)
	// The relay client is nil: every test below exits before the model call.
	chatHandler := NewChatHandler(log, nil)
	participants.POST("/:id/chat", chatHandler.Relay)
	api.POST("/clicks/:event", clickHandler.Increment)
	api.GET("/stats/participants", statsHandler.ParticipantCount)
	api.POST("/admin/login", adminHandler.Login)
	api.DELETE("/admin/participants", adminHandler.DeleteParticipants)

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Accept-Language", "de")
	req.Header.Set("Accept-Encoding", "gzip")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp := map[string]interface{}{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	}
	return w, resp
}

func TestInitializeCreatesParticipant(t *testing.T) {
	r := setupRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/participants", gin.H{"language": "de"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.NotEmpty(t, resp["participantId"])
	assert.NotEmpty(t, resp["sessionId"])
	condition := study.Condition(resp["condition"].(string))
	assert.True(t, study.ValidCondition(condition))

	cfg := resp["config"].(map[string]interface{})
	want := study.ConfigFor(condition)
	assert.Equal(t, want.Transparency, cfg["transparency"])
	assert.Equal(t, want.ShowDashboard, cfg["showDashboard"])

	// A session cookie is issued for resume.
	assert.NotEmpty(t, w.Result().Cookies())
}

func TestInitializeRejectsUnsupportedLanguage(t *testing.T) {
	r := setupRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/participants", gin.H{"language": "pt"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "validation_failed", resp["error"])
	assert.Equal(t, "language", resp["field"])
}

func TestInitializeDuplicateGuard(t *testing.T) {
	r := setupRouter(t)

	// httptest requests share RemoteAddr and headers, so both calls carry the
	// same fingerprint.
	w, _ := doJSON(t, r, http.MethodPost, "/api/participants", gin.H{"language": "de"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := doJSON(t, r, http.MethodPost, "/api/participants", gin.H{"language": "de"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "already_participated", resp["status"])

	var counter models.ClickCounter
	require.NoError(t, database.DB.First(&counter, "event_type = ?", "restart_blocked").Error)
	assert.EqualValues(t, 1, counter.Count)
}

func TestInitializeDuplicateGuardDisabled(t *testing.T) {
	r := setupRouter(t)
	config.Conf.Study.DuplicateCheck.Enabled = false

	w, _ := doJSON(t, r, http.MethodPost, "/api/participants", gin.H{"language": "de"})
	require.Equal(t, http.StatusCreated, w.Code)
	w, resp := doJSON(t, r, http.MethodPost, "/api/participants", gin.H{"language": "de"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, resp["participantId"])

	// Fingerprints are still recorded even with the guard off.
	var count int64
	require.NoError(t, database.DB.Model(&models.Participant{}).
		Where("fingerprint <> ''").Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

// seedParticipant inserts a row directly, bypassing the duplicate guard.
func seedParticipant(t *testing.T, condition study.Condition, phase study.Phase) *models.Participant {
	t.Helper()
	p := &models.Participant{
		ID:           uuid.NewString(),
		SessionID:    uuid.NewString(),
		Condition:    condition,
		Language:     "de",
		Fingerprint:  uuid.NewString(),
		CurrentPhase: phase,
	}
	require.NoError(t, database.DB.Create(p).Error)
	return p
}

func TestInitializeFillsSmallestCell(t *testing.T) {
	r := setupRouter(t)

	seedParticipant(t, study.ConditionA, study.PhaseConsent)
	seedParticipant(t, study.ConditionC, study.PhaseConsent)
	seedParticipant(t, study.ConditionD, study.PhaseConsent)

	w, resp := doJSON(t, r, http.MethodPost, "/api/participants", gin.H{"language": "fr"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, string(study.ConditionB), resp["condition"])
}

func TestParticipantLifecycleOverHTTP(t *testing.T) {
	r := setupRouter(t)

	// Pin condition D by filling the other cells first.
	seedParticipant(t, study.ConditionA, study.PhaseConsent)
	seedParticipant(t, study.ConditionB, study.PhaseConsent)
	seedParticipant(t, study.ConditionC, study.PhaseConsent)

	w, resp := doJSON(t, r, http.MethodPost, "/api/participants", gin.H{"language": "de"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, string(study.ConditionD), resp["condition"])
	id := resp["participantId"].(string)
	base := "/api/participants/" + id

	w, resp = doJSON(t, r, http.MethodPost, base+"/consent", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(study.PhaseBaseline), resp["currentPhase"])

	w, resp = doJSON(t, r, http.MethodPost, base+"/baseline", gin.H{
		"techComfort": 5, "privacyConcern": 3, "chatbotFamiliarity": 2, "dataSharingAttitude": 4,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(study.PhaseChatbot), resp["currentPhase"])

	// Opening the decision too early is refused with the turn shortfall.
	w, resp = doJSON(t, r, http.MethodPost, base+"/decision/open", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "chatTurns", resp["field"])

	// Satisfy the minimum directly in the store; the relay is exercised in
	// its own tests.
	for i := 0; i < 3; i++ {
		_, err := repository.AppendChatTurn(context.Background(), id, fmt.Sprintf("q%d", i), "a")
		require.NoError(t, err)
	}

	w, resp = doJSON(t, r, http.MethodPost, base+"/decision/open", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(study.PhaseDecision), resp["currentPhase"])

	w, resp = doJSON(t, r, http.MethodPost, base+"/decision", gin.H{
		"decision": "donate",
		"config": gin.H{
			"scope": "anonymized", "purpose": "academic",
			"storage": "switzerland", "retention": "six-months",
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(study.PhaseSurvey), resp["currentPhase"])

	w, resp = doJSON(t, r, http.MethodPost, base+"/survey", gin.H{
		"transparency1": 6, "transparency2": 5, "control1": 5, "control2": 6,
		"riskTraceability": 3, "riskMisuse": 2, "trust1": 6,
		"attentionCheck": "voting", "age": "35-44", "gender": "male",
		"primaryLanguage": "de", "education": "doctorate", "eligibleToVoteCh": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(study.PhaseComplete), resp["currentPhase"])

	// Final state: complete, stamped, config persisted.
	w, resp = doJSON(t, r, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	participant := resp["participant"].(map[string]interface{})
	assert.Equal(t, string(study.PhaseComplete), participant["currentPhase"])
	assert.NotNil(t, participant["completedAt"])
	assert.NotNil(t, participant["decisionAt"])

	// Replaying the survey conflicts instead of double-writing.
	w, resp = doJSON(t, r, http.MethodPost, base+"/survey", gin.H{
		"transparency1": 6, "transparency2": 5, "control1": 5, "control2": 6,
		"riskTraceability": 3, "riskMisuse": 2, "trust1": 6,
		"attentionCheck": "voting", "age": "35-44", "gender": "male",
		"primaryLanguage": "de", "education": "doctorate", "eligibleToVoteCh": true,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "illegal_transition", resp["error"])
}

func TestSkippingPhasesOverHTTP(t *testing.T) {
	r := setupRouter(t)
	p := seedParticipant(t, study.ConditionA, study.PhaseConsent)

	w, resp := doJSON(t, r, http.MethodPost, "/api/participants/"+p.ID+"/baseline", gin.H{
		"techComfort": 3, "privacyConcern": 3, "chatbotFamiliarity": 3, "dataSharingAttitude": 3,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "illegal_transition", resp["error"])
}

func TestBaselineValidationOverHTTP(t *testing.T) {
	r := setupRouter(t)
	p := seedParticipant(t, study.ConditionA, study.PhaseBaseline)

	w, resp := doJSON(t, r, http.MethodPost, "/api/participants/"+p.ID+"/baseline", gin.H{
		"techComfort": 9, "privacyConcern": 3, "chatbotFamiliarity": 3, "dataSharingAttitude": 3,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "validation_failed", resp["error"])
	assert.Equal(t, "techComfort", resp["field"])
}

func TestDecisionConfigRejectedWithoutDashboard(t *testing.T) {
	r := setupRouter(t)
	p := seedParticipant(t, study.ConditionB, study.PhaseDecision)

	w, resp := doJSON(t, r, http.MethodPost, "/api/participants/"+p.ID+"/decision", gin.H{
		"decision": "donate",
		"config": gin.H{
			"scope": "full", "purpose": "academic",
			"storage": "switzerland", "retention": "two-years",
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "validation_failed", resp["error"])
}

func TestGetUnknownParticipant(t *testing.T) {
	r := setupRouter(t)

	w, resp := doJSON(t, r, http.MethodGet, "/api/participants/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", resp["error"])
}

func TestMeWithoutSession(t *testing.T) {
	r := setupRouter(t)

	w, resp := doJSON(t, r, http.MethodGet, "/api/participants/me", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", resp["error"])
}

func TestMeResumesSession(t *testing.T) {
	r := setupRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/participants", gin.H{"language": "it"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := resp["participantId"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/participants/me", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)

	require.Equal(t, http.StatusOK, w2.Code, w2.Body.String())
	resp = map[string]interface{}{}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &resp))
	participant := resp["participant"].(map[string]interface{})
	assert.Equal(t, id, participant["id"])
}

func TestChatRelayValidation(t *testing.T) {
	r := setupRouter(t)
	p := seedParticipant(t, study.ConditionA, study.PhaseChatbot)
	path := "/api/participants/" + p.ID + "/chat"

	w, _ := doJSON(t, r, http.MethodPost, path, gin.H{"message": "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, path, gin.H{"message": strings.Repeat("x", 1001)})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, resp := doJSON(t, r, http.MethodPost, "/api/participants/"+uuid.NewString()+"/chat", gin.H{"message": "hello"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", resp["error"])

	// Outside the chatbot phase the relay is closed.
	done := seedParticipant(t, study.ConditionA, study.PhaseSurvey)
	w, resp = doJSON(t, r, http.MethodPost, "/api/participants/"+done.ID+"/chat", gin.H{"message": "hello"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "phase", resp["field"])
}

func TestClickEndpoints(t *testing.T) {
	r := setupRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/clicks/external_link", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, resp := doJSON(t, r, http.MethodPost, "/api/clicks/made_up", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "validation_failed", resp["error"])
}

func TestStatsEndpoint(t *testing.T) {
	r := setupRouter(t)

	seedParticipant(t, study.ConditionA, study.PhaseComplete)
	seedParticipant(t, study.ConditionB, study.PhaseChatbot)

	w, resp := doJSON(t, r, http.MethodGet, "/api/stats/participants", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, resp["count"])
	assert.EqualValues(t, 200, resp["target"])
}

func TestAdminLogin(t *testing.T) {
	r := setupRouter(t)

	// Unconfigured admin surface stays closed.
	w, _ := doJSON(t, r, http.MethodPost, "/api/admin/login", gin.H{"password": "whatever"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	config.Conf.Admin = config.AdminConfig{PasswordHash: string(hash), JWTSecret: "jwt-secret"}

	w, _ = doJSON(t, r, http.MethodPost, "/api/admin/login", gin.H{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, resp := doJSON(t, r, http.MethodPost, "/api/admin/login", gin.H{"password": "correct horse"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, resp["token"])
}

func TestAdminDeleteScopes(t *testing.T) {
	r := setupRouter(t)

	pilot := seedParticipant(t, study.ConditionA, study.PhaseConsent)
	require.NoError(t, database.DB.Model(&models.Participant{}).
		Where("id = ?", pilot.ID).
		Update("is_ai_participant", true).Error)
	seedParticipant(t, study.ConditionB, study.PhaseConsent)

	w, resp := doJSON(t, r, http.MethodDelete, "/api/admin/participants?scope=test", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, resp["deleted"])

	w, _ = doJSON(t, r, http.MethodDelete, "/api/admin/participants?scope=range&from=garbage&to=also", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodDelete, "/api/admin/participants?scope=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = doJSON(t, r, http.MethodDelete, "/api/admin/participants?scope=all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, resp["deleted"])
}
