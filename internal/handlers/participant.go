package handlers

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/pluzgi/chatbot-study-sub001/internal/config"
	"github.com/pluzgi/chatbot-study-sub001/internal/models"
	"github.com/pluzgi/chatbot-study-sub001/internal/repository"
	"github.com/pluzgi/chatbot-study-sub001/internal/study"
	"github.com/pluzgi/chatbot-study-sub001/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionParticipantKey = "participantID"

type ParticipantHandler struct {
	log *zap.Logger
	def *study.Definition
}

func NewParticipantHandler(log *zap.Logger, def *study.Definition) *ParticipantHandler {
	return &ParticipantHandler{log: log, def: def}
}

type initializeRequest struct {
	Language string `json:"language" binding:"required"`
}

// Initialize fingerprints the client, runs the duplicate guard, allocates a
// condition, and creates the participant. A guard match is a normal outcome,
// answered with a distinct body rather than an error status.
func (h *ParticipantHandler) Initialize(c *gin.Context) {
	var req initializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !h.def.ValidLanguage(req.Language) {
		writeError(c, h.log, study.NewValidationError("language", "unsupported locale "+req.Language))
		return
	}

	fingerprint := study.Fingerprint(
		c.ClientIP(),
		c.GetHeader("User-Agent"),
		c.GetHeader("Accept-Language"),
		c.GetHeader("Accept-Encoding"),
	)

	studyConf := config.Conf.Study
	if studyConf.DuplicateCheck.Enabled {
		window := time.Duration(studyConf.DuplicateCheck.WindowDays) * 24 * time.Hour
		seen, err := repository.HasRecentParticipation(c.Request.Context(), fingerprint, window, studyConf.DuplicateCheck.CompletedOnly)
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		if seen {
			// Best-effort telemetry; a failed increment never blocks the reply.
			if err := repository.IncrementClickCounter(c.Request.Context(), "restart_blocked"); err != nil {
				h.log.Warn("Failed to count blocked restart", zap.Error(err))
			}
			c.JSON(http.StatusOK, gin.H{"status": "already_participated"})
			return
		}
	}

	aiCohort := studyConf.AllowAICohort && c.Query("cohort") == "ai"

	counts, err := repository.CountByCondition(c.Request.Context(), aiCohort)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	condition, conditionConfig := study.Allocate(counts, rng)

	sessionToken, err := utils.GenerateSecureToken(32)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	participant := &models.Participant{
		ID:              uuid.NewString(),
		SessionID:       sessionToken,
		Condition:       condition,
		Language:        req.Language,
		Fingerprint:     fingerprint,
		CurrentPhase:    study.PhaseConsent,
		IsAIParticipant: aiCohort,
	}
	if err := repository.CreateParticipant(c.Request.Context(), participant); err != nil {
		writeError(c, h.log, err)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionParticipantKey, participant.ID)
	if err := session.Save(); err != nil {
		h.log.Warn("Failed to persist participant session cookie", zap.Error(err))
	}

	h.log.Info("Participant initialized",
		zap.String("participantID", participant.ID),
		zap.String("condition", string(condition)),
		zap.String("language", req.Language),
		zap.Bool("aiCohort", aiCohort),
	)

	c.JSON(http.StatusCreated, gin.H{
		"participantId": participant.ID,
		"sessionId":     participant.SessionID,
		"condition":     condition,
		"config":        conditionConfig,
	})
}

// Get returns the participant's current state for session resume.
func (h *ParticipantHandler) Get(c *gin.Context) {
	p, err := repository.GetParticipant(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"participant": p,
		"config":      study.ConfigFor(p.Condition),
	})
}

// Me resolves the participant from the session cookie, if any.
func (h *ParticipantHandler) Me(c *gin.Context) {
	session := sessions.Default(c)
	id, ok := session.Get(sessionParticipantKey).(string)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	p, err := repository.GetParticipant(c.Request.Context(), id)
	if err != nil {
		// Stale cookie for a deleted participant; clear it.
		session.Clear()
		session.Options(sessions.Options{Path: "/", MaxAge: -1})
		if saveErr := session.Save(); saveErr != nil {
			h.log.Warn("Failed to clear stale session", zap.Error(saveErr))
		}
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"participant": p,
		"config":      study.ConfigFor(p.Condition),
	})
}

// AcceptConsent advances consent -> baseline.
func (h *ParticipantHandler) AcceptConsent(c *gin.Context) {
	if err := repository.AcceptConsent(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currentPhase": study.PhaseBaseline})
}

// RecordBaseline stores the pre-task measures and advances to the chatbot.
func (h *ParticipantHandler) RecordBaseline(c *gin.Context) {
	var measures study.BaselineMeasures
	if err := c.ShouldBindJSON(&measures); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := repository.RecordBaseline(c.Request.Context(), c.Param("id"), measures); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currentPhase": study.PhaseChatbot})
}

// OpenDecision advances chatbot -> decision once enough chat turns happened.
func (h *ParticipantHandler) OpenDecision(c *gin.Context) {
	minTurns := config.Conf.Study.MinChatTurns
	if err := repository.OpenDecision(c.Request.Context(), c.Param("id"), minTurns); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currentPhase": study.PhaseDecision})
}

type decisionRequest struct {
	Decision study.Decision        `json:"decision" binding:"required"`
	Config   *study.DonationConfig `json:"config"`
}

// RecordDecision stores the donation choice and advances to the survey.
func (h *ParticipantHandler) RecordDecision(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := repository.RecordDonationDecision(c.Request.Context(), c.Param("id"), req.Decision, req.Config); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currentPhase": study.PhaseSurvey})
}

// RecordSurvey stores the post-task measures and completes the study.
func (h *ParticipantHandler) RecordSurvey(c *gin.Context) {
	var measures study.SurveyMeasures
	if err := c.ShouldBindJSON(&measures); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if _, err := repository.RecordSurveyMeasures(c.Request.Context(), c.Param("id"), measures); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currentPhase": study.PhaseComplete})
}
