package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pluzgi/chatbot-study-sub001/internal/database"
	"github.com/pluzgi/chatbot-study-sub001/internal/models"
	"github.com/pluzgi/chatbot-study-sub001/internal/study"

	"gorm.io/gorm"
)

// Def is the loaded study definition. Every write validates against it
// independently of whatever the handlers already checked (defense in depth).
// Set once at startup, before the router accepts traffic.
var Def *study.Definition

// CreateParticipant inserts a freshly allocated participant row.
func CreateParticipant(ctx context.Context, p *models.Participant) error {
	if !study.ValidCondition(p.Condition) {
		return study.NewValidationError("condition", "unknown condition "+string(p.Condition))
	}
	if !Def.ValidLanguage(p.Language) {
		return study.NewValidationError("language", "unsupported locale "+p.Language)
	}

	err := database.DB.WithContext(ctx).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &study.ConflictError{Key: "session_id"}
	}
	return err
}

// GetParticipant loads one participant by id.
func GetParticipant(ctx context.Context, id string) (*models.Participant, error) {
	var p models.Participant
	err := database.DB.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &study.NotFoundError{Entity: "participant", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CountByCondition returns how many participants of the given cohort sit in
// each condition cell. The block allocator feeds on this.
func CountByCondition(ctx context.Context, aiCohort bool) (map[study.Condition]int, error) {
	var rows []struct {
		Condition study.Condition
		N         int
	}
	err := database.DB.WithContext(ctx).
		Model(&models.Participant{}).
		Select("condition, COUNT(*) AS n").
		Where("is_ai_participant = ?", aiCohort).
		Group("condition").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[study.Condition]int, len(study.Conditions))
	for _, r := range rows {
		counts[r.Condition] = r.N
	}
	return counts, nil
}

// CountCompleted returns how many human participants have reached the
// complete phase. This is the number reported against the recruitment target.
func CountCompleted(ctx context.Context) (int64, error) {
	var count int64
	err := database.DB.WithContext(ctx).
		Model(&models.Participant{}).
		Where("is_ai_participant = ? AND current_phase = ?", false, study.PhaseComplete).
		Count(&count).Error
	return count, err
}

// HasRecentParticipation is the duplicate-participation guard. It reports
// whether the fingerprint appears on a row created within the window,
// optionally restricted to completed participations so dropouts may restart.
// Read-only; the caller decides what to do with a match.
func HasRecentParticipation(ctx context.Context, fingerprint string, window time.Duration, completedOnly bool) (bool, error) {
	cutoff := time.Now().Add(-window)

	q := database.DB.WithContext(ctx).
		Model(&models.Participant{}).
		Where("fingerprint = ? AND created_at >= ?", fingerprint, cutoff)
	if completedOnly {
		q = q.Where("current_phase = ?", study.PhaseComplete)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AcceptConsent advances consent -> baseline.
func AcceptConsent(ctx context.Context, id string) error {
	p, err := GetParticipant(ctx, id)
	if err != nil {
		return err
	}
	if err := study.Advance(p.CurrentPhase, study.PhaseBaseline); err != nil {
		return err
	}
	return database.DB.WithContext(ctx).
		Model(&models.Participant{}).
		Where("id = ?", id).
		Update("current_phase", study.PhaseBaseline).Error
}

// RecordBaseline persists the pre-task Likert answers and advances
// baseline -> chatbot.
func RecordBaseline(ctx context.Context, id string, m study.BaselineMeasures) error {
	p, err := GetParticipant(ctx, id)
	if err != nil {
		return err
	}
	if err := Def.ValidateBaseline(m); err != nil {
		return err
	}
	if err := study.Advance(p.CurrentPhase, study.PhaseChatbot); err != nil {
		return err
	}

	return database.DB.WithContext(ctx).
		Model(&models.Participant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"tech_comfort":          m.TechComfort,
			"privacy_concern":       m.PrivacyConcern,
			"chatbot_familiarity":   m.ChatbotFamiliarity,
			"data_sharing_attitude": m.DataSharingAttitude,
			"current_phase":         study.PhaseChatbot,
		}).Error
}

// OpenDecision advances chatbot -> decision. The minimum-turns rule is
// enforced here, server-side; a client that skips ahead in the UI cannot
// reach the donation prompt early.
func OpenDecision(ctx context.Context, id string, minTurns int) error {
	p, err := GetParticipant(ctx, id)
	if err != nil {
		return err
	}
	if err := study.Advance(p.CurrentPhase, study.PhaseDecision); err != nil {
		return err
	}
	if p.ChatTurns < minTurns {
		return study.NewValidationError("chatTurns",
			fmt.Sprintf("only %d of %d required chat turns completed", p.ChatTurns, minTurns))
	}
	return database.DB.WithContext(ctx).
		Model(&models.Participant{}).
		Where("id = ?", id).
		Update("current_phase", study.PhaseDecision).Error
}

// RecordDonationDecision persists the donation choice, stamps decision_at,
// and advances decision -> survey. The donation-config invariant is enforced
// against the participant's assigned condition, never against client input.
func RecordDonationDecision(ctx context.Context, id string, decision study.Decision, cfg *study.DonationConfig) error {
	p, err := GetParticipant(ctx, id)
	if err != nil {
		return err
	}
	if err := Def.ValidateDonation(p.Condition, decision, cfg); err != nil {
		return err
	}
	if err := study.Advance(p.CurrentPhase, study.PhaseSurvey); err != nil {
		return err
	}

	updates := map[string]interface{}{
		"donation_decision": decision,
		"decision_at":       time.Now(),
		"current_phase":     study.PhaseSurvey,
	}
	if cfg != nil {
		updates["donation_config"] = cfg
	}
	return database.DB.WithContext(ctx).
		Model(&models.Participant{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// RecordSurveyMeasures creates the post-task row, advances survey ->
// complete, and stamps completed_at. Row creation and phase advancement
// commit together or not at all.
func RecordSurveyMeasures(ctx context.Context, id string, m study.SurveyMeasures) (*models.PostTaskMeasures, error) {
	p, err := GetParticipant(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Def.ValidateSurvey(m); err != nil {
		return nil, err
	}
	if err := study.Advance(p.CurrentPhase, study.PhaseComplete); err != nil {
		return nil, err
	}

	measures := &models.PostTaskMeasures{
		ParticipantID:        p.ID,
		Transparency1:        m.Transparency1,
		Transparency2:        m.Transparency2,
		Control1:             m.Control1,
		Control2:             m.Control2,
		RiskTraceability:     m.RiskTraceability,
		RiskMisuse:           m.RiskMisuse,
		Trust1:               m.Trust1,
		AttentionCheck:       m.AttentionCheck,
		AttentionCheckPassed: Def.AttentionCheckPassed(m.AttentionCheck),
		Age:                  m.Age,
		Gender:               m.Gender,
		PrimaryLanguage:      m.PrimaryLanguage,
		Education:            m.Education,
		EligibleToVoteCH:     m.EligibleToVoteCH,
		OpenFeedback:         m.OpenFeedback,
	}

	err = database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(measures).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &study.ConflictError{Key: "participant_id"}
			}
			return err
		}
		return tx.Model(&models.Participant{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"current_phase": study.PhaseComplete,
				"completed_at":  time.Now(),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return measures, nil
}
