package services

import (
	"context"
	"time"

	"github.com/pluzgi/chatbot-study-sub001/internal/config"
	"github.com/pluzgi/chatbot-study-sub001/internal/repository"
	"github.com/pluzgi/chatbot-study-sub001/internal/study"

	"go.uber.org/zap"
)

// RecruitmentMonitor periodically logs the per-condition cell sizes and the
// progress toward the recruitment target, so the researchers can watch the
// run without querying the database by hand.
type RecruitmentMonitor struct {
	log      *zap.Logger
	interval time.Duration
}

func NewRecruitmentMonitor(log *zap.Logger) *RecruitmentMonitor {
	return &RecruitmentMonitor{
		log:      log,
		interval: 15 * time.Minute,
	}
}

// Start runs the monitor in a goroutine.
func (m *RecruitmentMonitor) Start() {
	m.log.Info("Starting recruitment monitor...")
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			<-ticker.C
			m.runCheck()
		}
	}()
}

func (m *RecruitmentMonitor) runCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	counts, err := repository.CountByCondition(ctx, false)
	if err != nil {
		m.log.Error("Failed to count participants per condition", zap.Error(err))
		return
	}
	completed, err := repository.CountCompleted(ctx)
	if err != nil {
		m.log.Error("Failed to count completed participants", zap.Error(err))
		return
	}

	target := config.Conf.Study.RecruitmentTarget
	fields := []zap.Field{
		zap.Int64("completed", completed),
		zap.Int("target", target),
	}
	for _, c := range study.Conditions {
		fields = append(fields, zap.Int("condition_"+string(c), counts[c]))
	}
	m.log.Info("Recruitment progress", fields...)

	if int(completed) >= target {
		m.log.Info("Recruitment target reached; consider closing the study",
			zap.Int64("completed", completed), zap.Int("target", target))
	}
}
