// Package notifier 推送会话汇总到外部临床接口
package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"respira-monitor/internal/config"
	"respira-monitor/internal/models"
)

// summaryPayload 外部接口的请求体
type summaryPayload struct {
	Source    string                 `json:"source"`
	SessionID string                 `json:"sessionId"`
	PatientID string                 `json:"patientId"`
	DeviceID  string                 `json:"deviceId"`
	StartedAt time.Time              `json:"startedAt"`
	EndedAt   *time.Time             `json:"endedAt,omitempty"`
	Summary   *models.SessionSummary `json:"summary"`
}

// ClinicalNotifier 临床接口客户端
type ClinicalNotifier struct {
	cfg    *config.Config
	client *resty.Client
	logger *zap.Logger
}

func NewClinicalNotifier(cfg *config.Config, logger *zap.Logger) *ClinicalNotifier {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second)

	return &ClinicalNotifier{cfg: cfg, client: client, logger: logger}
}

// PushSummary 推送一个已关闭会话的汇总指标
func (n *ClinicalNotifier) PushSummary(ctx context.Context, session *models.MonitoringSession, summary *models.SessionSummary) error {
	payload := summaryPayload{
		Source:    n.cfg.Clinical.Source,
		SessionID: session.SessionID,
		PatientID: session.PatientID,
		DeviceID:  session.DeviceID,
		StartedAt: session.StartedAt,
		EndedAt:   session.EndedAt,
		Summary:   summary,
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-API-Key", n.cfg.Clinical.APIKey).
		SetBody(payload).
		Post(n.cfg.Clinical.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to push session summary: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("clinical API returned status %d: %s", resp.StatusCode(), resp.String())
	}

	n.logger.Info("Session summary pushed",
		zap.String("session_id", session.SessionID),
		zap.Int("status", resp.StatusCode()),
	)
	return nil
}
