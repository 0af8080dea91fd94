// Package worker provides async report generation for the Pro tier.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/yash-7575/luminasar/internal/domain"
	"github.com/yash-7575/luminasar/internal/workflow"
)

// Worker processes report requests asynchronously from the EventBus.
type Worker struct {
	bus          domain.EventBus
	orchestrator *workflow.Orchestrator

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, orchestrator *workflow.Orchestrator) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:          bus,
		orchestrator: orchestrator,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start subscribes to the report request topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicReportRequested, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("worker started",
		"topic", domain.TopicReportRequested,
	)

	return nil
}

// FailureMessage is published when a report run fails.
type FailureMessage struct {
	CaseID   string `json:"caseId"`
	Error    string `json:"error"`
	FailedAt int64  `json:"failedAt"`
}

// handleMessage runs the pipeline for one report request.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	var req workflow.Request
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		slog.Error("failed to parse report request",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	slog.Debug("processing report request",
		"case_id", req.CaseID,
		"jurisdiction", req.Jurisdiction,
		"force", req.Force,
	)

	report, err := w.orchestrator.Run(ctx, req)
	if err != nil {
		slog.Error("report generation failed",
			"case_id", req.CaseID,
			"error", err,
		)

		failure := FailureMessage{
			CaseID:   req.CaseID,
			Error:    err.Error(),
			FailedAt: time.Now().UnixNano(),
		}
		payload, _ := json.Marshal(failure)
		if pubErr := w.bus.Publish(ctx, domain.TopicReportFailed, payload); pubErr != nil {
			slog.Error("failed to publish failure event",
				"case_id", req.CaseID,
				"error", pubErr,
			)
		}
		return err
	}

	payload, _ := json.Marshal(report)
	if err := w.bus.Publish(ctx, domain.TopicReportCompleted, payload); err != nil {
		slog.Error("failed to publish completed report",
			"case_id", req.CaseID,
			"narrative_id", report.NarrativeID,
			"error", err,
		)
	}

	slog.Info("report request processed",
		"case_id", req.CaseID,
		"narrative_id", report.NarrativeID,
		"risk_score", report.RiskScore,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
