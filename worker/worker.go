package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"

	"comment-insights-service/metrics"
	"comment-insights-service/model"
	"comment-insights-service/sampler"
	"comment-insights-service/service"
	"comment-insights-service/storage"
)

// NATS subjects for async analysis jobs.
const (
	SubjectRequests = "insights.requests"
	SubjectResults  = "insights.results"
)

// Worker consumes analysis requests from NATS, runs the pipeline, stores
// the report and publishes the outcome.
type Worker struct {
	natsConn   *nats.Conn
	svc        *service.Service
	store      *storage.ReportStore // may be nil when persistence is disabled
	cancelFunc context.CancelFunc
}

// NewWorker connects to NATS and builds a Worker.
func NewWorker(natsURL string, svc *service.Service, store *storage.ReportStore) (*Worker, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &Worker{
		natsConn: nc,
		svc:      svc,
		store:    store,
	}, nil
}

// Conn exposes the NATS connection so handlers can publish requests.
func (w *Worker) Conn() *nats.Conn {
	return w.natsConn
}

// Start subscribes to analysis requests.
func (w *Worker) Start(ctx context.Context) error {
	log.Println("Starting insights worker...")

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	_, err := w.natsConn.Subscribe(SubjectRequests, func(msg *nats.Msg) {
		w.handleAnalyzeRequest(workerCtx, msg)
	})
	if err != nil {
		return err
	}

	log.Printf("Successfully subscribed to %s", SubjectRequests)
	return nil
}

// Stop cancels in-flight work and closes the NATS connection.
func (w *Worker) Stop() {
	log.Println("Stopping insights worker...")
	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.natsConn != nil {
		w.natsConn.Close()
	}
}

func (w *Worker) handleAnalyzeRequest(ctx context.Context, msg *nats.Msg) {
	var req model.AnalyzeRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Printf("[ERROR] Failed to unmarshal analyze request: %v", err)
		metrics.NatsMessagesReceived.WithLabelValues(SubjectRequests, "error").Inc()
		return
	}
	metrics.NatsMessagesReceived.WithLabelValues(SubjectRequests, "ok").Inc()

	log.Printf("[INFO] Processing analyze request: %+v", req)

	result := model.AnalyzeResult{
		RequestID:   req.RequestID,
		ProcessedAt: time.Now().UTC(),
	}

	report, err := w.svc.Analyze(ctx, req.VideoRef, req.Sample)
	if errors.Is(err, sampler.ErrInvalidFraction) {
		// A bad fraction in an async job falls back to analyzing
		// everything instead of dropping the request on the floor.
		log.Printf("[WARN] Bad sample %q in request %s, falling back to full sample", req.Sample, req.RequestID)
		report, err = w.svc.Analyze(ctx, req.VideoRef, "all")
	}
	if err != nil {
		result.Error = err.Error()
		w.publishResult(result)
		return
	}

	result.Success = true
	result.VideoID = report.VideoID

	if w.store != nil {
		if err := w.store.Save(ctx, report); err != nil {
			log.Printf("[ERROR] Failed to store report for videoId=%s: %v", report.VideoID, err)
			result.Error = err.Error()
		}
	}

	w.publishResult(result)
	log.Printf("[INFO] Completed analyze request: %s", req.RequestID)
}

func (w *Worker) publishResult(result model.AnalyzeResult) {
	data, _ := json.Marshal(result)

	publish := func() error {
		return w.natsConn.Publish(SubjectResults, data)
	}
	if err := backoff.Retry(publish, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)); err != nil {
		log.Printf("[ERROR] Failed to publish analyze result: %v", err)
		metrics.NatsMessagesPublished.WithLabelValues(SubjectResults, "error").Inc()
		return
	}
	metrics.NatsMessagesPublished.WithLabelValues(SubjectResults, "ok").Inc()
}
