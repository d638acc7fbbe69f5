package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"comment-insights-service/metrics"
	"comment-insights-service/model"
)

// ErrNotFound means no report has been stored for the video yet.
var ErrNotFound = errors.New("report not found")

const reportsCollection = "reports"

// ReportStore persists generated analysis reports in MongoDB. Only the
// derived report is stored, never the raw fetched comments.
type ReportStore struct {
	coll *mongo.Collection
}

// NewReportStore builds a ReportStore on the given database and makes
// sure its indexes exist.
func NewReportStore(db *mongo.Database) *ReportStore {
	s := &ReportStore{coll: db.Collection(reportsCollection)}
	s.ensureIndexes()
	return s
}

func (s *ReportStore) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "videoId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "generatedAt", Value: -1}},
		},
	}

	for _, index := range indexes {
		if _, err := s.coll.Indexes().CreateOne(ctx, index); err != nil {
			log.Printf("[WARN] Failed to create index on %s: %v", reportsCollection, err)
		}
	}
}

// Save upserts the report, keeping one latest report per video.
func (s *ReportStore) Save(ctx context.Context, report *model.AnalysisReport) error {
	filter := bson.M{"videoId": report.VideoID}
	update := bson.M{"$set": report}

	_, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		metrics.MongoOperationsTotal.WithLabelValues("upsert", reportsCollection, "error").Inc()
		return err
	}
	metrics.MongoOperationsTotal.WithLabelValues("upsert", reportsCollection, "ok").Inc()
	log.Printf("[INFO] Stored report for videoId=%s", report.VideoID)
	return nil
}

// Latest returns the stored report for the video, or ErrNotFound.
func (s *ReportStore) Latest(ctx context.Context, videoID string) (*model.AnalysisReport, error) {
	var report model.AnalysisReport
	err := s.coll.FindOne(ctx, bson.M{"videoId": videoID}).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		metrics.MongoOperationsTotal.WithLabelValues("find", reportsCollection, "error").Inc()
		return nil, err
	}
	metrics.MongoOperationsTotal.WithLabelValues("find", reportsCollection, "ok").Inc()
	return &report, nil
}
