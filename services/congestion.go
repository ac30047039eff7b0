package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mohamedthameursassi/IndoorNavServer/congestion"
	"github.com/mohamedthameursassi/IndoorNavServer/models"
	"github.com/mohamedthameursassi/IndoorNavServer/store"
)

// CongestionService feeds accelerometer uploads into the estimator and
// persists the resulting edge rates.
type CongestionService struct {
	estimator *congestion.Estimator
	store     store.CongestionStore
	now       func() time.Time
}

func NewCongestionService(estimator *congestion.Estimator, cs store.CongestionStore) *CongestionService {
	return &CongestionService{estimator: estimator, store: cs, now: time.Now}
}

func (s *CongestionService) Estimator() *congestion.Estimator { return s.estimator }

// Update ingests one upload. A single malformed reading rejects the whole
// upload before any sample reaches the estimator.
func (s *CongestionService) Update(ctx context.Context, req models.CongestionUpdateRequest) (*models.CongestionUpdateResponse, error) {
	ctx, span := tracer.Start(ctx, "services.CongestionService.Update",
		trace.WithAttributes(
			attribute.String("building_id", req.BuildingID),
			attribute.Int("readings", len(req.AccelerometerData)),
		))
	defer span.End()

	if err := req.Validate(); err != nil {
		rejectedBatches.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed upload")
		return nil, err
	}

	samples := make([]congestion.Sample, len(req.AccelerometerData))
	touched := make(map[string]bool)
	for i, a := range req.AccelerometerData {
		touched[a.LocationID] = true
		samples[i] = congestion.Sample{
			X:          *a.X,
			Y:          *a.Y,
			Z:          *a.Z,
			Timestamp:  a.Time(),
			UserID:     req.UserID,
			LocationID: a.LocationID,
		}
	}

	rates, err := s.estimator.IngestBatch(samples)
	if err != nil {
		rejectedBatches.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "ingest")
		return nil, err
	}
	samplesIngested.Add(float64(len(samples)))

	now := s.now()
	var records []models.CongestionData
	// Rates also cover locations uploaded for other buildings; only the
	// locations of this upload are stored under req.BuildingID.
	for loc, rate := range rates {
		if !touched[loc] {
			continue
		}
		key, ok := congestion.ParseLocationKey(loc)
		if !ok {
			continue
		}
		records = append(records, models.CongestionData{
			CongestionID:   uuid.NewString(),
			BuildingID:     req.BuildingID,
			Node1ID:        key.A,
			Node2ID:        key.B,
			CongestionRate: rate,
			Timestamp:      now,
		})
	}
	if len(records) > 0 {
		if err := s.store.SaveCongestion(ctx, records); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "persist")
			return nil, fmt.Errorf("save congestion: %w", err)
		}
	}
	log.Printf("Congestion update from %s: %d samples, %d locations, %d edges saved",
		req.UserID, len(samples), len(rates), len(records))

	return &models.CongestionUpdateResponse{
		Success:          true,
		UpdatedLocations: len(rates),
		Rates:            rates,
	}, nil
}

// LocationReport is the live state of one tracked location.
type LocationReport struct {
	LocationID string             `json:"location_id"`
	Level      congestion.Level   `json:"level"`
	Factors    congestion.Factors `json:"factors"`
}

// EdgeRate is the live, direction-independent rate of the edge a-b.
func (s *CongestionService) EdgeRate(a, b string) (float64, congestion.Level) {
	rate := s.estimator.EstimateBetween(a, b)
	return rate, congestion.Classify(rate)
}

// Report lists every tracked location that still holds samples.
func (s *CongestionService) Report() []LocationReport {
	var out []LocationReport
	for _, loc := range s.estimator.Locations() {
		f, ok := s.estimator.Inspect(loc)
		if !ok {
			continue
		}
		out = append(out, LocationReport{
			LocationID: loc,
			Level:      congestion.Classify(f.Rate),
			Factors:    f,
		})
	}
	return out
}
