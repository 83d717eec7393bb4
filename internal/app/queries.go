package app

import (
	"context"
	"time"

	"spot_rental/internal/domain"
)

type QueryService struct {
	store domain.Store
	agg   *Aggregator
	rc    readCache
}

func NewQueryService(s domain.Store, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: s, agg: NewAggregator(s), rc: readCache{cache: c, ttl: ttl}}
}

func (s *QueryService) ListSpots(ctx context.Context) ([]domain.SpotSummary, error) {
	var out []domain.SpotSummary
	if s.rc.get(ctx, keyAllSpots, &out) {
		return out, nil
	}
	spots, err := s.store.ListSpots(ctx)
	if err != nil {
		return nil, err
	}
	out, err = s.agg.SummarizeSpots(ctx, spots)
	if err != nil {
		return nil, err
	}
	s.rc.set(ctx, keyAllSpots, out)
	return out, nil
}

// ListOwnedSpots lists the actor's own spots in the same shape as ListSpots.
func (s *QueryService) ListOwnedSpots(ctx context.Context, actor domain.User) ([]domain.SpotSummary, error) {
	key := keyOwnerSpots(actor.ID)
	var out []domain.SpotSummary
	if s.rc.get(ctx, key, &out) {
		return out, nil
	}
	spots, err := s.store.ListSpotsByOwner(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	out, err = s.agg.SummarizeSpots(ctx, spots)
	if err != nil {
		return nil, err
	}
	s.rc.set(ctx, key, out)
	return out, nil
}

func (s *QueryService) GetSpot(ctx context.Context, id int64) (domain.SpotDetail, error) {
	key := keySpot(id)
	var d domain.SpotDetail
	if s.rc.get(ctx, key, &d) {
		return d, nil
	}
	spot, err := s.store.GetSpot(ctx, id)
	if err != nil {
		return domain.SpotDetail{}, notFoundAs(err, "Spot")
	}
	d, err = s.agg.DetailSpot(ctx, spot)
	if err != nil {
		return domain.SpotDetail{}, err
	}
	s.rc.set(ctx, key, d)
	return d, nil
}

// ListSpotReviews returns the spot's reviews with author and images; 404 when the spot is missing.
func (s *QueryService) ListSpotReviews(ctx context.Context, spotID int64) ([]domain.ReviewView, error) {
	if _, err := s.store.GetSpot(ctx, spotID); err != nil {
		return nil, notFoundAs(err, "Spot")
	}
	reviews, err := s.store.ListReviewsBySpot(ctx, spotID)
	if err != nil {
		return nil, err
	}
	return s.agg.ReviewViews(ctx, reviews)
}
