package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"spot_rental/internal/domain"
)

// Aggregator builds read models. Each method issues a fixed number of batched
// queries concurrently, so it must not be called with a transaction-bound store.
type Aggregator struct {
	users   domain.UserRepository
	spots   domain.SpotRepository
	reviews domain.ReviewRepository
}

func NewAggregator(store domain.Store) *Aggregator {
	return &Aggregator{users: store, spots: store, reviews: store}
}

// SummarizeSpots attaches avgRating and previewImage using one ratings query and
// one preview query for the whole list.
func (a *Aggregator) SummarizeSpots(ctx context.Context, spots []domain.Spot) ([]domain.SpotSummary, error) {
	out := make([]domain.SpotSummary, 0, len(spots))
	if len(spots) == 0 {
		return out, nil
	}
	ids := make([]int64, len(spots))
	for i, s := range spots {
		ids[i] = s.ID
	}

	var (
		stats    map[int64]domain.RatingStat
		previews map[int64]domain.SpotImage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = a.spots.RatingStats(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		previews, err = a.spots.PreviewImages(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("summarize spots: %w", err)
	}

	for _, s := range spots {
		sum := domain.SpotSummary{Spot: s, AvgRating: stats[s.ID].Average()}
		if img, ok := previews[s.ID]; ok {
			sum.PreviewImage = &img.URL
		}
		out = append(out, sum)
	}
	return out, nil
}

func (a *Aggregator) DetailSpot(ctx context.Context, s domain.Spot) (domain.SpotDetail, error) {
	var (
		stats  map[int64]domain.RatingStat
		images []domain.SpotImage
		owners map[int64]domain.UserRef
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = a.spots.RatingStats(gctx, []int64{s.ID})
		return err
	})
	g.Go(func() (err error) {
		images, err = a.spots.ListSpotImages(gctx, s.ID)
		return err
	})
	g.Go(func() (err error) {
		owners, err = a.users.ListUserRefs(gctx, []int64{s.OwnerID})
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.SpotDetail{}, fmt.Errorf("detail spot %d: %w", s.ID, err)
	}

	st := stats[s.ID]
	d := domain.SpotDetail{
		Spot:          s,
		NumReviews:    st.Count,
		AvgStarRating: st.Average(),
		Images:        images,
		Owner:         owners[s.OwnerID],
	}
	if d.Images == nil {
		d.Images = []domain.SpotImage{}
	}
	if img, ok := domain.SelectPreview(images); ok {
		d.PreviewImage = &img.URL
	}
	return d, nil
}

// ReviewViews attaches each review's author and images.
func (a *Aggregator) ReviewViews(ctx context.Context, reviews []domain.Review) ([]domain.ReviewView, error) {
	out := make([]domain.ReviewView, 0, len(reviews))
	if len(reviews) == 0 {
		return out, nil
	}
	reviewIDs := make([]int64, len(reviews))
	userIDs := make([]int64, 0, len(reviews))
	seen := make(map[int64]struct{}, len(reviews))
	for i, r := range reviews {
		reviewIDs[i] = r.ID
		if _, ok := seen[r.UserID]; !ok {
			seen[r.UserID] = struct{}{}
			userIDs = append(userIDs, r.UserID)
		}
	}

	var (
		users  map[int64]domain.UserRef
		images map[int64][]domain.ReviewImage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = a.users.ListUserRefs(gctx, userIDs)
		return err
	})
	g.Go(func() (err error) {
		images, err = a.reviews.ReviewImagesByReview(gctx, reviewIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("review views: %w", err)
	}

	for _, r := range reviews {
		imgs := images[r.ID]
		if imgs == nil {
			imgs = []domain.ReviewImage{}
		}
		out = append(out, domain.ReviewView{Review: r, User: users[r.UserID], Images: imgs})
	}
	return out, nil
}
