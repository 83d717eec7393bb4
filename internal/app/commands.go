package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"spot_rental/internal/domain"
)

const msgMaxImages = "Maximum number of images for this resource was reached"

// CommandService owns every write. Each mutation runs its existence, authorization
// and validation checks and the write inside one transaction, in that order.
type CommandService struct {
	store domain.Store
	rc    readCache
}

func NewCommandService(s domain.Store, c domain.Cache, ttl time.Duration) *CommandService {
	return &CommandService{store: s, rc: readCache{cache: c, ttl: ttl}}
}

func (s *CommandService) CreateSpot(ctx context.Context, actor domain.User, p SpotPayload) (domain.Spot, error) {
	if err := ValidateSpot(p); err != nil {
		return domain.Spot{}, err
	}
	spot, err := s.store.CreateSpot(ctx, p.apply(domain.Spot{OwnerID: actor.ID}))
	if err != nil {
		return domain.Spot{}, err
	}
	s.rc.invalidateSpot(ctx, spot)
	log.Info().Int64("spot_id", spot.ID).Int64("owner_id", actor.ID).Msg("spot created")
	return spot, nil
}

func (s *CommandService) UpdateSpot(ctx context.Context, actor domain.User, id int64, p SpotPayload) (domain.Spot, error) {
	var updated domain.Spot
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		cur, err := tx.LockSpot(ctx, id)
		if err != nil {
			return notFoundAs(err, "Spot")
		}
		if err := RequireOwner(cur, actor); err != nil {
			return err
		}
		if err := ValidateSpot(p); err != nil {
			return err
		}
		updated, err = tx.UpdateSpot(ctx, p.apply(cur))
		return notFoundAs(err, "Spot")
	})
	if err != nil {
		return domain.Spot{}, err
	}
	s.rc.invalidateSpot(ctx, updated)
	log.Info().Int64("spot_id", id).Msg("spot updated")
	return updated, nil
}

func (s *CommandService) DeleteSpot(ctx context.Context, actor domain.User, id int64) error {
	var deleted domain.Spot
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		cur, err := tx.LockSpot(ctx, id)
		if err != nil {
			return notFoundAs(err, "Spot")
		}
		if err := RequireOwner(cur, actor); err != nil {
			return err
		}
		deleted = cur
		return notFoundAs(tx.DeleteSpot(ctx, id), "Spot")
	})
	if err != nil {
		return err
	}
	s.rc.invalidateSpot(ctx, deleted)
	log.Info().Int64("spot_id", id).Msg("spot deleted")
	return nil
}

func (s *CommandService) AddSpotImage(ctx context.Context, actor domain.User, spotID int64, p ImagePayload) (domain.SpotImage, error) {
	var (
		img  domain.SpotImage
		spot domain.Spot
	)
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		var err error
		spot, err = tx.LockSpot(ctx, spotID)
		if err != nil {
			return notFoundAs(err, "Spot")
		}
		if err := RequireOwner(spot, actor); err != nil {
			return err
		}
		if err := validateImage(p); err != nil {
			return err
		}
		img, err = tx.AddSpotImage(ctx, domain.SpotImage{
			SpotID:  spotID,
			URL:     strings.TrimSpace(p.URL.Value),
			Preview: p.Preview.Value,
		})
		return notFoundAs(err, "Spot")
	})
	if err != nil {
		return domain.SpotImage{}, err
	}
	s.rc.invalidateSpot(ctx, spot)
	return img, nil
}

func (s *CommandService) CreateReview(ctx context.Context, actor domain.User, spotID int64, p ReviewPayload) (domain.Review, error) {
	var (
		review domain.Review
		spot   domain.Spot
	)
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		var err error
		spot, err = tx.LockSpot(ctx, spotID)
		if err != nil {
			return notFoundAs(err, "Spot")
		}
		if err := RequireUniqueReview(ctx, tx, spotID, actor.ID); err != nil {
			return err
		}
		if err := ValidateReview(p); err != nil {
			return err
		}
		review, err = tx.CreateReview(ctx, domain.Review{
			SpotID: spotID,
			UserID: actor.ID,
			Text:   p.Review.Value,
			Stars:  int(p.Stars.Value),
		})
		if errors.Is(err, domain.ErrDuplicate) {
			return domain.Forbidden(msgDuplicateReview)
		}
		return notFoundAs(err, "Spot")
	})
	if err != nil {
		return domain.Review{}, err
	}
	s.rc.invalidateSpot(ctx, spot)
	log.Info().Int64("review_id", review.ID).Int64("spot_id", spotID).Int("stars", review.Stars).Msg("review created")
	return review, nil
}

func (s *CommandService) DeleteReview(ctx context.Context, actor domain.User, reviewID int64) error {
	var review domain.Review
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		var err error
		review, err = tx.LockReview(ctx, reviewID)
		if err != nil {
			return notFoundAs(err, "Review")
		}
		if err := RequireAuthor(review, actor); err != nil {
			return err
		}
		return notFoundAs(tx.DeleteReview(ctx, reviewID), "Review")
	})
	if err != nil {
		return err
	}
	// the spot's ratings changed; its owner id is needed for the list key
	if spot, err := s.store.GetSpot(ctx, review.SpotID); err == nil {
		s.rc.invalidateSpot(ctx, spot)
	}
	log.Info().Int64("review_id", reviewID).Msg("review deleted")
	return nil
}

func (s *CommandService) AddReviewImage(ctx context.Context, actor domain.User, reviewID int64, p ImagePayload) (domain.ReviewImage, error) {
	var img domain.ReviewImage
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		review, err := tx.LockReview(ctx, reviewID)
		if err != nil {
			return notFoundAs(err, "Review")
		}
		if err := RequireAuthor(review, actor); err != nil {
			return err
		}
		n, err := tx.CountReviewImages(ctx, reviewID)
		if err != nil {
			return err
		}
		if n >= domain.MaxReviewImages {
			return domain.Forbidden(msgMaxImages)
		}
		if err := validateImage(p); err != nil {
			return err
		}
		img, err = tx.AddReviewImage(ctx, domain.ReviewImage{ReviewID: reviewID, URL: strings.TrimSpace(p.URL.Value)})
		return notFoundAs(err, "Review")
	})
	if err != nil {
		return domain.ReviewImage{}, err
	}
	return img, nil
}
