package app

import (
	"context"
	"errors"

	"spot_rental/internal/domain"
)

const msgDuplicateReview = "User already has a review for this spot"

// RequireOwner allows only the spot's owner.
func RequireOwner(s domain.Spot, u domain.User) error {
	if s.OwnerID != u.ID {
		return domain.Forbidden("Forbidden")
	}
	return nil
}

// RequireAuthor allows only the review's author.
func RequireAuthor(r domain.Review, u domain.User) error {
	if r.UserID != u.ID {
		return domain.Forbidden("Forbidden")
	}
	return nil
}

// RequireUniqueReview rejects a second review by the same user on the same spot.
func RequireUniqueReview(ctx context.Context, reviews domain.ReviewRepository, spotID, userID int64) error {
	exists, err := reviews.HasReview(ctx, spotID, userID)
	if err != nil {
		return err
	}
	if exists {
		return domain.Forbidden(msgDuplicateReview)
	}
	return nil
}

// notFoundAs turns a missing row (or a vanished parent row) into the entity's 404.
func notFoundAs(err error, entity string) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrReferenceMissing) {
		return domain.NotFound(entity)
	}
	return err
}
