package domain

import (
	"context"
	"time"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	// GetUserByCredential matches either the email or the username.
	GetUserByCredential(ctx context.Context, credential string) (User, error)
	ListUserRefs(ctx context.Context, ids []int64) (map[int64]UserRef, error)
}

type SpotRepository interface {
	ListSpots(ctx context.Context) ([]Spot, error)
	ListSpotsByOwner(ctx context.Context, ownerID int64) ([]Spot, error)
	GetSpot(ctx context.Context, id int64) (Spot, error)
	// LockSpot reads the spot and holds a row lock until the enclosing transaction ends.
	LockSpot(ctx context.Context, id int64) (Spot, error)
	CreateSpot(ctx context.Context, s Spot) (Spot, error)
	UpdateSpot(ctx context.Context, s Spot) (Spot, error)
	DeleteSpot(ctx context.Context, id int64) error

	AddSpotImage(ctx context.Context, img SpotImage) (SpotImage, error)
	ListSpotImages(ctx context.Context, spotID int64) ([]SpotImage, error)

	// Batched read-model queries keyed by spot id. Spots without rows are absent.
	RatingStats(ctx context.Context, spotIDs []int64) (map[int64]RatingStat, error)
	PreviewImages(ctx context.Context, spotIDs []int64) (map[int64]SpotImage, error)
}

type ReviewRepository interface {
	ListReviewsBySpot(ctx context.Context, spotID int64) ([]Review, error)
	HasReview(ctx context.Context, spotID, userID int64) (bool, error)
	GetReview(ctx context.Context, id int64) (Review, error)
	// LockReview reads the review and holds a row lock until the enclosing transaction ends.
	LockReview(ctx context.Context, id int64) (Review, error)
	CreateReview(ctx context.Context, r Review) (Review, error)
	DeleteReview(ctx context.Context, id int64) error

	AddReviewImage(ctx context.Context, img ReviewImage) (ReviewImage, error)
	CountReviewImages(ctx context.Context, reviewID int64) (int, error)
	ReviewImagesByReview(ctx context.Context, reviewIDs []int64) (map[int64][]ReviewImage, error)
}

// Store is the full persistence port. WithinTx runs fn against a store bound to
// one transaction; fn's error rolls it back.
type Store interface {
	UserRepository
	SpotRepository
	ReviewRepository
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, keys ...string) error
}

// TokenDenylist remembers revoked session token ids until they would expire anyway.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Read models

type SpotSummary struct {
	Spot         Spot
	AvgRating    *float64
	PreviewImage *string
}

type SpotDetail struct {
	Spot          Spot
	NumReviews    int
	AvgStarRating *float64
	PreviewImage  *string
	Images        []SpotImage
	Owner         UserRef
}

type ReviewView struct {
	Review Review
	User   UserRef
	Images []ReviewImage
}
