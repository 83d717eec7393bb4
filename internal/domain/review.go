package domain

import "time"

// MaxReviewImages caps the images attached to one review.
const MaxReviewImages = 10

type Review struct {
	ID        int64
	SpotID    int64
	UserID    int64
	Text      string
	Stars     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ReviewImage struct {
	ID       int64
	ReviewID int64
	URL      string
}
