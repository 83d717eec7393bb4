package domain

import "time"

type Spot struct {
	ID          int64
	OwnerID     int64
	Address     string
	City        string
	State       string
	Country     string
	Lat, Lng    float64
	Name        string
	Description string
	Price       float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type SpotImage struct {
	ID      int64
	SpotID  int64
	URL     string
	Preview bool
}

// RatingStat is the COUNT/SUM of review stars for one spot.
type RatingStat struct {
	Count int
	Sum   int
}

// Average returns Sum/Count, or nil when the spot has no reviews.
func (r RatingStat) Average() *float64 {
	if r.Count == 0 {
		return nil
	}
	avg := float64(r.Sum) / float64(r.Count)
	return &avg
}

// SelectPreview picks the image shown for a spot in list views.
// Images flagged preview win over unflagged ones; the lowest id breaks ties.
// The mysql PreviewImages query orders rows the same way.
func SelectPreview(images []SpotImage) (SpotImage, bool) {
	var best SpotImage
	found := false
	for _, img := range images {
		if !found || previewBefore(img, best) {
			best, found = img, true
		}
	}
	return best, found
}

func previewBefore(a, b SpotImage) bool {
	if a.Preview != b.Preview {
		return a.Preview
	}
	return a.ID < b.ID
}
