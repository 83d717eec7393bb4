package httpserver

import (
	"time"

	"spot_rental/internal/domain"
)

type spotJSON struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"ownerId"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Country     string    `json:"country"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toSpot(s domain.Spot) spotJSON {
	return spotJSON{
		ID:          s.ID,
		OwnerID:     s.OwnerID,
		Address:     s.Address,
		City:        s.City,
		State:       s.State,
		Country:     s.Country,
		Lat:         s.Lat,
		Lng:         s.Lng,
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// avgRating is null for a spot without reviews; previewImage is left out
// for a spot without images.
type spotSummaryJSON struct {
	spotJSON
	AvgRating    *float64 `json:"avgRating"`
	PreviewImage *string  `json:"previewImage,omitempty"`
}

type spotsJSON struct {
	Spots []spotSummaryJSON `json:"Spots"`
}

func toSpots(list []domain.SpotSummary) spotsJSON {
	out := spotsJSON{Spots: make([]spotSummaryJSON, 0, len(list))}
	for _, s := range list {
		out.Spots = append(out.Spots, spotSummaryJSON{
			spotJSON:     toSpot(s.Spot),
			AvgRating:    s.AvgRating,
			PreviewImage: s.PreviewImage,
		})
	}
	return out
}

type spotImageJSON struct {
	ID      int64  `json:"id"`
	URL     string `json:"url"`
	Preview bool   `json:"preview"`
}

type ownerJSON struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func toOwner(u domain.UserRef) ownerJSON {
	return ownerJSON{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
}

type spotDetailJSON struct {
	spotJSON
	NumReviews    int             `json:"numReviews"`
	AvgStarRating *float64        `json:"avgStarRating"`
	PreviewImage  *string         `json:"previewImage,omitempty"`
	SpotImages    []spotImageJSON `json:"SpotImages"`
	Owner         ownerJSON       `json:"Owner"`
}

func toSpotDetail(d domain.SpotDetail) spotDetailJSON {
	out := spotDetailJSON{
		spotJSON:      toSpot(d.Spot),
		NumReviews:    d.NumReviews,
		AvgStarRating: d.AvgStarRating,
		PreviewImage:  d.PreviewImage,
		SpotImages:    make([]spotImageJSON, 0, len(d.Images)),
		Owner:         toOwner(d.Owner),
	}
	for _, img := range d.Images {
		out.SpotImages = append(out.SpotImages, toSpotImage(img))
	}
	return out
}

func toSpotImage(img domain.SpotImage) spotImageJSON {
	return spotImageJSON{ID: img.ID, URL: img.URL, Preview: img.Preview}
}

type reviewJSON struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	SpotID    int64     `json:"spotId"`
	Review    string    `json:"review"`
	Stars     int       `json:"stars"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toReview(r domain.Review) reviewJSON {
	return reviewJSON{
		ID:        r.ID,
		UserID:    r.UserID,
		SpotID:    r.SpotID,
		Review:    r.Text,
		Stars:     r.Stars,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type reviewImageJSON struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

type reviewViewJSON struct {
	reviewJSON
	User         ownerJSON         `json:"User"`
	ReviewImages []reviewImageJSON `json:"ReviewImages"`
}

type reviewsJSON struct {
	Reviews []reviewViewJSON `json:"Reviews"`
}

func toReviews(views []domain.ReviewView) reviewsJSON {
	out := reviewsJSON{Reviews: make([]reviewViewJSON, 0, len(views))}
	for _, v := range views {
		rv := reviewViewJSON{
			reviewJSON:   toReview(v.Review),
			User:         toOwner(v.User),
			ReviewImages: make([]reviewImageJSON, 0, len(v.Images)),
		}
		for _, img := range v.Images {
			rv.ReviewImages = append(rv.ReviewImages, reviewImageJSON{ID: img.ID, URL: img.URL})
		}
		out.Reviews = append(out.Reviews, rv)
	}
	return out
}

type userJSON struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Username  string `json:"username"`
}

// sessionJSON renders {"user": null} for an anonymous caller.
type sessionJSON struct {
	User *userJSON `json:"user"`
}

func toSession(u *domain.User) sessionJSON {
	if u == nil {
		return sessionJSON{}
	}
	return sessionJSON{User: &userJSON{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Username:  u.Username,
	}}
}
