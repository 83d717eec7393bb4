package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spot_rental/internal/app"
	"spot_rental/internal/domain"
)

func TestCreateSpot_OwnerIsActor(t *testing.T) {
	f := newFixture()
	owner := f.user(t, "owner")
	s := f.spot(t, owner)
	require.Equal(t, owner.ID, s.OwnerID)
	require.NotZero(t, s.ID)
}

func TestCreateSpot_ReportsFirstInvalidField(t *testing.T) {
	f := newFixture()
	owner := f.user(t, "owner")
	p := validSpot()
	p.City = app.Text{}
	p.Price = app.Num(-1)

	_, err := f.cmd.CreateSpot(context.Background(), owner, p)
	requireInvalid(t, err, "city", "City is required")

	list, err := f.q.ListSpots(context.Background())
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestUpdateSpot_CheckOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, stranger := f.user(t, "owner"), f.user(t, "stranger")
	s := f.spot(t, owner)
	bad := validSpot()
	bad.Price = app.Num(0)

	_, err := f.cmd.UpdateSpot(ctx, owner, 999, bad)
	requireKind(t, err, domain.ErrNotFound, "Spot couldn't be found")

	_, err = f.cmd.UpdateSpot(ctx, stranger, s.ID, bad)
	requireKind(t, err, domain.ErrForbidden, "Forbidden")

	_, err = f.cmd.UpdateSpot(ctx, owner, s.ID, bad)
	requireInvalid(t, err, "price", "Price per day must be a positive number")

	good := validSpot()
	good.Name = app.Str("Renamed")
	updated, err := f.cmd.UpdateSpot(ctx, owner, s.ID, good)
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Equal(t, owner.ID, updated.OwnerID)
}

func TestDeleteSpot_CascadesAndForbidsStrangers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, guest := f.user(t, "owner"), f.user(t, "guest")
	s := f.spot(t, owner)
	r := f.review(t, guest, s.ID, 5)

	err := f.cmd.DeleteSpot(ctx, guest, s.ID)
	requireKind(t, err, domain.ErrForbidden, "Forbidden")

	require.NoError(t, f.cmd.DeleteSpot(ctx, owner, s.ID))
	_, err = f.q.GetSpot(ctx, s.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.store.GetReview(ctx, r.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = f.cmd.DeleteSpot(ctx, owner, s.ID)
	requireKind(t, err, domain.ErrNotFound, "Spot couldn't be found")
}

func TestAddSpotImage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, stranger := f.user(t, "owner"), f.user(t, "stranger")
	s := f.spot(t, owner)

	_, err := f.cmd.AddSpotImage(ctx, stranger, s.ID, image("https://x.example.com/1.png", true))
	requireKind(t, err, domain.ErrForbidden, "Forbidden")

	_, err = f.cmd.AddSpotImage(ctx, owner, s.ID, image("   ", true))
	requireInvalid(t, err, "url", "Image url is required")

	img, err := f.cmd.AddSpotImage(ctx, owner, s.ID, image("https://x.example.com/1.png", true))
	require.NoError(t, err)
	require.Equal(t, s.ID, img.SpotID)
	require.True(t, img.Preview)

	rel, err := f.cmd.AddSpotImage(ctx, owner, s.ID, image("/images/a.png", false))
	require.NoError(t, err)
	require.Equal(t, "/images/a.png", rel.URL)
	require.False(t, rel.Preview)
}

func TestAddSpotImage_UnreadableBodyChecksComeLast(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, stranger := f.user(t, "owner"), f.user(t, "stranger")
	s := f.spot(t, owner)

	var p app.ImagePayload
	require.NoError(t, json.Unmarshal([]byte(`{"url":"https://x.example.com/1.png","preview":"true"}`), &p))
	_, err := f.cmd.AddSpotImage(ctx, owner, s.ID+1000, p)
	requireKind(t, err, domain.ErrNotFound, "Spot couldn't be found")
	_, err = f.cmd.AddSpotImage(ctx, stranger, s.ID, p)
	requireKind(t, err, domain.ErrForbidden, "Forbidden")
	_, err = f.cmd.AddSpotImage(ctx, owner, s.ID, p)
	requireInvalid(t, err, "preview", "Preview must be true or false")

	var malformed app.SpotPayload
	malformed.MarkMalformed()
	_, err = f.cmd.UpdateSpot(ctx, owner, s.ID+1000, malformed)
	requireKind(t, err, domain.ErrNotFound, "Spot couldn't be found")
	_, err = f.cmd.UpdateSpot(ctx, stranger, s.ID, malformed)
	requireKind(t, err, domain.ErrForbidden, "Forbidden")
	_, err = f.cmd.UpdateSpot(ctx, owner, s.ID, malformed)
	requireInvalid(t, err, "body", "Request body must be a JSON object")
}

func TestCreateReview_Rules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, guest := f.user(t, "owner"), f.user(t, "guest")
	s := f.spot(t, owner)

	_, err := f.cmd.CreateReview(ctx, guest, 999, app.ReviewPayload{Review: app.Str("x"), Stars: app.Num(3)})
	requireKind(t, err, domain.ErrNotFound, "Spot couldn't be found")

	for _, stars := range []float64{0, 6, 4.5} {
		_, err = f.cmd.CreateReview(ctx, guest, s.ID, app.ReviewPayload{Review: app.Str("x"), Stars: app.Num(stars)})
		requireInvalid(t, err, "stars", "Stars must be an integer from 1 to 5")
	}

	r := f.review(t, guest, s.ID, 4)
	require.Equal(t, guest.ID, r.UserID)
	require.Equal(t, 4, r.Stars)

	// duplicate wins over an invalid payload
	_, err = f.cmd.CreateReview(ctx, guest, s.ID, app.ReviewPayload{})
	requireKind(t, err, domain.ErrForbidden, "User already has a review for this spot")
}

func TestCreateReview_ConcurrentDuplicatesYieldOne(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, guest := f.user(t, "owner"), f.user(t, "guest")
	s := f.spot(t, owner)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.cmd.CreateReview(ctx, guest, s.ID, app.ReviewPayload{Review: app.Str("again"), Stars: app.Num(5)})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrForbidden)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, created)

	views, err := f.q.ListSpotReviews(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
}

func TestDeleteReview(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, guest := f.user(t, "owner"), f.user(t, "guest")
	s := f.spot(t, owner)
	r := f.review(t, guest, s.ID, 1)

	err := f.cmd.DeleteReview(ctx, owner, r.ID)
	requireKind(t, err, domain.ErrForbidden, "Forbidden")

	require.NoError(t, f.cmd.DeleteReview(ctx, guest, r.ID))
	d, err := f.q.GetSpot(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, 0, d.NumReviews)
	require.Nil(t, d.AvgStarRating)

	err = f.cmd.DeleteReview(ctx, guest, r.ID)
	requireKind(t, err, domain.ErrNotFound, "Review couldn't be found")
}

func TestAddReviewImage_Cap(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, guest := f.user(t, "owner"), f.user(t, "guest")
	s := f.spot(t, owner)
	r := f.review(t, guest, s.ID, 5)

	_, err := f.cmd.AddReviewImage(ctx, owner, r.ID, image("https://x.example.com/r.png", false))
	requireKind(t, err, domain.ErrForbidden, "Forbidden")

	for i := 0; i < domain.MaxReviewImages; i++ {
		_, err = f.cmd.AddReviewImage(ctx, guest, r.ID, image("https://x.example.com/r.png", false))
		require.NoError(t, err)
	}
	_, err = f.cmd.AddReviewImage(ctx, guest, r.ID, image("https://x.example.com/r.png", false))
	requireKind(t, err, domain.ErrForbidden, "Maximum number of images for this resource was reached")

	_, err = f.cmd.AddReviewImage(ctx, guest, 999, image("https://x.example.com/r.png", false))
	requireKind(t, err, domain.ErrNotFound, "Review couldn't be found")
}
