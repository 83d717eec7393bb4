package app_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"spot_rental/internal/domain"
)

func TestListSpots_AggregatesRatingAndPreview(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, guest, other := f.user(t, "owner"), f.user(t, "guest"), f.user(t, "other")

	reviewed := f.spot(t, owner)
	empty := f.spot(t, owner)
	f.review(t, guest, reviewed.ID, 5)
	f.review(t, other, reviewed.ID, 2)
	_, err := f.cmd.AddSpotImage(ctx, owner, reviewed.ID, image("https://img.example.com/a.jpg", false))
	require.NoError(t, err)
	_, err = f.cmd.AddSpotImage(ctx, owner, reviewed.ID, image("https://img.example.com/b.jpg", true))
	require.NoError(t, err)

	list, err := f.q.ListSpots(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.Equal(t, reviewed.ID, list[0].Spot.ID)
	require.NotNil(t, list[0].AvgRating)
	require.InDelta(t, 3.5, *list[0].AvgRating, 1e-9)
	require.NotNil(t, list[0].PreviewImage)
	require.Equal(t, "https://img.example.com/b.jpg", *list[0].PreviewImage)

	require.Equal(t, empty.ID, list[1].Spot.ID)
	require.Nil(t, list[1].AvgRating)
	require.Nil(t, list[1].PreviewImage)
}

func TestListSpots_CacheMissThenHit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := f.user(t, "owner")
	f.spot(t, owner)

	first, err := f.q.ListSpots(ctx)
	require.NoError(t, err)
	require.True(t, f.cache.has("spots:all"))

	// a write that bypasses the services is invisible until the entry is dropped
	_, err = f.store.CreateSpot(ctx, domain.Spot{OwnerID: owner.ID, Name: "direct", Price: 1})
	require.NoError(t, err)
	second, err := f.q.ListSpots(ctx)
	require.NoError(t, err)
	require.Len(t, second, len(first))
}

func TestWritesInvalidateCachedReads(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, guest := f.user(t, "owner"), f.user(t, "guest")
	s := f.spot(t, owner)

	_, err := f.q.GetSpot(ctx, s.ID)
	require.NoError(t, err)
	_, err = f.q.ListOwnedSpots(ctx, owner)
	require.NoError(t, err)
	_, err = f.q.ListSpots(ctx)
	require.NoError(t, err)

	f.review(t, guest, s.ID, 4)
	require.False(t, f.cache.has(fmt.Sprintf("spot:%d", s.ID)))
	require.False(t, f.cache.has("spots:all"))
	require.False(t, f.cache.has(fmt.Sprintf("spots:owner:%d", owner.ID)))

	d, err := f.q.GetSpot(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, 1, d.NumReviews)
	require.InDelta(t, 4.0, *d.AvgStarRating, 1e-9)
}

func TestGetSpot_Detail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := f.user(t, "owner")
	s := f.spot(t, owner)

	d, err := f.q.GetSpot(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, 0, d.NumReviews)
	require.Nil(t, d.AvgStarRating)
	require.Nil(t, d.PreviewImage)
	require.NotNil(t, d.Images)
	require.Empty(t, d.Images)
	require.Equal(t, owner.Ref(), d.Owner)
}

func TestGetSpot_NotFound(t *testing.T) {
	f := newFixture()
	_, err := f.q.GetSpot(context.Background(), 999)
	requireKind(t, err, domain.ErrNotFound, "Spot couldn't be found")
}

func TestListOwnedSpots_OnlyActorsSpots(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a, b := f.user(t, "alice"), f.user(t, "bobby")
	mine := f.spot(t, a)
	f.spot(t, b)

	list, err := f.q.ListOwnedSpots(ctx, a)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, mine.ID, list[0].Spot.ID)

	none, err := f.q.ListOwnedSpots(ctx, f.user(t, "carol"))
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestListSpotReviews(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, guest := f.user(t, "owner"), f.user(t, "guest")
	s := f.spot(t, owner)
	r := f.review(t, guest, s.ID, 3)
	_, err := f.cmd.AddReviewImage(ctx, guest, r.ID, image("https://img.example.com/r.jpg", false))
	require.NoError(t, err)

	views, err := f.q.ListSpotReviews(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, guest.Ref(), views[0].User)
	require.Len(t, views[0].Images, 1)

	_, err = f.q.ListSpotReviews(ctx, 999)
	requireKind(t, err, domain.ErrNotFound, "Spot couldn't be found")
}
