package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"spot_rental/internal/app"
	"spot_rental/internal/domain"
	"spot_rental/internal/storage/memory"
)

// fakeCache keeps JSON copies, the way the redis adapter does.
type fakeCache struct {
	mu      sync.Mutex
	store   map[string][]byte
	deleted []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.store, k)
	}
	c.deleted = append(c.deleted, keys...)
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store[key]
	return ok
}

type fixture struct {
	store *memory.Store
	cache *fakeCache
	q     *app.QueryService
	cmd   *app.CommandService
}

func newFixture() fixture {
	st := memory.New()
	c := &fakeCache{}
	return fixture{
		store: st,
		cache: c,
		q:     app.NewQueryService(st, c, time.Minute),
		cmd:   app.NewCommandService(st, c, time.Minute),
	}
}

func (f fixture) user(t *testing.T, username string) domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	u, err := f.store.CreateUser(context.Background(), domain.User{
		FirstName:      "First" + username,
		LastName:       "Last" + username,
		Email:          username + "@example.com",
		Username:       username,
		HashedPassword: hash,
	})
	require.NoError(t, err)
	return u
}

func (f fixture) spot(t *testing.T, owner domain.User) domain.Spot {
	t.Helper()
	s, err := f.cmd.CreateSpot(context.Background(), owner, validSpot())
	require.NoError(t, err)
	return s
}

func (f fixture) review(t *testing.T, author domain.User, spotID int64, stars float64) domain.Review {
	t.Helper()
	r, err := f.cmd.CreateReview(context.Background(), author, spotID, app.ReviewPayload{
		Review: app.Str("Lovely place"),
		Stars:  app.Num(stars),
	})
	require.NoError(t, err)
	return r
}

func validSpot() app.SpotPayload {
	return app.SpotPayload{
		Address:     app.Str("123 Disney Lane"),
		City:        app.Str("San Francisco"),
		State:       app.Str("California"),
		Country:     app.Str("United States of America"),
		Lat:         app.Num(37.7645358),
		Lng:         app.Num(-122.4730327),
		Name:        app.Str("App Academy"),
		Description: app.Str("Place where web developers are created"),
		Price:       app.Num(123),
	}
}

func image(url string, preview bool) app.ImagePayload {
	return app.ImagePayload{URL: app.Str(url), Preview: app.Flag{Value: preview}}
}

func requireKind(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	require.ErrorIs(t, err, kind)
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	require.Equal(t, msg, de.Message)
}

func requireInvalid(t *testing.T, err error, field, msg string) {
	t.Helper()
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, field, ve.Field)
	require.Equal(t, msg, ve.Message)
}
