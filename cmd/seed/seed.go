package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"spot_rental/internal/app"
	"spot_rental/internal/domain"
)

//go:embed data.json
var defaultData []byte

type seedUser struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

type seedImage struct {
	URL     string `json:"url"`
	Preview bool   `json:"preview"`
}

type seedSpot struct {
	Owner       string      `json:"owner"`
	Address     string      `json:"address"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	Country     string      `json:"country"`
	Lat         float64     `json:"lat"`
	Lng         float64     `json:"lng"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       float64     `json:"price"`
	Images      []seedImage `json:"images"`
}

type seedReview struct {
	Spot   int      `json:"spot"` // index into spots
	Author string   `json:"author"`
	Review string   `json:"review"`
	Stars  int      `json:"stars"`
	Images []string `json:"images"`
}

type dataset struct {
	Users   []seedUser   `json:"users"`
	Spots   []seedSpot   `json:"spots"`
	Reviews []seedReview `json:"reviews"`
}

func parseDataset(b []byte) (dataset, error) {
	var d dataset
	if err := json.Unmarshal(b, &d); err != nil {
		return dataset{}, fmt.Errorf("parse seed data: %w", err)
	}
	for i, r := range d.Reviews {
		if r.Spot < 0 || r.Spot >= len(d.Spots) {
			return dataset{}, fmt.Errorf("review %d: spot index %d out of range", i, r.Spot)
		}
	}
	return d, nil
}

type seeder struct {
	q        *app.QueryService
	cmd      *app.CommandService
	sessions *app.SessionService
	sem      *semaphore.Weighted
}

func newSeeder(q *app.QueryService, cmd *app.CommandService, sessions *app.SessionService, workers int) *seeder {
	if workers < 1 {
		workers = 1
	}
	return &seeder{q: q, cmd: cmd, sessions: sessions, sem: semaphore.NewWeighted(int64(workers))}
}

// fanOut runs fn for 0..n-1 with at most the configured number of workers and
// returns the joined errors.
func (s *seeder) fanOut(ctx context.Context, n int, fn func(i int) error) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < n; i++ {
		i := i
		// acquire before launching the goroutine; release inside it
		if err := s.sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.sem.Release(1)
			if err := fn(i); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Run loads users, then spots with their images, then reviews. Existing users
// are logged in instead of created, and owners that already have spots are
// skipped, so a second run adds nothing.
func (s *seeder) Run(ctx context.Context, d dataset) error {
	users := make(map[string]domain.User, len(d.Users))
	var mu sync.Mutex
	err := s.fanOut(ctx, len(d.Users), func(i int) error {
		u, err := s.ensureUser(ctx, d.Users[i])
		if err != nil {
			return fmt.Errorf("user %s: %w", d.Users[i].Username, err)
		}
		mu.Lock()
		users[u.Username] = u
		mu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}

	owners := map[string]bool{}
	for _, sp := range d.Spots {
		owner, ok := users[sp.Owner]
		if !ok {
			return fmt.Errorf("spot %q: unknown owner %q", sp.Name, sp.Owner)
		}
		if _, seen := owners[sp.Owner]; seen {
			continue
		}
		existing, err := s.q.ListOwnedSpots(ctx, owner)
		if err != nil {
			return err
		}
		owners[sp.Owner] = len(existing) == 0
	}

	spotIDs := make([]int64, len(d.Spots))
	err = s.fanOut(ctx, len(d.Spots), func(i int) error {
		sp := d.Spots[i]
		if !owners[sp.Owner] {
			return nil
		}
		id, err := s.createSpot(ctx, users[sp.Owner], sp)
		if err != nil {
			return fmt.Errorf("spot %q: %w", sp.Name, err)
		}
		spotIDs[i] = id
		return nil
	})
	if err != nil {
		return err
	}

	err = s.fanOut(ctx, len(d.Reviews), func(i int) error {
		r := d.Reviews[i]
		spotID := spotIDs[r.Spot]
		if spotID == 0 {
			return nil
		}
		author, ok := users[r.Author]
		if !ok {
			return fmt.Errorf("review %d: unknown author %q", i, r.Author)
		}
		return s.createReview(ctx, author, spotID, r)
	})
	if err != nil {
		return err
	}
	log.Info().Int("users", len(users)).Int("spots", countNonZero(spotIDs)).Msg("seed complete")
	return nil
}

func (s *seeder) ensureUser(ctx context.Context, u seedUser) (domain.User, error) {
	created, err := s.sessions.Signup(ctx, app.SignupPayload{
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Password:  u.Password,
	})
	if errors.Is(err, domain.ErrForbidden) {
		return s.sessions.Login(ctx, app.LoginPayload{Credential: u.Username, Password: u.Password})
	}
	return created, err
}

func (s *seeder) createSpot(ctx context.Context, owner domain.User, sp seedSpot) (int64, error) {
	spot, err := s.cmd.CreateSpot(ctx, owner, app.SpotPayload{
		Address:     app.Str(sp.Address),
		City:        app.Str(sp.City),
		State:       app.Str(sp.State),
		Country:     app.Str(sp.Country),
		Lat:         app.Num(sp.Lat),
		Lng:         app.Num(sp.Lng),
		Name:        app.Str(sp.Name),
		Description: app.Str(sp.Description),
		Price:       app.Num(sp.Price),
	})
	if err != nil {
		return 0, err
	}
	for _, img := range sp.Images {
		if _, err := s.cmd.AddSpotImage(ctx, owner, spot.ID, app.ImagePayload{URL: app.Str(img.URL), Preview: app.Flag{Value: img.Preview}}); err != nil {
			return 0, err
		}
	}
	return spot.ID, nil
}

func (s *seeder) createReview(ctx context.Context, author domain.User, spotID int64, r seedReview) error {
	review, err := s.cmd.CreateReview(ctx, author, spotID, app.ReviewPayload{
		Review: app.Str(r.Review),
		Stars:  app.Num(float64(r.Stars)),
	})
	if err != nil {
		return fmt.Errorf("review on spot %d by %s: %w", spotID, author.Username, err)
	}
	for _, url := range r.Images {
		if _, err := s.cmd.AddReviewImage(ctx, author, review.ID, app.ImagePayload{URL: app.Str(url)}); err != nil {
			return err
		}
	}
	return nil
}

func countNonZero(ids []int64) int {
	n := 0
	for _, id := range ids {
		if id != 0 {
			n++
		}
	}
	return n
}
