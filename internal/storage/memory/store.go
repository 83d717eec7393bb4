// Package memory is an in-process domain.Store for local development and tests.
// It mirrors the MySQL schema's unique keys, foreign keys and cascades.
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"spot_rental/internal/domain"
)

type tables struct {
	users        map[int64]domain.User
	spots        map[int64]domain.Spot
	spotImages   map[int64]domain.SpotImage
	reviews      map[int64]domain.Review
	reviewImages map[int64]domain.ReviewImage
	seq          int64
}

func (t *tables) clone() *tables {
	return &tables{
		users:        maps.Clone(t.users),
		spots:        maps.Clone(t.spots),
		spotImages:   maps.Clone(t.spotImages),
		reviews:      maps.Clone(t.reviews),
		reviewImages: maps.Clone(t.reviewImages),
		seq:          t.seq,
	}
}

type Store struct {
	mu   *sync.RWMutex
	t    **tables
	inTx bool
	now  func() time.Time
}

func New() *Store {
	t := &tables{
		users:        map[int64]domain.User{},
		spots:        map[int64]domain.Spot{},
		spotImages:   map[int64]domain.SpotImage{},
		reviews:      map[int64]domain.Review{},
		reviewImages: map[int64]domain.ReviewImage{},
	}
	return &Store{mu: &sync.RWMutex{}, t: &t, now: func() time.Time { return time.Now().UTC() }}
}

// read and write take the store lock unless the call runs inside WithinTx,
// which already holds the write lock.
func (s *Store) read() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) write() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) db() *tables { return *s.t }

func (s *Store) nextID() int64 {
	s.db().seq++
	return s.db().seq
}

// WithinTx serializes fn against every other store call and restores the
// previous state when fn fails or ctx is done before it returns.
func (s *Store) WithinTx(ctx context.Context, fn func(domain.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.db().clone()
	tx := &Store{mu: s.mu, t: s.t, inTx: true, now: s.now}
	err := fn(tx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		*s.t = snapshot
		return err
	}
	return nil
}

func sortedByID[T any](m map[int64]T, keep func(T) bool) []int64 {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// ---- users ----

func (s *Store) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	defer s.write()()
	for _, existing := range s.db().users {
		if strings.EqualFold(existing.Email, u.Email) || strings.EqualFold(existing.Username, u.Username) {
			return domain.User{}, domain.ErrDuplicate
		}
	}
	u.ID = s.nextID()
	u.CreatedAt, u.UpdatedAt = s.now(), s.now()
	s.db().users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (domain.User, error) {
	defer s.read()()
	u, ok := s.db().users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByCredential(ctx context.Context, credential string) (domain.User, error) {
	defer s.read()()
	for _, u := range s.db().users {
		if strings.EqualFold(u.Email, credential) || strings.EqualFold(u.Username, credential) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *Store) ListUserRefs(ctx context.Context, ids []int64) (map[int64]domain.UserRef, error) {
	defer s.read()()
	out := make(map[int64]domain.UserRef, len(ids))
	for _, id := range ids {
		if u, ok := s.db().users[id]; ok {
			out[id] = u.Ref()
		}
	}
	return out, nil
}

// ---- spots ----

func (s *Store) ListSpots(ctx context.Context) ([]domain.Spot, error) {
	defer s.read()()
	return s.spotsWhere(nil), nil
}

func (s *Store) ListSpotsByOwner(ctx context.Context, ownerID int64) ([]domain.Spot, error) {
	defer s.read()()
	return s.spotsWhere(func(sp domain.Spot) bool { return sp.OwnerID == ownerID }), nil
}

func (s *Store) spotsWhere(keep func(domain.Spot) bool) []domain.Spot {
	ids := sortedByID(s.db().spots, keep)
	out := make([]domain.Spot, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.db().spots[id])
	}
	return out
}

func (s *Store) GetSpot(ctx context.Context, id int64) (domain.Spot, error) {
	defer s.read()()
	sp, ok := s.db().spots[id]
	if !ok {
		return domain.Spot{}, domain.ErrNotFound
	}
	return sp, nil
}

func (s *Store) LockSpot(ctx context.Context, id int64) (domain.Spot, error) {
	return s.GetSpot(ctx, id)
}

func (s *Store) CreateSpot(ctx context.Context, sp domain.Spot) (domain.Spot, error) {
	defer s.write()()
	if _, ok := s.db().users[sp.OwnerID]; !ok {
		return domain.Spot{}, domain.ErrReferenceMissing
	}
	sp.ID = s.nextID()
	sp.CreatedAt, sp.UpdatedAt = s.now(), s.now()
	s.db().spots[sp.ID] = sp
	return sp, nil
}

func (s *Store) UpdateSpot(ctx context.Context, sp domain.Spot) (domain.Spot, error) {
	defer s.write()()
	cur, ok := s.db().spots[sp.ID]
	if !ok {
		return domain.Spot{}, domain.ErrNotFound
	}
	sp.OwnerID, sp.CreatedAt = cur.OwnerID, cur.CreatedAt
	sp.UpdatedAt = s.now()
	s.db().spots[sp.ID] = sp
	return sp, nil
}

func (s *Store) DeleteSpot(ctx context.Context, id int64) error {
	defer s.write()()
	if _, ok := s.db().spots[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.db().spots, id)
	maps.DeleteFunc(s.db().spotImages, func(_ int64, img domain.SpotImage) bool { return img.SpotID == id })
	for rid, r := range s.db().reviews {
		if r.SpotID == id {
			s.deleteReviewLocked(rid)
		}
	}
	return nil
}

func (s *Store) AddSpotImage(ctx context.Context, img domain.SpotImage) (domain.SpotImage, error) {
	defer s.write()()
	if _, ok := s.db().spots[img.SpotID]; !ok {
		return domain.SpotImage{}, domain.ErrReferenceMissing
	}
	img.ID = s.nextID()
	s.db().spotImages[img.ID] = img
	return img, nil
}

func (s *Store) ListSpotImages(ctx context.Context, spotID int64) ([]domain.SpotImage, error) {
	defer s.read()()
	ids := sortedByID(s.db().spotImages, func(img domain.SpotImage) bool { return img.SpotID == spotID })
	out := make([]domain.SpotImage, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.db().spotImages[id])
	}
	return out, nil
}

func (s *Store) RatingStats(ctx context.Context, spotIDs []int64) (map[int64]domain.RatingStat, error) {
	defer s.read()()
	out := make(map[int64]domain.RatingStat, len(spotIDs))
	for _, r := range s.db().reviews {
		if !slices.Contains(spotIDs, r.SpotID) {
			continue
		}
		st := out[r.SpotID]
		st.Count++
		st.Sum += r.Stars
		out[r.SpotID] = st
	}
	return out, nil
}

func (s *Store) PreviewImages(ctx context.Context, spotIDs []int64) (map[int64]domain.SpotImage, error) {
	defer s.read()()
	bySpot := make(map[int64][]domain.SpotImage, len(spotIDs))
	for _, img := range s.db().spotImages {
		if slices.Contains(spotIDs, img.SpotID) {
			bySpot[img.SpotID] = append(bySpot[img.SpotID], img)
		}
	}
	out := make(map[int64]domain.SpotImage, len(bySpot))
	for spotID, imgs := range bySpot {
		if img, ok := domain.SelectPreview(imgs); ok {
			out[spotID] = img
		}
	}
	return out, nil
}

// ---- reviews ----

func (s *Store) ListReviewsBySpot(ctx context.Context, spotID int64) ([]domain.Review, error) {
	defer s.read()()
	ids := sortedByID(s.db().reviews, func(r domain.Review) bool { return r.SpotID == spotID })
	out := make([]domain.Review, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.db().reviews[id])
	}
	return out, nil
}

func (s *Store) HasReview(ctx context.Context, spotID, userID int64) (bool, error) {
	defer s.read()()
	for _, r := range s.db().reviews {
		if r.SpotID == spotID && r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetReview(ctx context.Context, id int64) (domain.Review, error) {
	defer s.read()()
	r, ok := s.db().reviews[id]
	if !ok {
		return domain.Review{}, domain.ErrNotFound
	}
	return r, nil
}

func (s *Store) LockReview(ctx context.Context, id int64) (domain.Review, error) {
	return s.GetReview(ctx, id)
}

func (s *Store) CreateReview(ctx context.Context, r domain.Review) (domain.Review, error) {
	defer s.write()()
	if _, ok := s.db().spots[r.SpotID]; !ok {
		return domain.Review{}, domain.ErrReferenceMissing
	}
	if _, ok := s.db().users[r.UserID]; !ok {
		return domain.Review{}, domain.ErrReferenceMissing
	}
	for _, existing := range s.db().reviews {
		if existing.SpotID == r.SpotID && existing.UserID == r.UserID {
			return domain.Review{}, domain.ErrDuplicate
		}
	}
	r.ID = s.nextID()
	r.CreatedAt, r.UpdatedAt = s.now(), s.now()
	s.db().reviews[r.ID] = r
	return r, nil
}

func (s *Store) DeleteReview(ctx context.Context, id int64) error {
	defer s.write()()
	if _, ok := s.db().reviews[id]; !ok {
		return domain.ErrNotFound
	}
	s.deleteReviewLocked(id)
	return nil
}

func (s *Store) deleteReviewLocked(id int64) {
	delete(s.db().reviews, id)
	maps.DeleteFunc(s.db().reviewImages, func(_ int64, img domain.ReviewImage) bool { return img.ReviewID == id })
}

func (s *Store) AddReviewImage(ctx context.Context, img domain.ReviewImage) (domain.ReviewImage, error) {
	defer s.write()()
	if _, ok := s.db().reviews[img.ReviewID]; !ok {
		return domain.ReviewImage{}, domain.ErrReferenceMissing
	}
	img.ID = s.nextID()
	s.db().reviewImages[img.ID] = img
	return img, nil
}

func (s *Store) CountReviewImages(ctx context.Context, reviewID int64) (int, error) {
	defer s.read()()
	n := 0
	for _, img := range s.db().reviewImages {
		if img.ReviewID == reviewID {
			n++
		}
	}
	return n, nil
}

func (s *Store) ReviewImagesByReview(ctx context.Context, reviewIDs []int64) (map[int64][]domain.ReviewImage, error) {
	defer s.read()()
	out := make(map[int64][]domain.ReviewImage, len(reviewIDs))
	for _, id := range sortedByID(s.db().reviewImages, func(img domain.ReviewImage) bool {
		return slices.Contains(reviewIDs, img.ReviewID)
	}) {
		img := s.db().reviewImages[id]
		out[img.ReviewID] = append(out[img.ReviewID], img)
	}
	return out, nil
}

var _ domain.Store = (*Store)(nil)
