package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"

	"spot_rental/internal/adapters/observability"
	"spot_rental/internal/domain"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repo implements domain.Store on MySQL. A Repo returned to a WithinTx
// callback has db == nil and runs every query on the transaction.
type Repo struct {
	db *sql.DB
	q  dbtx
}

func New(db *sql.DB) *Repo { return &Repo{db: db, q: db} }

func (r *Repo) WithinTx(ctx context.Context, fn func(domain.Store) error) (err error) {
	if r.db == nil {
		return fn(r)
	}
	start := time.Now()
	defer func() { observability.ObserveDB("tx", start, err) }()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&Repo{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// done records the query metric against the driver error and returns the
// error translated into domain terms.
func done(op string, start time.Time, err error) error {
	observability.ObserveDB(op, start, err)
	return mapErr(err)
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1062: // ER_DUP_ENTRY
			return fmt.Errorf("%w: %s", domain.ErrDuplicate, me.Message)
		case 1452: // ER_NO_REFERENCED_ROW_2
			return fmt.Errorf("%w: %s", domain.ErrReferenceMissing, me.Message)
		case 1264, 1406, 3819: // out of range, data too long, check constraint
			return domain.InvalidData(me.Message)
		}
	}
	return err
}

// inClause renders "(?,?,...)" and its args for a non-empty id list.
func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")", args
}

type scanner interface{ Scan(dest ...any) error }

// ---- users ----

func scanUser(s scanner) (domain.User, error) {
	var u domain.User
	err := s.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Username, &u.HashedPassword, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *Repo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	start := time.Now()
	res, err := r.q.ExecContext(ctx, insertUserSQL, u.FirstName, u.LastName, u.Email, u.Username, u.HashedPassword)
	if err != nil {
		return domain.User{}, done("create_user", start, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.User{}, done("create_user", start, err)
	}
	observability.ObserveDB("create_user", start, nil)
	return r.GetUser(ctx, id)
}

func (r *Repo) GetUser(ctx context.Context, id int64) (domain.User, error) {
	start := time.Now()
	u, err := scanUser(r.q.QueryRowContext(ctx, getUserSQL, id))
	return u, done("get_user", start, err)
}

func (r *Repo) GetUserByCredential(ctx context.Context, credential string) (domain.User, error) {
	start := time.Now()
	u, err := scanUser(r.q.QueryRowContext(ctx, getUserByCredentialSQL, credential, credential))
	return u, done("get_user_by_credential", start, err)
}

func (r *Repo) ListUserRefs(ctx context.Context, ids []int64) (map[int64]domain.UserRef, error) {
	out := make(map[int64]domain.UserRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	start := time.Now()
	in, args := inClause(ids)
	rows, err := r.q.QueryContext(ctx, listUserRefsPrefix+in, args...)
	if err != nil {
		return nil, done("list_user_refs", start, err)
	}
	defer rows.Close()
	for rows.Next() {
		var ref domain.UserRef
		if err := rows.Scan(&ref.ID, &ref.FirstName, &ref.LastName); err != nil {
			return nil, done("list_user_refs", start, err)
		}
		out[ref.ID] = ref
	}
	return out, done("list_user_refs", start, rows.Err())
}

// ---- spots ----

func scanSpot(s scanner) (domain.Spot, error) {
	var sp domain.Spot
	err := s.Scan(&sp.ID, &sp.OwnerID, &sp.Address, &sp.City, &sp.State, &sp.Country,
		&sp.Lat, &sp.Lng, &sp.Name, &sp.Description, &sp.Price, &sp.CreatedAt, &sp.UpdatedAt)
	return sp, err
}

func (r *Repo) querySpots(ctx context.Context, op, query string, args ...any) ([]domain.Spot, error) {
	start := time.Now()
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, done(op, start, err)
	}
	defer rows.Close()
	out := []domain.Spot{}
	for rows.Next() {
		sp, err := scanSpot(rows)
		if err != nil {
			return nil, done(op, start, err)
		}
		out = append(out, sp)
	}
	return out, done(op, start, rows.Err())
}

func (r *Repo) ListSpots(ctx context.Context) ([]domain.Spot, error) {
	return r.querySpots(ctx, "list_spots", listSpotsSQL)
}

func (r *Repo) ListSpotsByOwner(ctx context.Context, ownerID int64) ([]domain.Spot, error) {
	return r.querySpots(ctx, "list_spots_by_owner", listSpotsByOwnerSQL, ownerID)
}

func (r *Repo) GetSpot(ctx context.Context, id int64) (domain.Spot, error) {
	start := time.Now()
	sp, err := scanSpot(r.q.QueryRowContext(ctx, getSpotSQL, id))
	return sp, done("get_spot", start, err)
}

func (r *Repo) LockSpot(ctx context.Context, id int64) (domain.Spot, error) {
	start := time.Now()
	sp, err := scanSpot(r.q.QueryRowContext(ctx, lockSpotSQL, id))
	return sp, done("lock_spot", start, err)
}

func (r *Repo) CreateSpot(ctx context.Context, s domain.Spot) (domain.Spot, error) {
	start := time.Now()
	res, err := r.q.ExecContext(ctx, insertSpotSQL,
		s.OwnerID, s.Address, s.City, s.State, s.Country, s.Lat, s.Lng, s.Name, s.Description, s.Price)
	if err != nil {
		return domain.Spot{}, done("create_spot", start, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Spot{}, done("create_spot", start, err)
	}
	observability.ObserveDB("create_spot", start, nil)
	return r.GetSpot(ctx, id)
}

// UpdateSpot rewrites the editable columns. MySQL reports zero affected rows
// for an unchanged row, so existence is checked by reading the row back.
func (r *Repo) UpdateSpot(ctx context.Context, s domain.Spot) (domain.Spot, error) {
	start := time.Now()
	_, err := r.q.ExecContext(ctx, updateSpotSQL,
		s.Address, s.City, s.State, s.Country, s.Lat, s.Lng, s.Name, s.Description, s.Price, s.ID)
	if err := done("update_spot", start, err); err != nil {
		return domain.Spot{}, err
	}
	return r.GetSpot(ctx, s.ID)
}

func (r *Repo) DeleteSpot(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "delete_spot", deleteSpotSQL, id)
}

func (r *Repo) deleteByID(ctx context.Context, op, query string, id int64) error {
	start := time.Now()
	res, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return done(op, start, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return done(op, start, err)
	}
	observability.ObserveDB(op, start, nil)
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) AddSpotImage(ctx context.Context, img domain.SpotImage) (domain.SpotImage, error) {
	start := time.Now()
	res, err := r.q.ExecContext(ctx, insertSpotImageSQL, img.SpotID, img.URL, img.Preview)
	if err != nil {
		return domain.SpotImage{}, done("add_spot_image", start, err)
	}
	img.ID, err = res.LastInsertId()
	return img, done("add_spot_image", start, err)
}

func (r *Repo) ListSpotImages(ctx context.Context, spotID int64) ([]domain.SpotImage, error) {
	start := time.Now()
	rows, err := r.q.QueryContext(ctx, listSpotImagesSQL, spotID)
	if err != nil {
		return nil, done("list_spot_images", start, err)
	}
	defer rows.Close()
	out := []domain.SpotImage{}
	for rows.Next() {
		var img domain.SpotImage
		if err := rows.Scan(&img.ID, &img.SpotID, &img.URL, &img.Preview); err != nil {
			return nil, done("list_spot_images", start, err)
		}
		out = append(out, img)
	}
	return out, done("list_spot_images", start, rows.Err())
}

func (r *Repo) RatingStats(ctx context.Context, spotIDs []int64) (map[int64]domain.RatingStat, error) {
	out := make(map[int64]domain.RatingStat, len(spotIDs))
	if len(spotIDs) == 0 {
		return out, nil
	}
	start := time.Now()
	in, args := inClause(spotIDs)
	rows, err := r.q.QueryContext(ctx, ratingStatsPrefix+in+ratingStatsSuffix, args...)
	if err != nil {
		return nil, done("rating_stats", start, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id int64
			st domain.RatingStat
		)
		if err := rows.Scan(&id, &st.Count, &st.Sum); err != nil {
			return nil, done("rating_stats", start, err)
		}
		out[id] = st
	}
	return out, done("rating_stats", start, rows.Err())
}

func (r *Repo) PreviewImages(ctx context.Context, spotIDs []int64) (map[int64]domain.SpotImage, error) {
	out := make(map[int64]domain.SpotImage, len(spotIDs))
	if len(spotIDs) == 0 {
		return out, nil
	}
	start := time.Now()
	in, args := inClause(spotIDs)
	rows, err := r.q.QueryContext(ctx, previewImagesPrefix+in+previewImagesSuffix, args...)
	if err != nil {
		return nil, done("preview_images", start, err)
	}
	defer rows.Close()
	for rows.Next() {
		var img domain.SpotImage
		if err := rows.Scan(&img.ID, &img.SpotID, &img.URL, &img.Preview); err != nil {
			return nil, done("preview_images", start, err)
		}
		out[img.SpotID] = img
	}
	return out, done("preview_images", start, rows.Err())
}

// ---- reviews ----

func scanReview(s scanner) (domain.Review, error) {
	var rv domain.Review
	err := s.Scan(&rv.ID, &rv.SpotID, &rv.UserID, &rv.Text, &rv.Stars, &rv.CreatedAt, &rv.UpdatedAt)
	return rv, err
}

func (r *Repo) ListReviewsBySpot(ctx context.Context, spotID int64) ([]domain.Review, error) {
	start := time.Now()
	rows, err := r.q.QueryContext(ctx, listReviewsBySpotSQL, spotID)
	if err != nil {
		return nil, done("list_reviews", start, err)
	}
	defer rows.Close()
	out := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, done("list_reviews", start, err)
		}
		out = append(out, rv)
	}
	return out, done("list_reviews", start, rows.Err())
}

func (r *Repo) HasReview(ctx context.Context, spotID, userID int64) (bool, error) {
	start := time.Now()
	var exists bool
	err := r.q.QueryRowContext(ctx, hasReviewSQL, spotID, userID).Scan(&exists)
	return exists, done("has_review", start, err)
}

func (r *Repo) GetReview(ctx context.Context, id int64) (domain.Review, error) {
	start := time.Now()
	rv, err := scanReview(r.q.QueryRowContext(ctx, getReviewSQL, id))
	return rv, done("get_review", start, err)
}

func (r *Repo) LockReview(ctx context.Context, id int64) (domain.Review, error) {
	start := time.Now()
	rv, err := scanReview(r.q.QueryRowContext(ctx, lockReviewSQL, id))
	return rv, done("lock_review", start, err)
}

func (r *Repo) CreateReview(ctx context.Context, rv domain.Review) (domain.Review, error) {
	start := time.Now()
	res, err := r.q.ExecContext(ctx, insertReviewSQL, rv.SpotID, rv.UserID, rv.Text, rv.Stars)
	if err != nil {
		return domain.Review{}, done("create_review", start, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Review{}, done("create_review", start, err)
	}
	observability.ObserveDB("create_review", start, nil)
	return r.GetReview(ctx, id)
}

func (r *Repo) DeleteReview(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "delete_review", deleteReviewSQL, id)
}

func (r *Repo) AddReviewImage(ctx context.Context, img domain.ReviewImage) (domain.ReviewImage, error) {
	start := time.Now()
	res, err := r.q.ExecContext(ctx, insertReviewImageSQL, img.ReviewID, img.URL)
	if err != nil {
		return domain.ReviewImage{}, done("add_review_image", start, err)
	}
	img.ID, err = res.LastInsertId()
	return img, done("add_review_image", start, err)
}

func (r *Repo) CountReviewImages(ctx context.Context, reviewID int64) (int, error) {
	start := time.Now()
	var n int
	err := r.q.QueryRowContext(ctx, countReviewImagesSQL, reviewID).Scan(&n)
	return n, done("count_review_images", start, err)
}

func (r *Repo) ReviewImagesByReview(ctx context.Context, reviewIDs []int64) (map[int64][]domain.ReviewImage, error) {
	out := make(map[int64][]domain.ReviewImage, len(reviewIDs))
	if len(reviewIDs) == 0 {
		return out, nil
	}
	start := time.Now()
	in, args := inClause(reviewIDs)
	rows, err := r.q.QueryContext(ctx, reviewImagesPrefix+in+reviewImagesSuffix, args...)
	if err != nil {
		return nil, done("review_images", start, err)
	}
	defer rows.Close()
	for rows.Next() {
		var img domain.ReviewImage
		if err := rows.Scan(&img.ID, &img.ReviewID, &img.URL); err != nil {
			return nil, done("review_images", start, err)
		}
		out[img.ReviewID] = append(out[img.ReviewID], img)
	}
	return out, done("review_images", start, rows.Err())
}

var _ domain.Store = (*Repo)(nil)
