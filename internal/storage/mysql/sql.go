package mysql

// -----------------------------------------------------------------------------
// USERS
// -----------------------------------------------------------------------------

const userColumns = `id, first_name, last_name, email, username, hashed_password, created_at, updated_at`

const insertUserSQL = `
INSERT INTO users (first_name, last_name, email, username, hashed_password)
VALUES (?, ?, ?, ?, ?)
`

const getUserSQL = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

const getUserByCredentialSQL = `SELECT ` + userColumns + ` FROM users WHERE email = ? OR username = ? LIMIT 1`

// listUserRefsPrefix is completed with an IN (...) list by inClause.
const listUserRefsPrefix = `SELECT id, first_name, last_name FROM users WHERE id IN `

// -----------------------------------------------------------------------------
// SPOTS
// -----------------------------------------------------------------------------

const spotColumns = `id, owner_id, address, city, state, country, lat, lng, name, description, price, created_at, updated_at`

const listSpotsSQL = `SELECT ` + spotColumns + ` FROM spots ORDER BY id`

const listSpotsByOwnerSQL = `SELECT ` + spotColumns + ` FROM spots WHERE owner_id = ? ORDER BY id`

const getSpotSQL = `SELECT ` + spotColumns + ` FROM spots WHERE id = ?`

const lockSpotSQL = getSpotSQL + ` FOR UPDATE`

const insertSpotSQL = `
INSERT INTO spots (owner_id, address, city, state, country, lat, lng, name, description, price)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateSpotSQL = `
UPDATE spots SET
  address     = ?,
  city        = ?,
  state       = ?,
  country     = ?,
  lat         = ?,
  lng         = ?,
  name        = ?,
  description = ?,
  price       = ?
WHERE id = ?
`

// Child rows go with the spot through ON DELETE CASCADE.
const deleteSpotSQL = `DELETE FROM spots WHERE id = ?`

const insertSpotImageSQL = `INSERT INTO spot_images (spot_id, url, preview) VALUES (?, ?, ?)`

const listSpotImagesSQL = `SELECT id, spot_id, url, preview FROM spot_images WHERE spot_id = ? ORDER BY id`

// ratingStatsPrefix is completed with an IN (...) list and ratingStatsSuffix.
const ratingStatsPrefix = `SELECT spot_id, COUNT(*), COALESCE(SUM(stars), 0) FROM reviews WHERE spot_id IN `
const ratingStatsSuffix = ` GROUP BY spot_id`

// One row per spot: flagged previews first, then the oldest image.
// Keep in step with domain.SelectPreview.
const previewImagesPrefix = `
SELECT id, spot_id, url, preview FROM (
  SELECT id, spot_id, url, preview,
         ROW_NUMBER() OVER (PARTITION BY spot_id ORDER BY preview DESC, id ASC) AS rn
  FROM spot_images
  WHERE spot_id IN `
const previewImagesSuffix = `
) ranked
WHERE rn = 1
`

// -----------------------------------------------------------------------------
// REVIEWS
// -----------------------------------------------------------------------------

// Note: `text` is reserved; keep it quoted everywhere.
const reviewColumns = "id, spot_id, user_id, `text`, stars, created_at, updated_at"

const listReviewsBySpotSQL = `SELECT ` + reviewColumns + ` FROM reviews WHERE spot_id = ? ORDER BY id`

const hasReviewSQL = `SELECT EXISTS (SELECT 1 FROM reviews WHERE spot_id = ? AND user_id = ?)`

const getReviewSQL = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`

const lockReviewSQL = getReviewSQL + ` FOR UPDATE`

const insertReviewSQL = "INSERT INTO reviews (spot_id, user_id, `text`, stars) VALUES (?, ?, ?, ?)"

const deleteReviewSQL = `DELETE FROM reviews WHERE id = ?`

const insertReviewImageSQL = `INSERT INTO review_images (review_id, url) VALUES (?, ?)`

const countReviewImagesSQL = `SELECT COUNT(*) FROM review_images WHERE review_id = ?`

const reviewImagesPrefix = `SELECT id, review_id, url FROM review_images WHERE review_id IN `
const reviewImagesSuffix = ` ORDER BY id`
