package mysql

const insertListingSQL = `
INSERT INTO listings
  (id, title, description, category, base_price, location, details, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// category is immutable after insert and is left out on purpose.
const updateListingSQL = `
UPDATE listings SET
  title       = ?,
  description = ?,
  base_price  = ?,
  location    = ?,
  details     = ?,
  updated_at  = ?
WHERE id = ?
`

const getListingSQL = `
SELECT id, title, description, category, base_price, location, details, created_at, updated_at
FROM listings
WHERE id = ?
`

const insertRejectionSQL = `
INSERT INTO import_rejections (source, item, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  reason  = VALUES(reason),
  seen_at = CURRENT_TIMESTAMP
`
