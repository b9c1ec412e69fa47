package sqlstore

// -----------------------------------------------------------------------------
// SCHEMA
// -----------------------------------------------------------------------------

var mysqlSchema = []string{`
CREATE TABLE IF NOT EXISTS hotels (
  id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  name            VARCHAR(255)    NOT NULL,
  address_1       VARCHAR(255)    NOT NULL,
  address_2       VARCHAR(255)    NULL,
  zip_code        VARCHAR(20)     NOT NULL,
  city            VARCHAR(255)    NOT NULL,
  country         VARCHAR(255)    NOT NULL,
  longitude       DECIMAL(10,7)   NOT NULL,
  latitude        DECIMAL(10,7)   NOT NULL,
  description     TEXT            NULL,
  max_capacity    TINYINT UNSIGNED NOT NULL DEFAULT 1,
  price_per_night DECIMAL(10,2)   NOT NULL,
  created_at      DATETIME(6)     NOT NULL,
  updated_at      DATETIME(6)     NOT NULL,
  PRIMARY KEY (id),
  KEY idx_hotels_city (city),
  KEY idx_hotels_price (price_per_night)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, `
CREATE TABLE IF NOT EXISTS hotel_pictures (
  id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  hotel_id   BIGINT UNSIGNED NOT NULL,
  filepath   VARCHAR(512)    NOT NULL,
  filesize   BIGINT UNSIGNED NOT NULL,
  position   INT UNSIGNED    NOT NULL DEFAULT 0,
  created_at DATETIME(6)     NOT NULL,
  updated_at DATETIME(6)     NOT NULL,
  PRIMARY KEY (id),
  UNIQUE KEY uq_hotel_pictures_filepath (filepath),
  KEY idx_hotel_pictures_order (hotel_id, position, id),
  CONSTRAINT fk_hotel_pictures_hotel FOREIGN KEY (hotel_id) REFERENCES hotels (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{`
CREATE TABLE IF NOT EXISTS hotels (
  id              INTEGER PRIMARY KEY AUTOINCREMENT,
  name            TEXT     NOT NULL,
  address_1       TEXT     NOT NULL,
  address_2       TEXT     NULL,
  zip_code        TEXT     NOT NULL,
  city            TEXT     NOT NULL,
  country         TEXT     NOT NULL,
  longitude       REAL     NOT NULL,
  latitude        REAL     NOT NULL,
  description     TEXT     NULL,
  max_capacity    INTEGER  NOT NULL DEFAULT 1,
  price_per_night REAL     NOT NULL,
  created_at      DATETIME NOT NULL,
  updated_at      DATETIME NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS hotel_pictures (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  hotel_id   INTEGER  NOT NULL REFERENCES hotels (id) ON DELETE CASCADE,
  filepath   TEXT     NOT NULL UNIQUE,
  filesize   INTEGER  NOT NULL,
  position   INTEGER  NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_hotel_pictures_order ON hotel_pictures (hotel_id, position, id)`,
	`CREATE INDEX IF NOT EXISTS idx_hotels_city ON hotels (city)`,
}

// -----------------------------------------------------------------------------
// HOTELS
// -----------------------------------------------------------------------------

const hotelColumns = `id, name, address_1, address_2, zip_code, city, country,
  longitude, latitude, description, max_capacity, price_per_night, created_at, updated_at`

const insertHotelSQL = `
INSERT INTO hotels
  (name, address_1, address_2, zip_code, city, country, longitude, latitude,
   description, max_capacity, price_per_night, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateHotelSQL = `
UPDATE hotels SET
  name            = ?,
  address_1       = ?,
  address_2       = ?,
  zip_code        = ?,
  city            = ?,
  country         = ?,
  longitude       = ?,
  latitude        = ?,
  description     = ?,
  max_capacity    = ?,
  price_per_night = ?,
  updated_at      = ?
WHERE id = ?
`

const getHotelSQL = `SELECT ` + hotelColumns + ` FROM hotels WHERE id = ?`

const deleteHotelSQL = `DELETE FROM hotels WHERE id = ?`

// '!' escapes LIKE wildcards in user input; it needs no quoting in either dialect.
const likeEscape = ` ESCAPE '!'`

// likeLower matches a lowercased column against a contains-pattern.
func likeLower(lower, col string) string {
	return lower + "(" + col + ") LIKE ?" + likeEscape
}

func searchWhere(lower string) string {
	return "(" + likeLower(lower, "name") +
		" OR " + likeLower(lower, "city") +
		" OR " + likeLower(lower, "country") +
		" OR " + likeLower(lower, "address_1") + ")"
}

// -----------------------------------------------------------------------------
// PICTURES
// -----------------------------------------------------------------------------

const pictureColumns = `id, hotel_id, filepath, filesize, position, created_at, updated_at`

const insertPictureSQL = `
INSERT INTO hotel_pictures
  (hotel_id, filepath, filesize, position, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?)
`

const getPictureSQL = `SELECT ` + pictureColumns + ` FROM hotel_pictures WHERE id = ?`

const updatePicturePositionSQL = `UPDATE hotel_pictures SET position = ?, updated_at = ? WHERE id = ?`

const deletePictureSQL = `DELETE FROM hotel_pictures WHERE id = ?`

const deletePicturesByHotelSQL = `DELETE FROM hotel_pictures WHERE hotel_id = ?`

const maxPositionSQL = `SELECT MAX(position) FROM hotel_pictures WHERE hotel_id = ?`
