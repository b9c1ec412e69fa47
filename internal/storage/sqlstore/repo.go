package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotel_catalog/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func ptrNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Repo implements both domain.HotelRepository and domain.PictureRepository.
type Repo struct {
	db    *sql.DB
	lower string
}

func New(db *sql.DB) *Repo { return &Repo{db: db, lower: lowerFunc(db)} }

// ---- hotels ----

func (r *Repo) CreateHotel(ctx context.Context, h *domain.Hotel) error {
	res, err := r.db.ExecContext(ctx, insertHotelSQL,
		h.Name,
		h.Address1,
		valStr(h.Address2),
		h.ZipCode,
		h.City,
		h.Country,
		h.Longitude,
		h.Latitude,
		valStr(h.Description),
		h.MaxCapacity,
		h.PricePerNight,
		h.CreatedAt,
		h.UpdatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = id
	return nil
}

func (r *Repo) UpdateHotel(ctx context.Context, h *domain.Hotel) error {
	_, err := r.db.ExecContext(ctx, updateHotelSQL,
		h.Name,
		h.Address1,
		valStr(h.Address2),
		h.ZipCode,
		h.City,
		h.Country,
		h.Longitude,
		h.Latitude,
		valStr(h.Description),
		h.MaxCapacity,
		h.PricePerNight,
		h.UpdatedAt,
		h.ID,
	)
	return err
}

func (r *Repo) DeleteHotel(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteHotelSQL, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, err
}

func (r *Repo) ListHotels(ctx context.Context, q domain.HotelsQuery) ([]domain.Hotel, int, error) {
	var where []string
	var args []any
	if q.Name != nil {
		where = append(where, likeLower(r.lower, "name"))
		args = append(args, containsPattern(*q.Name))
	}
	if q.City != nil {
		where = append(where, likeLower(r.lower, "city"))
		args = append(args, containsPattern(*q.City))
	}
	if q.Country != nil {
		where = append(where, likeLower(r.lower, "country"))
		args = append(args, containsPattern(*q.Country))
	}
	if q.MinPrice != nil {
		where = append(where, "price_per_night >= ?")
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		where = append(where, "price_per_night <= ?")
		args = append(args, *q.MaxPrice)
	}
	if q.MinCapacity != nil {
		where = append(where, "max_capacity >= ?")
		args = append(args, *q.MinCapacity)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}
	return r.page(ctx, cond, orderBy(q.SortBy, q.SortDesc), args, q.Page, q.PerPage)
}

func (r *Repo) SearchHotels(ctx context.Context, term string, page, perPage int) ([]domain.Hotel, int, error) {
	p := containsPattern(term)
	return r.page(ctx, " WHERE "+searchWhere(r.lower), " ORDER BY id ASC", []any{p, p, p, p}, page, perPage)
}

func (r *Repo) page(ctx context.Context, cond, order string, args []any, page, perPage int) ([]domain.Hotel, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hotels"+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count hotels: %w", err)
	}
	// pages past the end are empty; checking before computing the offset
	// also keeps huge page numbers from overflowing it
	if total == 0 || page > (total+perPage-1)/perPage {
		return []domain.Hotel{}, total, nil
	}

	q := "SELECT " + hotelColumns + " FROM hotels" + cond + order + " LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(args, perPage, (page-1)*perPage)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list hotels: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Hotel, 0, perPage)
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// orderBy only ever interpolates names from the allow-list.
func orderBy(field string, desc bool) string {
	if !domain.HotelSortFields[field] {
		return " ORDER BY id ASC"
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", field, dir, dir)
}

func containsPattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

type scanner interface{ Scan(dest ...any) error }

func scanHotel(s scanner) (domain.Hotel, error) {
	var h domain.Hotel
	var addr2, desc sql.NullString
	if err := s.Scan(
		&h.ID,
		&h.Name,
		&h.Address1,
		&addr2,
		&h.ZipCode,
		&h.City,
		&h.Country,
		&h.Longitude,
		&h.Latitude,
		&desc,
		&h.MaxCapacity,
		&h.PricePerNight,
		&h.CreatedAt,
		&h.UpdatedAt,
	); err != nil {
		return domain.Hotel{}, err
	}
	h.Address2 = ptrNull(addr2)
	h.Description = ptrNull(desc)
	h.FullAddress = h.ComposeFullAddress()
	h.Pictures = []domain.Picture{}
	return h, nil
}

// ---- pictures ----

func (r *Repo) CreatePicture(ctx context.Context, p *domain.Picture) error {
	res, err := r.db.ExecContext(ctx, insertPictureSQL,
		p.HotelID,
		p.Filepath,
		p.Filesize,
		p.Position,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (r *Repo) UpdatePicturePosition(ctx context.Context, id int64, position int, at time.Time) error {
	_, err := r.db.ExecContext(ctx, updatePicturePositionSQL, position, at, id)
	return err
}

func (r *Repo) DeletePicture(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, deletePictureSQL, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) DeletePicturesByHotel(ctx context.Context, hotelID int64) error {
	_, err := r.db.ExecContext(ctx, deletePicturesByHotelSQL, hotelID)
	return err
}

func (r *Repo) GetPicture(ctx context.Context, id int64) (domain.Picture, error) {
	p, err := scanPicture(r.db.QueryRowContext(ctx, getPictureSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Picture{}, domain.ErrNotFound
	}
	return p, err
}

func (r *Repo) ListPictures(ctx context.Context, hotelIDs ...int64) (map[int64][]domain.Picture, error) {
	out := make(map[int64][]domain.Picture, len(hotelIDs))
	if len(hotelIDs) == 0 {
		return out, nil
	}
	marks := make([]string, len(hotelIDs))
	args := make([]any, len(hotelIDs))
	for i, id := range hotelIDs {
		marks[i] = "?"
		args[i] = id
	}
	q := "SELECT " + pictureColumns + " FROM hotel_pictures WHERE hotel_id IN (" +
		strings.Join(marks, ",") + ") ORDER BY hotel_id, position ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list pictures: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanPicture(rows)
		if err != nil {
			return nil, err
		}
		out[p.HotelID] = append(out[p.HotelID], p)
	}
	return out, rows.Err()
}

func (r *Repo) MaxPosition(ctx context.Context, hotelID int64) (int, bool, error) {
	var max sql.NullInt64
	if err := r.db.QueryRowContext(ctx, maxPositionSQL, hotelID).Scan(&max); err != nil {
		return 0, false, err
	}
	if !max.Valid {
		return 0, false, nil
	}
	return int(max.Int64), true, nil
}

func scanPicture(s scanner) (domain.Picture, error) {
	var p domain.Picture
	err := s.Scan(&p.ID, &p.HotelID, &p.Filepath, &p.Filesize, &p.Position, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
