package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"listing_intake/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func valJSON(f domain.Fields) (any, error) {
	if f == nil {
		return nil, nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Insert(ctx context.Context, l domain.Listing) error {
	loc, err := valJSON(l.Location)
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}
	details, err := valJSON(l.Details)
	if err != nil {
		return fmt.Errorf("encode details: %w", err)
	}
	if details == nil {
		details = "{}"
	}
	_, err = r.db.ExecContext(ctx, insertListingSQL,
		l.ID,
		l.Title,
		valStr(l.Description),
		string(l.Category),
		valInt(l.BasePrice),
		loc,
		details,
		l.CreatedAt,
		l.UpdatedAt,
	)
	return err
}

func (r *Repo) Update(ctx context.Context, l domain.Listing) error {
	loc, err := valJSON(l.Location)
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}
	details, err := valJSON(l.Details)
	if err != nil {
		return fmt.Errorf("encode details: %w", err)
	}
	if details == nil {
		details = "{}"
	}
	res, err := r.db.ExecContext(ctx, updateListingSQL,
		l.Title,
		valStr(l.Description),
		valInt(l.BasePrice),
		loc,
		details,
		l.UpdatedAt,
		l.ID,
	)
	if err != nil {
		return err
	}
	// MySQL reports 0 for rows matched but unchanged, so confirm existence
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.Get(ctx, l.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (domain.Listing, error) {
	row := r.db.QueryRowContext(ctx, getListingSQL, id)

	var l domain.Listing
	var category string
	var desc sql.NullString
	var price sql.NullInt64
	var locJSON, detailsJSON []byte
	if err := row.Scan(
		&l.ID,
		&l.Title,
		&desc,
		&category,
		&price,
		&locJSON,
		&detailsJSON,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Listing{}, domain.ErrNotFound
		}
		return domain.Listing{}, err
	}

	l.Category = domain.Category(category)
	if desc.Valid {
		d := desc.String
		l.Description = &d
	}
	if price.Valid {
		p := int(price.Int64)
		l.BasePrice = &p
	}
	if len(locJSON) > 0 {
		if err := json.Unmarshal(locJSON, &l.Location); err != nil {
			return domain.Listing{}, fmt.Errorf("decode location of %s: %w", id, err)
		}
	}
	if err := json.Unmarshal(detailsJSON, &l.Details); err != nil {
		return domain.Listing{}, fmt.Errorf("decode details of %s: %w", id, err)
	}
	if l.Details == nil {
		l.Details = domain.Fields{}
	}
	return l, nil
}

// LogRejection records why item of an import source was not stored.
func (r *Repo) LogRejection(ctx context.Context, source string, item int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertRejectionSQL, source, item, reason)
	return err
}
