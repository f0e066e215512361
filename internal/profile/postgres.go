package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const profileColumns = `id, username, website, avatar_url, role, employer_id,
	restaurant_name, phone, address, is_active, created_at, updated_at`

func (s *PGStore) ListByIdentity(ctx context.Context, identityID string) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+profileColumns+` from profiles where id=$1 order by created_at asc`,
		identityID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

func (s *PGStore) Get(ctx context.Context, id string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+profileColumns+` from profiles where id=$1`, id,
	)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PGStore) Upsert(ctx context.Context, p *Profile) error {
	_, err := s.db.ExecContext(ctx, `
		insert into profiles(id, username, website, avatar_url, role, employer_id,
			restaurant_name, phone, address, is_active, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		on conflict (id) do update set
			username = excluded.username,
			website = excluded.website,
			avatar_url = excluded.avatar_url,
			role = excluded.role,
			employer_id = excluded.employer_id,
			restaurant_name = excluded.restaurant_name,
			phone = excluded.phone,
			address = excluded.address,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`,
		p.ID, p.Username, p.Website, p.AvatarURL, p.Role.String(), nullable(p.EmployerID),
		p.RestaurantName, p.Phone, p.Address, p.IsActive, p.UpdatedAt,
	)
	return err
}

func (s *PGStore) Update(ctx context.Context, id string, upd Update) (*Profile, error) {
	set := "updated_at = now()"
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		set += fmt.Sprintf(", %s = $%d", col, len(args))
	}
	if upd.Username != nil {
		add("username", *upd.Username)
	}
	if upd.Website != nil {
		add("website", *upd.Website)
	}
	if upd.AvatarURL != nil {
		add("avatar_url", *upd.AvatarURL)
	}
	if upd.RestaurantName != nil {
		add("restaurant_name", *upd.RestaurantName)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.Address != nil {
		add("address", *upd.Address)
	}
	if upd.IsActive != nil {
		add("is_active", *upd.IsActive)
	}

	row := s.db.QueryRowContext(ctx,
		`update profiles set `+set+` where id=$1 returning `+profileColumns, args...,
	)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from profiles where id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) ListByRole(ctx context.Context, role Role) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+profileColumns+` from profiles where role=$1 order by created_at desc`,
		role.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

func (s *PGStore) ListEmployees(ctx context.Context, employerID string) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+profileColumns+` from profiles
		 where employer_id=$1 and role=$2 order by created_at desc`,
		employerID, RoleEmployee.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var (
		p          Profile
		roleName   string
		employerID sql.NullString
	)
	if err := row.Scan(
		&p.ID, &p.Username, &p.Website, &p.AvatarURL, &roleName, &employerID,
		&p.RestaurantName, &p.Phone, &p.Address, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	role, err := ParseRole(roleName)
	if err != nil {
		return nil, err
	}
	p.Role = role
	p.EmployerID = employerID.String
	return &p, nil
}

func scanProfiles(rows *sql.Rows) ([]Profile, error) {
	var res []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *p)
	}
	return res, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
