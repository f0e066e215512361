package invite

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const invitationColumns = `id, employer_id, email, token, expires_at, used, created_at`

func (s *PGStore) Create(ctx context.Context, inv *Invitation) error {
	_, err := s.db.ExecContext(ctx, `
		insert into employee_invitations(id, employer_id, email, token, expires_at, used)
		values ($1,$2,$3,$4,$5,false)`,
		inv.ID, inv.EmployerID, inv.Email, inv.Token, inv.ExpiresAt,
	)
	return err
}

func (s *PGStore) FindConsumable(ctx context.Context, token string, now time.Time) (*Invitation, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+invitationColumns+` from employee_invitations
		 where token=$1 and used=false and expires_at > $2`,
		token, now,
	)
	var inv Invitation
	err := row.Scan(&inv.ID, &inv.EmployerID, &inv.Email, &inv.Token,
		&inv.ExpiresAt, &inv.Used, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFoundOrExpired
		}
		return nil, err
	}
	return &inv, nil
}

// MarkUsed is the only mutation with a real race: two concurrent redeems of
// one token. The conditional update decides the winner inside the database;
// there is no read-then-write window. The expiry condition keeps a token
// that expired between validate and redeem from being consumed.
func (s *PGStore) MarkUsed(ctx context.Context, token string, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update employee_invitations set used=true
		where token=$1 and used=false and expires_at > $2`,
		token, now,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyUsed
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id, employerID string) error {
	_, err := s.db.ExecContext(ctx,
		`delete from employee_invitations where id=$1 and employer_id=$2`,
		id, employerID,
	)
	return err
}

func (s *PGStore) ListPending(ctx context.Context, employerID string, now time.Time) ([]Invitation, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+invitationColumns+` from employee_invitations
		 where employer_id=$1 and used=false and expires_at > $2
		 order by created_at desc`,
		employerID, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Invitation
	for rows.Next() {
		var inv Invitation
		if err := rows.Scan(&inv.ID, &inv.EmployerID, &inv.Email, &inv.Token,
			&inv.ExpiresAt, &inv.Used, &inv.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, inv)
	}
	return res, rows.Err()
}
