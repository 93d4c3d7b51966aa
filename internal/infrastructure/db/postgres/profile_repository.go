package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
)

const profilesTable = "profiles"

var profileColumns = []string{
	"id::text", "email", "first_name", "last_name", "employee_id::text",
	"role", "is_super_admin", "created_at", "updated_at",
}

// ProfileRepository implements ports.ProfileRepository on the profiles table.
type ProfileRepository struct {
	db DB
}

func NewProfileRepository(db DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

var _ ports.ProfileRepository = (*ProfileRepository)(nil)

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	query, args, err := psql.Select(profileColumns...).
		From(profilesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build profile query: %w", err)
	}

	var p domain.Profile
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.EmployeeID,
		&p.Role, &p.IsSuperAdmin, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &p, nil
}

func (r *ProfileRepository) IsSuperAdmin(ctx context.Context, id string) (bool, error) {
	query, args, err := psql.Select("is_super_admin").
		From(profilesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build super-admin query: %w", err)
	}

	var flag bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&flag); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("read super-admin flag: %w", err)
	}
	return flag, nil
}

func (r *ProfileRepository) Insert(ctx context.Context, p *domain.Profile) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	query, args, err := psql.Insert(profilesTable).
		Columns("id", "email", "first_name", "last_name", "employee_id", "role", "is_super_admin", "created_at", "updated_at").
		Values(p.ID, p.Email, p.FirstName, p.LastName, p.EmployeeID, p.Role, p.IsSuperAdmin, p.CreatedAt, p.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build profile insert: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// CountManaged counts the end-users whose employee_id points at partnerID.
func (r *ProfileRepository) CountManaged(ctx context.Context, partnerID string) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From(profilesTable).
		Where(sq.Eq{"employee_id": partnerID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build managed count: %w", err)
	}

	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count managed profiles: %w", err)
	}
	return n, nil
}
