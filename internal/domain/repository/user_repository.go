package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"citylog/internal/common"
	"citylog/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// FindByResetTokenHash looks a user up by the stored digest of a
	// password-reset token, requiring the expiry to be in the future.
	FindByResetTokenHash(ctx context.Context, digest string, now time.Time) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, first_name, last_name, email, phone_number, role, hashed_password,
	password_changed_at, reset_token_hash, reset_token_expires, created_at, updated_at`

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, first_name, last_name, email, phone_number, role, hashed_password)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Email, user.PhoneNumber, user.Role, user.HashedPassword,
	)
	if err != nil {
		if dupErr := classifyUniqueViolation(err); dupErr != nil {
			return dupErr
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByEmail: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByResetTokenHash(ctx context.Context, digest string, now time.Time) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
	          WHERE reset_token_hash = $1 AND reset_token_expires > $2`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, digest, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByResetTokenHash: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) List(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.List: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("pgUserRepository.List: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgUserRepository.List: %w", err)
	}
	return users, nil
}

func (r *pgUserRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET
	            first_name = $1, last_name = $2, email = $3, phone_number = $4, role = $5,
	            hashed_password = $6, password_changed_at = $7,
	            reset_token_hash = $8, reset_token_expires = $9,
	            updated_at = CURRENT_TIMESTAMP
	          WHERE id = $10`
	result, err := r.db.ExecContext(ctx, query,
		user.FirstName, user.LastName, user.Email, user.PhoneNumber, user.Role,
		user.HashedPassword, nullTime(user.PasswordChangedAt),
		nullString(user.ResetTokenHash), nullTime(user.ResetTokenExpires),
		user.ID,
	)
	if err != nil {
		if dupErr := classifyUniqueViolation(err); dupErr != nil {
			return dupErr
		}
		return fmt.Errorf("pgUserRepository.Update: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgUserRepository.Update: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgUserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Delete: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgUserRepository.Delete: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*model.User, error) {
	user := &model.User{}
	var passwordChangedAt, resetTokenExpires sql.NullTime
	var resetTokenHash sql.NullString
	err := row.Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.PhoneNumber,
		&user.Role, &user.HashedPassword,
		&passwordChangedAt, &resetTokenHash, &resetTokenExpires,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.PasswordChangedAt = passwordChangedAt.Time
	user.ResetTokenHash = resetTokenHash.String
	user.ResetTokenExpires = resetTokenExpires.Time
	return user, nil
}

// classifyUniqueViolation turns pg unique-constraint failures into operational
// duplicate-value errors naming the offending field.
func classifyUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		return common.NewError(common.ErrDuplicate, "This email is already in use, try another one")
	case strings.Contains(pgErr.ConstraintName, "phone"):
		return common.NewError(common.ErrDuplicate, "This phone number is already in use, try another one")
	default:
		return common.NewError(common.ErrDuplicate, "Duplicate field value, please use another value")
	}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
