package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"citylog/internal/common"
	"citylog/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

// CitySort is one ordering term of a city listing. Column must already be
// validated against the sortable-column allow-list by the caller.
type CitySort struct {
	Column string
	Desc   bool
}

// CityListQuery shapes a city listing: equality filters, ordering and
// pagination. The zero value lists the first page with default ordering.
type CityListQuery struct {
	UserID  string // always set; listings are scoped to the owner
	Country string
	Slug    string
	Name    string
	Sort    []CitySort
	Page    int
	Limit   int
}

type CityRepository interface {
	Create(ctx context.Context, city *model.City) error
	FindByID(ctx context.Context, id string) (*model.City, error)
	List(ctx context.Context, q CityListQuery) ([]model.City, error)
	Delete(ctx context.Context, id string) error
}

type pgCityRepository struct {
	db *sql.DB
}

func NewPgCityRepository(db *sql.DB) CityRepository {
	return &pgCityRepository{db: db}
}

const cityColumns = `id, user_id, city_name, country, slug, emoji, visit_date, notes, lat, lng, created_at`

func (r *pgCityRepository) Create(ctx context.Context, city *model.City) error {
	query := `INSERT INTO cities (id, user_id, city_name, country, slug, emoji, visit_date, notes, lat, lng)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		city.ID, city.UserID, city.Name, city.Country, city.Slug, city.Emoji,
		city.Date, city.Notes, city.Lat, city.Lng,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // FK to users
			return common.NewError(common.ErrBadRequest, "Every city should belong to an existing user")
		}
		return fmt.Errorf("pgCityRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCityRepository) FindByID(ctx context.Context, id string) (*model.City, error) {
	query := `SELECT ` + cityColumns + ` FROM cities WHERE id = $1`
	city := &model.City{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&city.ID, &city.UserID, &city.Name, &city.Country, &city.Slug, &city.Emoji,
		&city.Date, &city.Notes, &city.Lat, &city.Lng, &city.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCityRepository.FindByID: %w", err)
	}
	return city, nil
}

func (r *pgCityRepository) List(ctx context.Context, q CityListQuery) ([]model.City, error) {
	var query strings.Builder
	query.WriteString(`SELECT ` + cityColumns + ` FROM cities`)

	conditions := []string{}
	args := []interface{}{}
	argID := 1

	addCondition := func(column string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, argID))
		args = append(args, value)
		argID++
	}

	addCondition("user_id", q.UserID)
	if q.Country != "" {
		addCondition("country", q.Country)
	}
	if q.Slug != "" {
		addCondition("slug", q.Slug)
	}
	if q.Name != "" {
		addCondition("city_name", q.Name)
	}

	query.WriteString(" WHERE " + strings.Join(conditions, " AND "))

	if len(q.Sort) == 0 {
		q.Sort = []CitySort{{Column: "created_at", Desc: true}}
	}
	orderTerms := make([]string, 0, len(q.Sort))
	for _, s := range q.Sort {
		direction := "ASC"
		if s.Desc {
			direction = "DESC"
		}
		orderTerms = append(orderTerms, s.Column+" "+direction)
	}
	query.WriteString(" ORDER BY " + strings.Join(orderTerms, ", "))

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("pgCityRepository.List: %w", err)
	}
	defer rows.Close()

	cities := []model.City{}
	for rows.Next() {
		city := model.City{}
		if err := rows.Scan(
			&city.ID, &city.UserID, &city.Name, &city.Country, &city.Slug, &city.Emoji,
			&city.Date, &city.Notes, &city.Lat, &city.Lng, &city.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("pgCityRepository.List: %w", err)
		}
		cities = append(cities, city)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgCityRepository.List: %w", err)
	}
	return cities, nil
}

func (r *pgCityRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgCityRepository.Delete: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgCityRepository.Delete: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}
