package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"citylog/internal/common"
	"citylog/internal/domain/model"
)

// In-memory repository implementations with the same contract as the
// postgres ones, including duplicate-value classification. Used by tests and
// local development without a database.

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: map[string]model.User{}}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique(user); err != nil {
		return err
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *MemoryUserRepository) FindByResetTokenHash(ctx context.Context, digest string, now time.Time) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.ResetTokenHash != "" && user.ResetTokenHash == digest && user.ResetTokenExpires.After(now) {
			return &user, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *MemoryUserRepository) List(ctx context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]model.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return common.ErrNotFound
	}
	if err := r.checkUnique(user); err != nil {
		return err
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *MemoryUserRepository) checkUnique(candidate *model.User) error {
	for _, user := range r.users {
		if user.ID == candidate.ID {
			continue
		}
		if user.Email == candidate.Email {
			return common.NewError(common.ErrDuplicate, "This email is already in use, try another one")
		}
		if user.PhoneNumber == candidate.PhoneNumber {
			return common.NewError(common.ErrDuplicate, "This phone number is already in use, try another one")
		}
	}
	return nil
}

type MemoryCityRepository struct {
	mu     sync.RWMutex
	cities map[string]model.City
}

func NewMemoryCityRepository() *MemoryCityRepository {
	return &MemoryCityRepository{cities: map[string]model.City{}}
}

func (r *MemoryCityRepository) Create(ctx context.Context, city *model.City) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	city.CreatedAt = time.Now()
	r.cities[city.ID] = *city
	return nil
}

func (r *MemoryCityRepository) FindByID(ctx context.Context, id string) (*model.City, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	city, ok := r.cities[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &city, nil
}

func (r *MemoryCityRepository) List(ctx context.Context, q CityListQuery) ([]model.City, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cities := []model.City{}
	for _, city := range r.cities {
		if city.UserID != q.UserID {
			continue
		}
		if q.Country != "" && city.Country != q.Country {
			continue
		}
		if q.Slug != "" && city.Slug != q.Slug {
			continue
		}
		if q.Name != "" && city.Name != q.Name {
			continue
		}
		cities = append(cities, city)
	}

	terms := q.Sort
	if len(terms) == 0 {
		terms = []CitySort{{Column: "created_at", Desc: true}}
	}
	sort.Slice(cities, func(i, j int) bool {
		for _, term := range terms {
			cmp := compareCities(&cities[i], &cities[j], term.Column)
			if cmp == 0 {
				continue
			}
			if term.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit
	if offset >= len(cities) {
		return []model.City{}, nil
	}
	end := offset + limit
	if end > len(cities) {
		end = len(cities)
	}
	return cities[offset:end], nil
}

func (r *MemoryCityRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cities[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.cities, id)
	return nil
}

func compareCities(a, b *model.City, column string) int {
	switch column {
	case "visit_date":
		return compareTimes(a.Date, b.Date)
	case "city_name":
		return compareStrings(a.Name, b.Name)
	case "country":
		return compareStrings(a.Country, b.Country)
	case "slug":
		return compareStrings(a.Slug, b.Slug)
	default: // created_at
		return compareTimes(a.CreatedAt, b.CreatedAt)
	}
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
