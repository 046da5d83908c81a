package service

import (
	"context"
	"net/url"
	"testing"
	"time"

	"citylog/internal/common"
	"citylog/internal/domain/model"
	"citylog/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCity() CreateCityRequest {
	req := CreateCityRequest{
		CityName: "Lisbon",
		Country:  "Portugal",
		Emoji:    "🇵🇹",
		Date:     time.Date(2024, 7, 14, 0, 0, 0, 0, time.UTC),
		Notes:    "Pastéis de nata every morning",
	}
	req.Position.Lat = 38.7223
	req.Position.Lng = -9.1393
	return req
}

func testRequester(role model.Role) *model.User {
	return &model.User{ID: uuid.NewString(), Role: role}
}

func TestCityCreate(t *testing.T) {
	t.Parallel()

	cities := repository.NewMemoryCityRepository()
	svc := NewCityService(cities)
	owner := testRequester(model.RoleUser)

	city, err := svc.Create(context.Background(), owner.ID, validCity())
	require.NoError(t, err)
	assert.Equal(t, owner.ID, city.UserID)
	assert.Equal(t, "Lisbon", city.Name)
	assert.Equal(t, "lisbon-portugal", city.Slug)
	assert.Equal(t, 38.7223, city.Lat)

	stored, err := cities.FindByID(context.Background(), city.ID)
	require.NoError(t, err)
	assert.Equal(t, city.Slug, stored.Slug)
}

func TestCityCreate_Validation(t *testing.T) {
	t.Parallel()

	svc := NewCityService(repository.NewMemoryCityRepository())
	owner := testRequester(model.RoleUser)

	tests := []struct {
		name    string
		mutate  func(*CreateCityRequest)
		message string
	}{
		{"missing name", func(r *CreateCityRequest) { r.CityName = " " },
			"Please provide a city name"},
		{"missing country", func(r *CreateCityRequest) { r.Country = "" },
			"Every city should belong to a country"},
		{"missing emoji", func(r *CreateCityRequest) { r.Emoji = "" },
			"Every city should have a flag emoji of its country"},
		{"missing date", func(r *CreateCityRequest) { r.Date = time.Time{} },
			"Please provide a date when you visited"},
		{"missing notes", func(r *CreateCityRequest) { r.Notes = "" },
			"Please provide a short description of your experience"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCity()
			tt.mutate(&req)
			_, err := svc.Create(context.Background(), owner.ID, req)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestParseListQuery(t *testing.T) {
	t.Parallel()

	values := url.Values{}
	values.Set("country", "Portugal")
	values.Set("sort", "-date,cityName")
	values.Set("page", "2")
	values.Set("limit", "5")
	values.Set("fields", "cityName,country,emoji")

	q, fields, err := ParseListQuery("owner-1", values)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", q.UserID)
	assert.Equal(t, "Portugal", q.Country)
	assert.Equal(t, []repository.CitySort{
		{Column: "visit_date", Desc: true},
		{Column: "city_name", Desc: false},
	}, q.Sort)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, []string{"cityName", "country", "emoji"}, fields)
}

func TestParseListQuery_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		key     string
		value   string
		message string
	}{
		{"unknown sort field", "sort", "password", "Cannot sort by field: password"},
		{"zero page", "page", "0", "Invalid page parameter"},
		{"non-numeric page", "page", "two", "Invalid page parameter"},
		{"oversized limit", "limit", "500", "Invalid limit parameter"},
		{"unknown projection", "fields", "hashedPassword", "Unknown field: hashedPassword"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := url.Values{}
			values.Set(tt.key, tt.value)
			_, _, err := ParseListQuery("owner-1", values)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrBadRequest)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestCityList_ScopedToOwner(t *testing.T) {
	t.Parallel()

	cities := repository.NewMemoryCityRepository()
	svc := NewCityService(cities)
	owner := testRequester(model.RoleUser)
	other := testRequester(model.RoleUser)

	_, err := svc.Create(context.Background(), owner.ID, validCity())
	require.NoError(t, err)
	req := validCity()
	req.CityName = "Porto"
	_, err = svc.Create(context.Background(), other.ID, req)
	require.NoError(t, err)

	results, err := svc.List(context.Background(), owner.ID, url.Values{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	city, ok := results[0].(model.City)
	require.True(t, ok)
	assert.Equal(t, "Lisbon", city.Name)
}

func TestCityList_SortAndProjection(t *testing.T) {
	t.Parallel()

	cities := repository.NewMemoryCityRepository()
	svc := NewCityService(cities)
	owner := testRequester(model.RoleUser)

	first := validCity()
	first.CityName = "Porto"
	first.Date = time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), owner.ID, first)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), owner.ID, validCity())
	require.NoError(t, err)

	values := url.Values{}
	values.Set("sort", "-date")
	values.Set("fields", "cityName,date")
	results, err := svc.List(context.Background(), owner.ID, values)
	require.NoError(t, err)
	require.Len(t, results, 2)

	row, ok := results[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Lisbon", row["cityName"])
	assert.Len(t, row, 2)
}

func TestCityGet_Ownership(t *testing.T) {
	t.Parallel()

	svc := NewCityService(repository.NewMemoryCityRepository())
	owner := testRequester(model.RoleUser)
	city, err := svc.Create(context.Background(), owner.ID, validCity())
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), owner, city.ID)
	require.NoError(t, err)
	assert.Equal(t, city.ID, got.ID)

	// Someone else's record reads as missing, not forbidden.
	stranger := testRequester(model.RoleUser)
	_, err = svc.Get(context.Background(), stranger, city.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, "No city found with this ID => "+city.ID, err.Error())

	// Admins can read any record.
	admin := testRequester(model.RoleAdmin)
	got, err = svc.Get(context.Background(), admin, city.ID)
	require.NoError(t, err)
	assert.Equal(t, city.ID, got.ID)
}

func TestCityGet_InvalidID(t *testing.T) {
	t.Parallel()

	svc := NewCityService(repository.NewMemoryCityRepository())

	_, err := svc.Get(context.Background(), testRequester(model.RoleUser), "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrBadRequest)
	assert.Equal(t, "Invalid id: not-a-uuid", err.Error())
}

func TestCityUpdate_NotImplemented(t *testing.T) {
	t.Parallel()

	svc := NewCityService(repository.NewMemoryCityRepository())

	err := svc.Update(context.Background(), testRequester(model.RoleUser), uuid.NewString())
	assert.ErrorIs(t, err, common.ErrNotImplemented)
}

func TestCityDelete_OwnerOnly(t *testing.T) {
	t.Parallel()

	cities := repository.NewMemoryCityRepository()
	svc := NewCityService(cities)
	owner := testRequester(model.RoleUser)
	city, err := svc.Create(context.Background(), owner.ID, validCity())
	require.NoError(t, err)

	// Admins do not get delete rights over other users' records.
	admin := testRequester(model.RoleAdmin)
	err = svc.Delete(context.Background(), admin, city.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, svc.Delete(context.Background(), owner, city.ID))
	_, err = cities.FindByID(context.Background(), city.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
