package service

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"citylog/internal/common"
	"citylog/internal/domain/model"
	"citylog/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type CityService struct {
	cities repository.CityRepository
}

func NewCityService(cities repository.CityRepository) *CityService {
	return &CityService{cities: cities}
}

type CreateCityRequest struct {
	CityName string    `json:"cityName"`
	Country  string    `json:"country"`
	Emoji    string    `json:"emoji"`
	Date     time.Time `json:"date"`
	Notes    string    `json:"notes"`
	Position struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"position"`
}

func (s *CityService) Create(ctx context.Context, ownerID string, req CreateCityRequest) (*model.City, error) {
	switch {
	case strings.TrimSpace(req.CityName) == "":
		return nil, common.NewError(common.ErrValidation, "Please provide a city name")
	case strings.TrimSpace(req.Country) == "":
		return nil, common.NewError(common.ErrValidation, "Every city should belong to a country")
	case req.Emoji == "":
		return nil, common.NewError(common.ErrValidation, "Every city should have a flag emoji of its country")
	case req.Date.IsZero():
		return nil, common.NewError(common.ErrValidation, "Please provide a date when you visited")
	case strings.TrimSpace(req.Notes) == "":
		return nil, common.NewError(common.ErrValidation, "Please provide a short description of your experience")
	}

	city := &model.City{
		ID:      uuid.NewString(),
		UserID:  ownerID,
		Name:    strings.TrimSpace(req.CityName),
		Country: strings.TrimSpace(req.Country),
		Slug:    slug.Make(req.CityName + " " + req.Country),
		Emoji:   req.Emoji,
		Date:    req.Date,
		Notes:   strings.TrimSpace(req.Notes),
		Lat:     req.Position.Lat,
		Lng:     req.Position.Lng,
	}
	if err := s.cities.Create(ctx, city); err != nil {
		return nil, err
	}
	return city, nil
}

// sortableColumns maps API field names to persisted columns for the sort and
// filter query parameters.
var sortableColumns = map[string]string{
	"date":      "visit_date",
	"cityName":  "city_name",
	"country":   "country",
	"slug":      "slug",
	"createdAt": "created_at",
}

// projectableFields is the field-selection allow-list, keyed by the JSON
// names clients see.
var projectableFields = map[string]bool{
	"id": true, "user_id": true, "cityName": true, "country": true,
	"slug": true, "emoji": true, "date": true, "notes": true,
	"lat": true, "lng": true, "created_at": true,
}

// ParseListQuery shapes a city listing from request query parameters:
// equality filters, `sort` (comma separated, `-` prefix for descending),
// `fields` (comma-separated projection), `page` and `limit`.
func ParseListQuery(ownerID string, values url.Values) (repository.CityListQuery, []string, error) {
	q := repository.CityListQuery{
		UserID:  ownerID,
		Country: values.Get("country"),
		Slug:    values.Get("slug"),
		Name:    values.Get("cityName"),
	}

	if sortParam := values.Get("sort"); sortParam != "" {
		for _, term := range strings.Split(sortParam, ",") {
			desc := strings.HasPrefix(term, "-")
			name := strings.TrimPrefix(term, "-")
			column, ok := sortableColumns[name]
			if !ok {
				return q, nil, common.NewError(common.ErrBadRequest, "Cannot sort by field: "+name)
			}
			q.Sort = append(q.Sort, repository.CitySort{Column: column, Desc: desc})
		}
	}

	if pageParam := values.Get("page"); pageParam != "" {
		page, err := strconv.Atoi(pageParam)
		if err != nil || page <= 0 {
			return q, nil, common.NewError(common.ErrBadRequest, "Invalid page parameter")
		}
		q.Page = page
	}
	if limitParam := values.Get("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil || limit <= 0 || limit > 100 {
			return q, nil, common.NewError(common.ErrBadRequest, "Invalid limit parameter")
		}
		q.Limit = limit
	}

	var fields []string
	if fieldsParam := values.Get("fields"); fieldsParam != "" {
		for _, field := range strings.Split(fieldsParam, ",") {
			if !projectableFields[field] {
				return q, nil, common.NewError(common.ErrBadRequest, "Unknown field: "+field)
			}
			fields = append(fields, field)
		}
	}

	return q, fields, nil
}

// List returns the requester's cities shaped by the query parameters. With a
// field selection the result rows carry only the requested fields.
func (s *CityService) List(ctx context.Context, ownerID string, values url.Values) ([]interface{}, error) {
	q, fields, err := ParseListQuery(ownerID, values)
	if err != nil {
		return nil, err
	}

	cities, err := s.cities.List(ctx, q)
	if err != nil {
		return nil, err
	}

	results := make([]interface{}, 0, len(cities))
	for i := range cities {
		if len(fields) == 0 {
			results = append(results, cities[i])
			continue
		}
		results = append(results, projectCity(&cities[i], fields))
	}
	return results, nil
}

func projectCity(city *model.City, fields []string) map[string]interface{} {
	row := map[string]interface{}{}
	for _, field := range fields {
		switch field {
		case "id":
			row[field] = city.ID
		case "user_id":
			row[field] = city.UserID
		case "cityName":
			row[field] = city.Name
		case "country":
			row[field] = city.Country
		case "slug":
			row[field] = city.Slug
		case "emoji":
			row[field] = city.Emoji
		case "date":
			row[field] = city.Date
		case "notes":
			row[field] = city.Notes
		case "lat":
			row[field] = city.Lat
		case "lng":
			row[field] = city.Lng
		case "created_at":
			row[field] = city.CreatedAt
		}
	}
	return row
}

// Get returns a city by id. Records owned by someone else are reported as
// not found rather than forbidden, so ids cannot be probed; admins may read
// any record.
func (s *CityService) Get(ctx context.Context, requester *model.User, id string) (*model.City, error) {
	city, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if city.UserID != requester.ID && requester.Role != model.RoleAdmin {
		return nil, common.NewError(common.ErrNotFound, "No city found with this ID => "+id)
	}
	return city, nil
}

// Update is a deliberate stub: the endpoint is part of the public surface but
// the operation is not supported.
func (s *CityService) Update(ctx context.Context, requester *model.User, id string) error {
	return common.ErrNotImplemented
}

func (s *CityService) Delete(ctx context.Context, requester *model.User, id string) error {
	city, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if city.UserID != requester.ID {
		return common.NewError(common.ErrNotFound, "No city found with this ID => "+id)
	}
	return s.cities.Delete(ctx, city.ID)
}

func (s *CityService) find(ctx context.Context, id string) (*model.City, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	city, err := s.cities.FindByID(ctx, id)
	if err != nil {
		if err == common.ErrNotFound {
			return nil, common.NewError(common.ErrNotFound, "No city found with this ID => "+id)
		}
		return nil, err
	}
	return city, nil
}
