package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"dailydiet/internal/model"
)

var (
	ErrDietNotFound = errors.New("diet entry not found")
	ErrNoDiets      = errors.New("no diet entries")
	ErrBadDate      = errors.New("date is not a valid timestamp")
)

// dateFormats are tried in order when parsing the update payload's date.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type DietStore interface {
	Create(diet *model.Diet) error
	GetByID(id uint) (*model.Diet, error)
	Update(diet *model.Diet) error
	Delete(id uint) error
	ListByUserID(userID uint) ([]model.Diet, error)
}

type DietListCache interface {
	GetList(ctx context.Context, userID uint) ([]model.Diet, bool, error)
	SetList(ctx context.Context, userID uint, diets []model.Diet) error
	DeleteList(ctx context.Context, userID uint) error
}

type DietService struct {
	diets  DietStore
	cache  DietListCache
	events AuditPublisher
}

type CreateDietInput struct {
	Title          string
	Description    string
	ConsistentDiet bool
}

type UpdateDietInput struct {
	Title          string
	Description    string
	Date           string
	ConsistentDiet bool
}

func NewDietService(diets DietStore, cache DietListCache, events AuditPublisher) *DietService {
	return &DietService{
		diets:  diets,
		cache:  cache,
		events: events,
	}
}

// Create makes the caller the owner; ownership never changes afterwards.
func (s *DietService) Create(caller Caller, input CreateDietInput) (*model.Diet, error) {
	if caller.ID == 0 {
		return nil, ErrUnauthenticated
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, ErrInvalidInput
	}

	diet := &model.Diet{
		UserID:         caller.ID,
		Title:          title,
		Description:    description,
		DateTime:       time.Now(),
		ConsistentDiet: input.ConsistentDiet,
	}
	if err := s.diets.Create(diet); err != nil {
		return nil, err
	}

	s.invalidateList(caller.ID)
	s.audit(caller.ID, "create", diet.ID)
	return diet, nil
}

// Get allows only the owner to read an entry, admins included.
func (s *DietService) Get(caller Caller, id uint) (*model.Diet, error) {
	diet, err := s.diets.GetByID(id)
	if err != nil {
		return nil, err
	}
	if diet == nil {
		return nil, ErrDietNotFound
	}
	if diet.UserID != caller.ID {
		return nil, ErrForbidden
	}
	return diet, nil
}

// Update overwrites title, description, date and the consistency flag in one
// shot once the owner check passes. The date must be supplied and parseable.
func (s *DietService) Update(caller Caller, id uint, input UpdateDietInput) (*model.Diet, error) {
	diet, err := s.diets.GetByID(id)
	if err != nil {
		return nil, err
	}
	if diet == nil {
		return nil, ErrDietNotFound
	}
	if diet.UserID != caller.ID {
		return nil, ErrForbidden
	}

	dateTime, err := parseDate(input.Date)
	if err != nil {
		return nil, ErrBadDate
	}

	diet.Title = input.Title
	diet.Description = input.Description
	diet.DateTime = dateTime
	diet.ConsistentDiet = input.ConsistentDiet
	if err := s.diets.Update(diet); err != nil {
		return nil, err
	}

	s.invalidateList(caller.ID)
	s.audit(caller.ID, "update", diet.ID)
	return diet, nil
}

func (s *DietService) Delete(caller Caller, id uint) error {
	diet, err := s.diets.GetByID(id)
	if err != nil {
		return err
	}
	if diet == nil {
		return ErrDietNotFound
	}
	if diet.UserID != caller.ID {
		return ErrForbidden
	}

	if err := s.diets.Delete(id); err != nil {
		return err
	}

	s.invalidateList(caller.ID)
	s.audit(caller.ID, "delete", id)
	return nil
}

// ListByUser returns every entry owned by targetUserID. Any authenticated
// caller may list any user's entries; see DESIGN.md for why this gap is kept.
func (s *DietService) ListByUser(ctx context.Context, targetUserID uint) ([]model.Diet, error) {
	if targetUserID == 0 {
		return nil, ErrInvalidInput
	}

	if s.cache != nil {
		if cached, hit, err := s.cache.GetList(ctx, targetUserID); err == nil && hit {
			if len(cached) == 0 {
				return nil, ErrNoDiets
			}
			return cached, nil
		}
	}

	diets, err := s.diets.ListByUserID(targetUserID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetList(ctx, targetUserID, diets)
	}
	if len(diets) == 0 {
		return nil, ErrNoDiets
	}
	return diets, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrBadDate
	}
	for _, layout := range dateFormats {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, ErrBadDate
}

func (s *DietService) invalidateList(userID uint) {
	if s.cache == nil {
		return
	}
	_ = s.cache.DeleteList(context.Background(), userID)
}

func (s *DietService) audit(userID uint, action string, dietID uint) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(context.Background(), model.AuditEvent{
		UserID:    userID,
		Action:    action,
		Entity:    "diet",
		EntityID:  dietID,
		CreatedAt: time.Now(),
	})
}
