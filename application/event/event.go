package event

import (
	"context"
	"strings"
	"time"

	"github.com/muhammadheryan/event-ticket/constant"
	"github.com/muhammadheryan/event-ticket/model"
	eventRepo "github.com/muhammadheryan/event-ticket/repository/event"
	"github.com/muhammadheryan/event-ticket/utils/errors"
	"github.com/muhammadheryan/event-ticket/utils/logger"
	"go.uber.org/zap"
)

// dateLayouts are tried in order when parsing event dates.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

type EventApp interface {
	ListEvents(ctx context.Context) ([]model.EventEntity, error)
	GetEvent(ctx context.Context, id uint64) (*model.EventEntity, error)
	CreateEvent(ctx context.Context, req *model.CreateEventRequest) (*model.CreateEventResponse, error)
}

type eventAppImpl struct {
	eventRepo eventRepo.EventRepository
}

func NewEventApp(eventRepo eventRepo.EventRepository) EventApp {
	return &eventAppImpl{eventRepo: eventRepo}
}

func (s *eventAppImpl) ListEvents(ctx context.Context) ([]model.EventEntity, error) {
	items, err := s.eventRepo.List(ctx)
	if err != nil {
		logger.Error("[ListEvents] error eventRepo.List", zap.String("error", err.Error()))
		return nil, errors.SetCustomErrorWithDetails(constant.ErrInternal, err.Error())
	}

	return items, nil
}

func (s *eventAppImpl) GetEvent(ctx context.Context, id uint64) (*model.EventEntity, error) {
	result, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		logger.Error("[GetEvent] error eventRepo.GetByID", zap.String("error", err.Error()))
		return nil, errors.SetCustomErrorWithDetails(constant.ErrInternal, err.Error())
	}
	if result == nil {
		return nil, errors.SetCustomError(constant.ErrNotFound)
	}

	return result, nil
}

func (s *eventAppImpl) CreateEvent(ctx context.Context, req *model.CreateEventRequest) (*model.CreateEventResponse, error) {
	if req.UserID == 0 {
		return nil, errors.SetCustomError(constant.ErrUnauthorize)
	}

	start, ok := parseEventDate(req.StartDate)
	if !ok {
		return nil, errors.SetCustomErrorWithDetails(constant.ErrInvalidRequest, "invalid event_start_date")
	}
	end, ok := parseEventDate(req.EndDate)
	if !ok {
		return nil, errors.SetCustomErrorWithDetails(constant.ErrInvalidRequest, "invalid event_end_date")
	}
	if end.Before(start) {
		return nil, errors.SetCustomErrorWithDetails(constant.ErrInvalidRequest, "event_end_date is before event_start_date")
	}
	if req.Price.IsNegative() {
		return nil, errors.SetCustomErrorWithDetails(constant.ErrInvalidRequest, "event_price must not be negative")
	}

	id, err := s.eventRepo.Create(ctx, &model.EventEntity{
		UserID:      req.UserID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
		Location:    strings.TrimSpace(req.Location),
		Price:       req.Price,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		logger.Error("[CreateEvent] error eventRepo.Create", zap.String("error", err.Error()))
		return nil, errors.SetCustomErrorWithDetails(constant.ErrInternal, err.Error())
	}

	return &model.CreateEventResponse{
		Message: "Event created successfully!",
		EventID: id,
	}, nil
}

func parseEventDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
