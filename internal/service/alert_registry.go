package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"trading-panel/internal/contract"
	"trading-panel/internal/dto"
	"trading-panel/pkg/logger"
	"trading-panel/pkg/utils"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type AlertRegistry interface {
	contract.AlertStore
	Create(ctx context.Context, req dto.CreateAlertRequest) (dto.Alert, error)
	List() []dto.Alert
	Remove(id string) bool
	Clear() int
}

// alertRegistry keeps armed alerts in insertion order. With capacity 1 a new
// alert replaces the previous one.
type alertRegistry struct {
	log       *logger.Logger
	validator *goValidator.Validate
	prices    contract.PriceResolver
	capacity  int

	mu     sync.Mutex
	alerts []dto.Alert
}

func NewAlertRegistry(log *logger.Logger, validator *goValidator.Validate, prices contract.PriceResolver, capacity int) AlertRegistry {
	if capacity <= 0 {
		capacity = 1
	}
	return &alertRegistry{
		log:       log,
		validator: validator,
		prices:    prices,
		capacity:  capacity,
	}
}

// Create arms a new alert. The condition is derived from where the target sits
// relative to the current price, so the price must be resolvable.
func (r *alertRegistry) Create(ctx context.Context, req dto.CreateAlertRequest) (dto.Alert, error) {
	if err := validateStruct(r.validator, req); err != nil {
		return dto.Alert{}, err
	}

	if e, ok := r.prices.(interface{ Enabled() bool }); ok && !e.Enabled() {
		return dto.Alert{}, dto.ErrPriceSourceDisabled
	}

	name := strings.ToUpper(strings.TrimSpace(req.Name))
	quote := r.prices.Resolve(ctx, name)
	if !quote.Found {
		return dto.Alert{}, fmt.Errorf("%w: %s", dto.ErrPriceUnavailable, name)
	}

	condition := dto.AlertBelow
	if req.TargetPrice > quote.LastPrice {
		condition = dto.AlertAbove
	}

	alert := dto.Alert{
		ID:           uuid.NewString(),
		Name:         name,
		TargetPrice:  req.TargetPrice,
		CurrentPrice: quote.LastPrice,
		Condition:    condition,
		CreatedAt:    utils.TimeNowUTC(),
		Active:       true,
	}

	r.mu.Lock()
	var replaced []dto.Alert
	if over := len(r.alerts) + 1 - r.capacity; over > 0 {
		replaced = append(replaced, r.alerts[:over]...)
		r.alerts = append([]dto.Alert(nil), r.alerts[over:]...)
	}
	r.alerts = append(r.alerts, alert)
	r.mu.Unlock()

	for _, old := range replaced {
		r.log.InfoContext(ctx, "Alert replaced", logger.StringField("alert_id", old.ID), logger.StringField("name", old.Name))
	}
	r.log.InfoContext(ctx, "Alert armed",
		logger.StringField("alert_id", alert.ID),
		logger.StringField("name", alert.Name),
		logger.Float64Field("target_price", alert.TargetPrice),
		logger.StringField("condition", string(alert.Condition)))
	return alert, nil
}

func (r *alertRegistry) List() []dto.Alert {
	return r.Snapshot()
}

func (r *alertRegistry) Snapshot() []dto.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]dto.Alert, len(r.alerts))
	copy(out, r.alerts)
	return out
}

func (r *alertRegistry) UpdatePrice(id string, price float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOf(id); i >= 0 {
		r.alerts[i].CurrentPrice = price
		return true
	}
	return false
}

func (r *alertRegistry) Claim(id string) (dto.Alert, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return dto.Alert{}, false
	}
	alert := r.alerts[i]
	r.alerts = append(r.alerts[:i], r.alerts[i+1:]...)
	alert.Active = false
	return alert, true
}

func (r *alertRegistry) Remove(id string) bool {
	_, ok := r.Claim(id)
	return ok
}

func (r *alertRegistry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.alerts)
	r.alerts = nil
	return n
}

func (r *alertRegistry) indexOf(id string) int {
	for i := range r.alerts {
		if r.alerts[i].ID == id {
			return i
		}
	}
	return -1
}
