package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/pos-terminal/pkg/backend"
	"github.com/angelmondragon/pos-terminal/pkg/errors"
	"github.com/angelmondragon/pos-terminal/pkg/types"
)

const minSearchLength = 2

// Service looks up loyalty customers on the backend.
type Service interface {
	Get(ctx context.Context, id int64) (*types.CustomerSnapshot, error)
	Search(ctx context.Context, query string) ([]types.CustomerSnapshot, error)
}

type customerSource interface {
	GetCustomer(ctx context.Context, id int64) (*backend.Customer, error)
	SearchCustomers(ctx context.Context, query string) ([]backend.Customer, error)
}

type service struct {
	source customerSource
}

func NewService(source customerSource) (Service, error) {
	if source == nil {
		return nil, fmt.Errorf("customer source required")
	}
	return &service{source: source}, nil
}

func (s *service) Get(ctx context.Context, id int64) (*types.CustomerSnapshot, error) {
	if id <= 0 {
		return nil, errors.New(errors.CodeValidation, "customer id must be positive")
	}
	customer, err := s.source.GetCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.Wrap(errors.CodeNotFound, err, "customer not found")
		}
		return nil, err
	}
	snapshot := toSnapshot(*customer)
	return &snapshot, nil
}

func (s *service) Search(ctx context.Context, query string) ([]types.CustomerSnapshot, error) {
	trimmed := strings.TrimSpace(query)
	if len([]rune(trimmed)) < minSearchLength {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("query must be at least %d characters", minSearchLength))
	}
	found, err := s.source.SearchCustomers(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	out := make([]types.CustomerSnapshot, 0, len(found))
	for _, c := range found {
		out = append(out, toSnapshot(c))
	}
	return out, nil
}

// toSnapshot trims upstream fields and floors a negative balance at 0.
func toSnapshot(c backend.Customer) types.CustomerSnapshot {
	points := c.LoyaltyPoints
	if points < 0 {
		points = 0
	}
	return types.CustomerSnapshot{
		ID:            c.ID,
		Name:          strings.TrimSpace(c.Name),
		LoyaltyPoints: points,
		CustomerType:  strings.ToLower(strings.TrimSpace(c.CustomerType)),
	}
}
