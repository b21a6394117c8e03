package stockapi

import (
	"context"
	"fmt"
	"slices"

	"github.com/erazemk/stockmgtr/internal/model"
)

const stocktakesPath = "/stock-audits/"

// StocktakeActions are the action endpoints of a stocktake.
var StocktakeActions = []string{"start", "complete", "cancel", "approve"}

// ListStocktakes returns one page of stocktakes.
func (s *Service) ListStocktakes(ctx context.Context, opts ListOptions) (*model.Page[model.Stocktake], error) {
	var page model.Page[model.Stocktake]
	if err := s.get(ctx, stocktakesPath, opts.values(), s.ttl.List, &page); err != nil {
		return nil, fmt.Errorf("listing stocktakes: %w", err)
	}
	return &page, nil
}

// GetStocktake returns one stocktake with its items.
func (s *Service) GetStocktake(ctx context.Context, id int64) (*model.Stocktake, error) {
	var st model.Stocktake
	if err := s.get(ctx, resource(stocktakesPath, id), nil, s.ttl.List, &st); err != nil {
		return nil, fmt.Errorf("getting stocktake %d: %w", id, err)
	}
	return &st, nil
}

// CreateStocktake plans a stocktake.
func (s *Service) CreateStocktake(ctx context.Context, in model.StocktakeInput) (*model.Stocktake, error) {
	var st model.Stocktake
	if err := s.client.Post(ctx, stocktakesPath, in, &st); err != nil {
		return nil, fmt.Errorf("creating stocktake: %w", err)
	}
	s.invalidate(stocktakesPath)
	return &st, nil
}

// UpdateStocktake patches a planned stocktake.
func (s *Service) UpdateStocktake(ctx context.Context, id int64, in model.StocktakeInput) (*model.Stocktake, error) {
	var st model.Stocktake
	if err := s.client.Patch(ctx, resource(stocktakesPath, id), in, &st); err != nil {
		return nil, fmt.Errorf("updating stocktake %d: %w", id, err)
	}
	s.invalidate(stocktakesPath)
	return &st, nil
}

// DeleteStocktake deletes a stocktake.
func (s *Service) DeleteStocktake(ctx context.Context, id int64) error {
	if err := s.client.Delete(ctx, resource(stocktakesPath, id)); err != nil {
		return fmt.Errorf("deleting stocktake %d: %w", id, err)
	}
	s.invalidate(stocktakesPath)
	return nil
}

// StocktakeAction runs one of StocktakeActions. Approving applies the count
// adjustments, so stock reads are invalidated too.
func (s *Service) StocktakeAction(ctx context.Context, id int64, name string) (*Message, error) {
	if !slices.Contains(StocktakeActions, name) {
		return nil, fmt.Errorf("unknown stocktake action %q", name)
	}
	var m Message
	if err := s.client.Post(ctx, action(stocktakesPath, id, name), nil, &m); err != nil {
		return nil, fmt.Errorf("%s stocktake %d: %w", name, id, err)
	}
	s.invalidate(stocktakesPath)
	if name == "approve" {
		s.invalidate(stockPath)
	}
	return &m, nil
}

// StocktakeItems returns one page of the items of a stocktake.
func (s *Service) StocktakeItems(ctx context.Context, id int64, opts ListOptions) (*model.Page[model.StocktakeItem], error) {
	var page model.Page[model.StocktakeItem]
	if err := s.get(ctx, action(stocktakesPath, id, "items"), opts.values(), s.ttl.List, &page); err != nil {
		return nil, fmt.Errorf("listing items of stocktake %d: %w", id, err)
	}
	return &page, nil
}

// CountItem records the physical count of one item.
func (s *Service) CountItem(ctx context.Context, id int64, in model.CountInput) (*Message, error) {
	var m Message
	if err := s.client.Post(ctx, action(stocktakesPath, id, "count_item"), in, &m); err != nil {
		return nil, fmt.Errorf("counting item %d of stocktake %d: %w", in.ItemID, id, err)
	}
	s.invalidate(stocktakesPath)
	return &m, nil
}
