package stockapi

import (
	"context"
	"fmt"

	"github.com/erazemk/stockmgtr/internal/model"
)

const (
	manufacturersPath   = "/manufacturers/"
	deliveryPersonsPath = "/delivery-persons/"
	storesPath          = "/stores/"
	categoriesPath      = "/categories/"
)

// ListManufacturers returns one page of manufacturers.
func (s *Service) ListManufacturers(ctx context.Context, opts ListOptions) (*model.Page[model.Manufacturer], error) {
	var page model.Page[model.Manufacturer]
	if err := s.get(ctx, manufacturersPath, opts.values(), s.ttl.Directory, &page); err != nil {
		return nil, fmt.Errorf("listing manufacturers: %w", err)
	}
	return &page, nil
}

// GetManufacturer returns one manufacturer.
func (s *Service) GetManufacturer(ctx context.Context, id int64) (*model.Manufacturer, error) {
	var m model.Manufacturer
	if err := s.get(ctx, resource(manufacturersPath, id), nil, s.ttl.Directory, &m); err != nil {
		return nil, fmt.Errorf("getting manufacturer %d: %w", id, err)
	}
	return &m, nil
}

// CreateManufacturer creates a manufacturer.
func (s *Service) CreateManufacturer(ctx context.Context, in model.ManufacturerInput) (*model.Manufacturer, error) {
	var m model.Manufacturer
	if err := s.client.Post(ctx, manufacturersPath, in, &m); err != nil {
		return nil, fmt.Errorf("creating manufacturer: %w", err)
	}
	s.invalidate(manufacturersPath)
	return &m, nil
}

// UpdateManufacturer replaces a manufacturer's details.
func (s *Service) UpdateManufacturer(ctx context.Context, id int64, in model.ManufacturerInput) (*model.Manufacturer, error) {
	var m model.Manufacturer
	if err := s.client.Put(ctx, resource(manufacturersPath, id), in, &m); err != nil {
		return nil, fmt.Errorf("updating manufacturer %d: %w", id, err)
	}
	s.invalidate(manufacturersPath)
	return &m, nil
}

// DeleteManufacturer deletes a manufacturer.
func (s *Service) DeleteManufacturer(ctx context.Context, id int64) error {
	if err := s.client.Delete(ctx, resource(manufacturersPath, id)); err != nil {
		return fmt.Errorf("deleting manufacturer %d: %w", id, err)
	}
	s.invalidate(manufacturersPath)
	return nil
}

// ListDeliveryPersons returns the delivery persons.
func (s *Service) ListDeliveryPersons(ctx context.Context) (*model.Page[model.DeliveryPerson], error) {
	var page model.Page[model.DeliveryPerson]
	if err := s.get(ctx, deliveryPersonsPath, nil, s.ttl.Directory, &page); err != nil {
		return nil, fmt.Errorf("listing delivery persons: %w", err)
	}
	return &page, nil
}

// ListStores returns the stores and warehouses.
func (s *Service) ListStores(ctx context.Context) (*model.Page[model.Store], error) {
	var page model.Page[model.Store]
	if err := s.get(ctx, storesPath, nil, s.ttl.Directory, &page); err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}
	return &page, nil
}

// ListCategories returns the stock categories.
func (s *Service) ListCategories(ctx context.Context) (*model.Page[model.Category], error) {
	var page model.Page[model.Category]
	if err := s.get(ctx, categoriesPath, nil, s.ttl.Directory, &page); err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return &page, nil
}
