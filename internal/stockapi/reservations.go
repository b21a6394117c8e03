package stockapi

import (
	"context"
	"fmt"

	"github.com/erazemk/stockmgtr/internal/model"
)

const reservationsPath = "/reservations/"

// ListReservations returns one page of reservations.
func (s *Service) ListReservations(ctx context.Context, opts ListOptions) (*model.Page[model.Reservation], error) {
	var page model.Page[model.Reservation]
	if err := s.get(ctx, reservationsPath, opts.values(), s.ttl.List, &page); err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}
	return &page, nil
}

// GetReservation returns one reservation.
func (s *Service) GetReservation(ctx context.Context, id int64) (*model.Reservation, error) {
	var r model.Reservation
	if err := s.get(ctx, resource(reservationsPath, id), nil, s.ttl.List, &r); err != nil {
		return nil, fmt.Errorf("getting reservation %d: %w", id, err)
	}
	return &r, nil
}

// CreateReservation reserves stock; in.StockID selects the stock line.
func (s *Service) CreateReservation(ctx context.Context, in model.ReservationInput) (*model.Reservation, error) {
	var r model.Reservation
	if err := s.client.Post(ctx, reservationsPath, in, &r); err != nil {
		return nil, fmt.Errorf("creating reservation: %w", err)
	}
	s.invalidate(reservationsPath, stockPath)
	return &r, nil
}

// FulfillReservation converts a reservation into a sale.
func (s *Service) FulfillReservation(ctx context.Context, id int64) (*Message, error) {
	return s.reservationAction(ctx, id, "fulfill")
}

// CancelReservation releases a reservation.
func (s *Service) CancelReservation(ctx context.Context, id int64) (*Message, error) {
	return s.reservationAction(ctx, id, "cancel")
}

func (s *Service) reservationAction(ctx context.Context, id int64, name string) (*Message, error) {
	var m Message
	if err := s.client.Post(ctx, action(reservationsPath, id, name), nil, &m); err != nil {
		return nil, fmt.Errorf("%s reservation %d: %w", name, id, err)
	}
	s.invalidate(reservationsPath, stockPath)
	return &m, nil
}

// ActiveReservations returns the reservations still holding stock.
func (s *Service) ActiveReservations(ctx context.Context) (*model.Page[model.Reservation], error) {
	var page model.Page[model.Reservation]
	if err := s.get(ctx, reservationsPath+"active/", nil, s.ttl.List, &page); err != nil {
		return nil, fmt.Errorf("listing active reservations: %w", err)
	}
	return &page, nil
}
