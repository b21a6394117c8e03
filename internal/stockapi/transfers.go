package stockapi

import (
	"context"
	"fmt"
	"slices"

	"github.com/erazemk/stockmgtr/internal/model"
)

const transfersPath = "/transfers/"

// TransferActions are the action endpoints of a transfer.
var TransferActions = []string{"approve", "dispatch", "complete", "collect", "cancel"}

// ListTransfers returns one page of transfers.
func (s *Service) ListTransfers(ctx context.Context, opts ListOptions) (*model.Page[model.Transfer], error) {
	var page model.Page[model.Transfer]
	if err := s.get(ctx, transfersPath, opts.values(), s.ttl.List, &page); err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	return &page, nil
}

// GetTransfer returns one transfer.
func (s *Service) GetTransfer(ctx context.Context, id int64) (*model.Transfer, error) {
	var t model.Transfer
	if err := s.get(ctx, resource(transfersPath, id), nil, s.ttl.List, &t); err != nil {
		return nil, fmt.Errorf("getting transfer %d: %w", id, err)
	}
	return &t, nil
}

// CreateTransfer requests a transfer.
func (s *Service) CreateTransfer(ctx context.Context, in model.TransferInput) (*model.Transfer, error) {
	var t model.Transfer
	if err := s.client.Post(ctx, transfersPath, in, &t); err != nil {
		return nil, fmt.Errorf("creating transfer: %w", err)
	}
	s.invalidate(transfersPath)
	return &t, nil
}

// TransferAction runs one of TransferActions on a transfer.
func (s *Service) TransferAction(ctx context.Context, id int64, name string) (*Message, error) {
	if !slices.Contains(TransferActions, name) {
		return nil, fmt.Errorf("unknown transfer action %q", name)
	}
	var m Message
	if err := s.client.Post(ctx, action(transfersPath, id, name), nil, &m); err != nil {
		return nil, fmt.Errorf("%s transfer %d: %w", name, id, err)
	}
	s.invalidate(transfersPath, stockPath)
	return &m, nil
}
