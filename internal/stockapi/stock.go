package stockapi

import (
	"context"
	"fmt"
	"net/url"

	"github.com/erazemk/stockmgtr/internal/model"
)

const (
	stockPath        = "/stock/"
	stockHistoryPath = "/stock-history/"
	committedPath    = "/committed-stock/"
)

func stockQuery(f model.StockFilter) url.Values {
	v := url.Values{}
	setString(v, "search", f.Search)
	setString(v, "condition", string(f.Condition))
	if f.LowStock {
		v.Set("is_low_stock", "true")
	}
	setInt64(v, "location", f.LocationID)
	setString(v, "ordering", f.Ordering)
	setInt(v, "page", f.Page)
	setInt(v, "page_size", f.PageSize)
	return v
}

// ListStock returns one page of stock lines matching f.
func (s *Service) ListStock(ctx context.Context, f model.StockFilter) (*model.Page[model.Stock], error) {
	var page model.Page[model.Stock]
	if err := s.get(ctx, stockPath, stockQuery(f), s.ttl.List, &page); err != nil {
		return nil, fmt.Errorf("listing stock: %w", err)
	}
	return &page, nil
}

// GetStock returns one stock line.
func (s *Service) GetStock(ctx context.Context, id int64) (*model.Stock, error) {
	var st model.Stock
	if err := s.get(ctx, resource(stockPath, id), nil, s.ttl.List, &st); err != nil {
		return nil, fmt.Errorf("getting stock %d: %w", id, err)
	}
	return &st, nil
}

// CreateStock creates a stock line.
func (s *Service) CreateStock(ctx context.Context, in model.StockInput) (*model.Stock, error) {
	var st model.Stock
	if err := s.client.Post(ctx, stockPath, in, &st); err != nil {
		return nil, fmt.Errorf("creating stock: %w", err)
	}
	s.invalidate(stockPath)
	return &st, nil
}

// UpdateStock patches the given fields of a stock line.
func (s *Service) UpdateStock(ctx context.Context, id int64, in model.StockInput) (*model.Stock, error) {
	var st model.Stock
	if err := s.client.Patch(ctx, resource(stockPath, id), in, &st); err != nil {
		return nil, fmt.Errorf("updating stock %d: %w", id, err)
	}
	s.invalidate(stockPath)
	return &st, nil
}

// DeleteStock deletes a stock line.
func (s *Service) DeleteStock(ctx context.Context, id int64) error {
	if err := s.client.Delete(ctx, resource(stockPath, id)); err != nil {
		return fmt.Errorf("deleting stock %d: %w", id, err)
	}
	s.invalidate(stockPath)
	return nil
}

// IssueStock removes quantity from a stock line.
func (s *Service) IssueStock(ctx context.Context, id int64, in model.IssueInput) (*model.MovementResult, error) {
	var res model.MovementResult
	if err := s.client.Post(ctx, action(stockPath, id, "issue"), in, &res); err != nil {
		return nil, fmt.Errorf("issuing stock %d: %w", id, err)
	}
	s.invalidate(stockPath, stockHistoryPath)
	return &res, nil
}

// ReceiveStock adds quantity to a stock line.
func (s *Service) ReceiveStock(ctx context.Context, id int64, in model.ReceiveInput) (*model.MovementResult, error) {
	var res model.MovementResult
	if err := s.client.Post(ctx, action(stockPath, id, "receive"), in, &res); err != nil {
		return nil, fmt.Errorf("receiving stock %d: %w", id, err)
	}
	s.invalidate(stockPath, stockHistoryPath)
	return &res, nil
}

// ReserveStock reserves quantity of a stock line.
func (s *Service) ReserveStock(ctx context.Context, id int64, in model.ReservationInput) (*model.Reservation, error) {
	in.StockID = 0
	var res model.Reservation
	if err := s.client.Post(ctx, action(stockPath, id, "reserve"), in, &res); err != nil {
		return nil, fmt.Errorf("reserving stock %d: %w", id, err)
	}
	s.invalidate(stockPath, reservationsPath)
	return &res, nil
}

// CommitStock commits quantity of a stock line to a customer order.
func (s *Service) CommitStock(ctx context.Context, id int64, in model.CommitInput) (*model.CommittedStock, error) {
	var c model.CommittedStock
	if err := s.client.Post(ctx, action(stockPath, id, "commit"), in, &c); err != nil {
		return nil, fmt.Errorf("committing stock %d: %w", id, err)
	}
	s.invalidate(stockPath, committedPath)
	return &c, nil
}

// StockHistory returns the movements of a stock line.
func (s *Service) StockHistory(ctx context.Context, id int64) ([]model.StockHistory, error) {
	var h []model.StockHistory
	if err := s.get(ctx, action(stockPath, id, "history"), nil, s.ttl.List, &h); err != nil {
		return nil, fmt.Errorf("getting history of stock %d: %w", id, err)
	}
	return h, nil
}

// LowStock returns stock lines at or below their re-order level.
func (s *Service) LowStock(ctx context.Context) (*model.Page[model.Stock], error) {
	var page model.Page[model.Stock]
	if err := s.get(ctx, stockPath+"low-stock/", nil, s.ttl.List, &page); err != nil {
		return nil, fmt.Errorf("listing low stock: %w", err)
	}
	return &page, nil
}

// ProductOption is one autocomplete suggestion. Value is unique within a
// result set; OriginalName is what a form should submit.
type ProductOption struct {
	Value        string `json:"value"`
	Label        string `json:"label"`
	OriginalName string `json:"original_name"`
	StockID      int64  `json:"stock_id"`
}

// SearchProducts suggests products matching term. It is never cached and
// stops as soon as ctx is cancelled. Names shared by several stock lines are
// disambiguated by location and quantity.
func (s *Service) SearchProducts(ctx context.Context, term string) ([]ProductOption, error) {
	if term == "" {
		return []ProductOption{}, nil
	}
	var page model.Page[model.Stock]
	q := stockQuery(model.StockFilter{Search: term, PageSize: 10})
	if err := s.client.Get(ctx, stockPath, q, &page); err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}

	counts := make(map[string]int, len(page.Results))
	for _, st := range page.Results {
		counts[st.ItemName]++
	}
	seen := make(map[string]bool, len(page.Results))
	opts := make([]ProductOption, 0, len(page.Results))
	for _, st := range page.Results {
		if counts[st.ItemName] == 1 {
			opts = append(opts, ProductOption{Value: st.ItemName, Label: st.ItemName, OriginalName: st.ItemName, StockID: st.ID})
			continue
		}
		label := st.ItemName
		if st.Location != nil && st.Location.Name != "" {
			label += " (" + st.Location.Name + ")"
		}
		if st.Quantity != 0 {
			label += fmt.Sprintf(" - Qty: %d", st.Quantity)
		}
		value := fmt.Sprintf("%s_%d", st.ItemName, st.ID)
		if seen[value] {
			continue
		}
		seen[value] = true
		opts = append(opts, ProductOption{Value: value, Label: label, OriginalName: st.ItemName, StockID: st.ID})
	}
	return opts, nil
}

// ListCommitted returns one page of committed stock.
func (s *Service) ListCommitted(ctx context.Context, opts ListOptions) (*model.Page[model.CommittedStock], error) {
	var page model.Page[model.CommittedStock]
	if err := s.get(ctx, committedPath, opts.values(), s.ttl.List, &page); err != nil {
		return nil, fmt.Errorf("listing committed stock: %w", err)
	}
	return &page, nil
}

// FulfillCommitment marks committed stock as handed over.
func (s *Service) FulfillCommitment(ctx context.Context, id int64) (*Message, error) {
	var m Message
	if err := s.client.Post(ctx, action(committedPath, id, "fulfill"), nil, &m); err != nil {
		return nil, fmt.Errorf("fulfilling commitment %d: %w", id, err)
	}
	s.invalidate(committedPath, stockPath)
	return &m, nil
}
