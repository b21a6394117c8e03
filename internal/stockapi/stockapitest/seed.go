package stockapitest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/stockmgtr/internal/model"
)

// Seeded IDs, stable across New calls.
const (
	WarehouseID      int64 = 101
	CityStoreID      int64 = 102
	FridgeID         int64 = 201
	SpeakerID        int64 = 202
	CityFridgeID     int64 = 203
	DishwasherID     int64 = 204
	ManufacturerID   int64 = 301
	DeliveryPersonID int64 = 302
	DraftOrderID     int64 = 401
	SentOrderID      int64 = 402
	TransferID       int64 = 501
	ReservationID    int64 = 502
	CommitmentID     int64 = 503
	StocktakeID      int64 = 601
)

var seedTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func (b *Backend) seed() {
	b.stores[WarehouseID] = &model.Store{
		ID: WarehouseID, Name: "Main Warehouse", Designation: "warehouse",
		Location: "Brisbane", IsActive: true, Initials: "MW",
	}
	b.stores[CityStoreID] = &model.Store{
		ID: CityStoreID, Name: "City Store", Designation: "store",
		Location: "Brisbane CBD", IsActive: true, Initials: "CS",
	}
	b.categories[1] = &model.Category{ID: 1, Group: "Appliances"}
	b.categories[2] = &model.Category{ID: 2, Group: "Audio"}

	b.addStock(FridgeID, "Fridge 400L", 1, WarehouseID, 12, 5)
	b.addStock(SpeakerID, "Speaker Pair", 2, CityStoreID, 3, 5)
	b.addStock(CityFridgeID, "Fridge 400L", 1, CityStoreID, 4, 2)
	b.addStock(DishwasherID, "Dishwasher", 1, WarehouseID, 8, 2)

	b.manufacturers[ManufacturerID] = &model.Manufacturer{
		ID: ManufacturerID, CompanyName: "Acme Appliances", CompanyEmail: "orders@acme.example",
		City: "Sydney", Country: "Australia", CreatedAt: seedTime, UpdatedAt: seedTime,
	}
	b.deliveryPersons[DeliveryPersonID] = &model.DeliveryPerson{
		ID: DeliveryPersonID, Name: "Dave", PhoneNumber: "0400 000 000", IsActive: true, CreatedAt: seedTime,
	}

	manager := b.accounts["manager"].user()
	b.purchaseOrders[DraftOrderID] = &model.PurchaseOrder{
		ID: DraftOrderID, ReferenceNumber: "PO-0401", Manufacturer: "Acme Appliances",
		DeliveryType: model.DeliveryStore, Store: "Main Warehouse", Status: model.POStatusDraft,
		CreatedBy: manager, CreatedAt: seedTime,
		Items: []model.PurchaseOrderItem{
			{ID: 4011, Product: "Fridge 400L", PriceInc: decimal.NewFromInt(110), Quantity: 2, DiscountPercent: decimal.NewFromInt(10)},
			{ID: 4012, Product: "Dishwasher", PriceInc: decimal.NewFromInt(50), Quantity: 1, DiscountPercent: decimal.Zero},
		},
	}
	sent := seedTime.Add(time.Hour)
	b.purchaseOrders[SentOrderID] = &model.PurchaseOrder{
		ID: SentOrderID, ReferenceNumber: "PO-0402", Manufacturer: "Acme Appliances",
		DeliveryType: model.DeliveryStore, Store: "Main Warehouse", Status: model.POStatusSent,
		CreatedBy: manager, CreatedAt: seedTime, SentAt: &sent,
		Items: []model.PurchaseOrderItem{
			{ID: 4021, Product: "Speaker Pair", PriceInc: decimal.NewFromInt(220), Quantity: 4, DiscountPercent: decimal.Zero},
		},
	}

	b.transfers[TransferID] = &model.Transfer{
		ID: TransferID, Stock: model.Stock{ID: DishwasherID}, Quantity: 2,
		FromLocation: *b.stores[WarehouseID], ToLocation: *b.stores[CityStoreID],
		TransferType: model.TransferRestock, TransferReason: "Restock city store",
		Status: model.TransferPending, CreatedBy: manager, CreatedAt: seedTime,
	}
	b.reservations[ReservationID] = &model.Reservation{
		ID: ReservationID, Stock: model.Stock{ID: FridgeID}, Quantity: 2,
		ReservationType: model.ReservationHold, Status: model.ReservationActive,
		CustomerName: "Jane Citizen", Reason: "Holding for pickup", ReservedBy: manager,
		ReservedAt: seedTime, ExpiresAt: seedTime.AddDate(0, 0, 7),
	}
	b.committed[CommitmentID] = &model.CommittedStock{
		ID: CommitmentID, Stock: model.Stock{ID: FridgeID}, Quantity: 1,
		CustomerOrderNumber: "SO-1001", DepositAmount: decimal.NewFromInt(200),
		CustomerName: "John Citizen", CommittedBy: manager, CommittedAt: seedTime,
	}

	b.stocktakes[StocktakeID] = &model.Stocktake{
		ID: StocktakeID, AuditReference: "SA-0601", Title: "Quarterly count",
		AuditType: model.AuditFull, Status: model.StocktakePlanned,
		PlannedStartDate: model.NewDate(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)), PlannedEndDate: model.NewDate(time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)),
		CreatedBy: manager, CreatedAt: seedTime,
	}
	b.stocktakes[StocktakeID].AuditItems = b.auditItems(StocktakeID, nil)

	b.seq = 10000
}

func (b *Backend) addStock(id int64, name string, category, store int64, qty, reorder int) {
	b.stock[id] = &model.Stock{
		ID: id, Category: b.categories[category], ItemName: name,
		Quantity: qty, Condition: model.ConditionNew, Location: b.stores[store],
		ReOrder: reorder, LastUpdated: seedTime,
	}
}
