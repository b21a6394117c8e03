package model

import "time"

// Category groups stock items.
type Category struct {
	ID    int64  `json:"id"`
	Group string `json:"group"`
}

// Store is a shop or warehouse location.
type Store struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Location    string `json:"location"`
	Address     string `json:"address,omitempty"`
	Email       string `json:"email,omitempty"`
	ABN         string `json:"abn,omitempty"`
	IsActive    bool   `json:"is_active"`
	Initials    string `json:"initials"`
}

// Manufacturer is a supplier that purchase orders are sent to.
type Manufacturer struct {
	ID               int64     `json:"id"`
	CompanyName      string    `json:"company_name"`
	CompanyEmail     string    `json:"company_email"`
	AdditionalEmail  string    `json:"additional_email,omitempty"`
	StreetAddress    string    `json:"street_address"`
	City             string    `json:"city"`
	Country          string    `json:"country"`
	Region           string    `json:"region"`
	PostalCode       string    `json:"postal_code"`
	CompanyTelephone string    `json:"company_telephone"`
	ABN              string    `json:"abn,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ManufacturerInput is the create/update payload for a manufacturer.
type ManufacturerInput struct {
	CompanyName      string `json:"company_name"`
	CompanyEmail     string `json:"company_email"`
	AdditionalEmail  string `json:"additional_email,omitempty"`
	StreetAddress    string `json:"street_address"`
	City             string `json:"city"`
	Country          string `json:"country"`
	Region           string `json:"region"`
	PostalCode       string `json:"postal_code"`
	CompanyTelephone string `json:"company_telephone"`
	ABN              string `json:"abn,omitempty"`
}

// DeliveryPerson collects or delivers purchase orders.
type DeliveryPerson struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}
