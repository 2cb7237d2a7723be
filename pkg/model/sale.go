package model

import (
	"errors"
	"time"
)

var (
	// ErrSaleNotFound is returned when a sale cannot be located in a store.
	ErrSaleNotFound = errors.New("sale not found")
)

// Sale is the normalized fact owned by the relational store. The total price
// is always derived from Quantity and UnitPrice, never stored.
type Sale struct {
	SalesID       int64   `json:"salesId"`
	InvoiceNo     string  `json:"invoiceNo"`
	StockCode     string  `json:"stockCode"`
	Description   string  `json:"description"`
	Quantity      int64   `json:"quantity"`
	UnitPrice     float64 `json:"unitPrice"`
	CustomerID    string  `json:"customerId"`
	CountryID     string  `json:"countryId"`
	InvoiceDateID string  `json:"invoiceDateId"`
}

// TotalPrice derives the line total for the fact.
func (s Sale) TotalPrice() float64 {
	return float64(s.Quantity) * s.UnitPrice
}

// SaleRecord is a Sale with its country and date dimensions resolved. It is
// what the relational store hands to the propagator, the reconciler and the
// in-memory view aggregation.
type SaleRecord struct {
	Sale
	CountryName string    `json:"countryName"`
	InvoiceDate time.Time `json:"invoiceDate"`
}

// NewSale is an incoming sale submission. Dimension rows are created on first
// sight; the relational store assigns CountryID and InvoiceDateID.
type NewSale struct {
	InvoiceNo   string    `json:"invoiceNo"`
	StockCode   string    `json:"stockCode"`
	Description string    `json:"description"`
	Quantity    int64     `json:"quantity"`
	UnitPrice   float64   `json:"unitPrice"`
	CustomerID  string    `json:"customerId"`
	CountryName string    `json:"countryName"`
	InvoiceDate time.Time `json:"invoiceDate"`
}

// Customer is the customer dimension. Created on first sight, never updated.
type Customer struct {
	CustomerID string `json:"customerId"`
}

// Product is the product dimension keyed by stock code.
type Product struct {
	StockCode   string  `json:"stockCode"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unitPrice"`
}

// Country is the country dimension.
type Country struct {
	CountryID   string `json:"countryId"`
	CountryName string `json:"countryName"`
}

// InvoiceDate is the date dimension with the calendar parts decomposed from
// the invoice timestamp.
type InvoiceDate struct {
	DateID string    `json:"dateId"`
	Date   time.Time `json:"invoiceDate"`
	Year   int       `json:"year"`
	Month  int       `json:"month"`
	Day    int       `json:"day"`
}

// NewInvoiceDate decomposes a timestamp into the date dimension.
func NewInvoiceDate(dateID string, ts time.Time) InvoiceDate {
	return InvoiceDate{
		DateID: dateID,
		Date:   ts,
		Year:   ts.Year(),
		Month:  int(ts.Month()),
		Day:    ts.Day(),
	}
}

// DocumentSale is the denormalized copy held by the document store. The
// country is resolved to its name at propagation time so aggregate queries
// avoid joins; it may go stale between writes until the next reconciliation.
type DocumentSale struct {
	InvoiceNo   string    `bson:"invoiceNo" json:"invoiceNo"`
	StockCode   string    `bson:"stockCode" json:"stockCode"`
	Quantity    int64     `bson:"quantity" json:"quantity"`
	UnitPrice   float64   `bson:"unitPrice" json:"unitPrice"`
	CustomerID  string    `bson:"customerId" json:"customerId"`
	CountryName string    `bson:"countryName" json:"countryName"`
	InvoiceDate time.Time `bson:"invoiceDate" json:"invoiceDate"`
}

// Matches reports whether the denormalized copy agrees with a fact record on
// the fields the reconciler heals. The invoice date is excluded: it is written
// on upsert but never used to detect divergence.
func (d DocumentSale) Matches(rec SaleRecord) bool {
	return d.StockCode == rec.StockCode &&
		d.Quantity == rec.Quantity &&
		d.UnitPrice == rec.UnitPrice &&
		d.CustomerID == rec.CustomerID &&
		d.CountryName == rec.CountryName
}

// AuditSale is the per-fact blob appended to the cache store under a
// synthetic sale:<uuid> key. It is write-only: nothing reads it back on the
// query path.
type AuditSale struct {
	SaleID        string  `json:"salesId"`
	InvoiceNo     string  `json:"invoiceNo"`
	StockCode     string  `json:"stockCode"`
	Description   string  `json:"description"`
	Quantity      int64   `json:"quantity"`
	UnitPrice     float64 `json:"unitPrice"`
	CustomerID    string  `json:"customerId"`
	CountryID     string  `json:"countryId"`
	InvoiceDateID string  `json:"invoiceDateId"`
}

// NewAuditSale snapshots a fact under a synthetic blob identifier.
func NewAuditSale(saleID string, s Sale) AuditSale {
	return AuditSale{
		SaleID:        saleID,
		InvoiceNo:     s.InvoiceNo,
		StockCode:     s.StockCode,
		Description:   s.Description,
		Quantity:      s.Quantity,
		UnitPrice:     s.UnitPrice,
		CustomerID:    s.CustomerID,
		CountryID:     s.CountryID,
		InvoiceDateID: s.InvoiceDateID,
	}
}

// Matches reports whether the blob agrees with a fact on the fields the
// reconciler compares before rewriting.
func (a AuditSale) Matches(s Sale) bool {
	return a.StockCode == s.StockCode &&
		a.Quantity == s.Quantity &&
		a.UnitPrice == s.UnitPrice &&
		a.CustomerID == s.CustomerID &&
		a.CountryID == s.CountryID &&
		a.InvoiceDateID == s.InvoiceDateID
}
