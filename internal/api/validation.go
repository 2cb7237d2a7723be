package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"salesync/pkg/model"
)

const maxBodyBytes = 1 << 20

// decodeJSONBody parses a request body, rejecting trailing garbage and
// oversized payloads.
func decodeJSONBody(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid request body: unexpected trailing data")
	}
	return nil
}

// validateNewSale checks the submission fields the fact store cannot default.
func validateNewSale(in model.NewSale) error {
	switch {
	case in.InvoiceNo == "":
		return errors.New("invoiceNo is required")
	case in.StockCode == "":
		return errors.New("stockCode is required")
	case in.CustomerID == "":
		return errors.New("customerId is required")
	case in.CountryName == "":
		return errors.New("countryName is required")
	case in.InvoiceDate.IsZero():
		return errors.New("invoiceDate is required")
	case in.Quantity <= 0:
		return errors.New("quantity must be positive")
	case in.UnitPrice < 0:
		return errors.New("unitPrice must not be negative")
	}
	return nil
}
