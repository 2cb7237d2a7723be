// Package query defines the five canonical aggregate views over the sales
// fact and the engine that serves them from any of the three backing stores
// with identical sort and pagination semantics.
//
// Each view is described once, store-agnostically, by a ViewSpec: the
// projected row schema with field kinds, the grouping key, and the default
// sort field. Store adapters translate the spec into their native query form
// (SQL GROUP BY, mongo aggregation pipeline, in-memory grouping) so the three
// realizations cannot drift apart.
package query

// Canonical view names.
const (
	ViewSalesByCountry = "sales-by-country"
	ViewSalesByProduct = "sales-by-product"
	ViewInvoiceSummary = "invoice-summary"
	ViewCustomerValue  = "customer-lifetime-value"
	ViewSalesTrend     = "sales-trend"
)

// FieldKind tells the sorter how to compare values of a row field.
type FieldKind int

const (
	KindString FieldKind = iota
	KindNumber
	KindTime
)

// Field is one projected column of a view row.
type Field struct {
	Name string
	Kind FieldKind
}

// ViewSpec is the store-agnostic description of an aggregate view.
type ViewSpec struct {
	// Name is the canonical view name.
	Name string
	// Fields is the declared row schema; sort requests are validated
	// against it.
	Fields []Field
	// GroupKey names the fields forming the grouping key. They double as
	// sort tie-breakers so every adapter produces the same total order.
	GroupKey []string
	// DefaultSort is the field used when the caller does not name one.
	DefaultSort string
}

// Field looks up a declared field by name.
func (v *ViewSpec) Field(name string) (Field, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

var views = map[string]*ViewSpec{
	ViewSalesByCountry: {
		Name: ViewSalesByCountry,
		Fields: []Field{
			{Name: "Country", Kind: KindString},
			{Name: "TotalSales", Kind: KindNumber},
		},
		GroupKey:    []string{"Country"},
		DefaultSort: "Country",
	},
	ViewSalesByProduct: {
		Name: ViewSalesByProduct,
		Fields: []Field{
			{Name: "StockCode", Kind: KindString},
			{Name: "Quantity", Kind: KindNumber},
			{Name: "UnitPrice", Kind: KindNumber},
			{Name: "TotalPrice", Kind: KindNumber},
		},
		GroupKey:    []string{"StockCode"},
		DefaultSort: "StockCode",
	},
	ViewInvoiceSummary: {
		Name: ViewInvoiceSummary,
		Fields: []Field{
			{Name: "InvoiceNo", Kind: KindString},
			{Name: "TotalAmount", Kind: KindNumber},
			{Name: "CustomerName", Kind: KindString},
			{Name: "CountryName", Kind: KindString},
			{Name: "InvoiceDate", Kind: KindTime},
		},
		GroupKey:    []string{"InvoiceNo"},
		DefaultSort: "InvoiceNo",
	},
	ViewCustomerValue: {
		Name: ViewCustomerValue,
		Fields: []Field{
			{Name: "CustomerID", Kind: KindString},
			{Name: "LifetimeValue", Kind: KindNumber},
		},
		GroupKey:    []string{"CustomerID"},
		DefaultSort: "CustomerID",
	},
	ViewSalesTrend: {
		Name: ViewSalesTrend,
		Fields: []Field{
			{Name: "Year", Kind: KindNumber},
			{Name: "Month", Kind: KindNumber},
			{Name: "TotalSales", Kind: KindNumber},
		},
		GroupKey:    []string{"Year", "Month"},
		DefaultSort: "Year",
	},
}

// View returns the spec for a canonical view name.
func View(name string) (*ViewSpec, error) {
	spec, ok := views[name]
	if !ok {
		return nil, &UnknownViewError{View: name}
	}
	return spec, nil
}

// ViewNames lists the canonical view names.
func ViewNames() []string {
	return []string{
		ViewSalesByCountry,
		ViewSalesByProduct,
		ViewInvoiceSummary,
		ViewCustomerValue,
		ViewSalesTrend,
	}
}
