package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"salesync/internal/query"
	"salesync/pkg/model"
)

// SourceName is the store name this adapter serves queries under.
const SourceName = "mongo"

// ViewSource answers the aggregate views with native aggregation pipelines,
// entirely server-side. It also produces full unsorted row sets for the
// cache-aside layer.
type ViewSource struct {
	store *Store
}

// NewViewSource builds the document-store query adapter.
func NewViewSource(store *Store) *ViewSource {
	return &ViewSource{store: store}
}

func (v *ViewSource) Name() string { return SourceName }

var lineTotal = bson.M{"$multiply": bson.A{"$quantity", "$unitPrice"}}

// basePipeline builds the group and project stages realizing a view over the
// denormalized sales collection. Projected keys are exactly the view's
// declared row fields. Non-additive group fields take $min so the result is
// deterministic regardless of document order.
func basePipeline(spec *query.ViewSpec) (mongo.Pipeline, error) {
	switch spec.Name {
	case query.ViewSalesByCountry:
		return mongo.Pipeline{
			{{Key: "$group", Value: bson.M{
				"_id":        "$countryName",
				"TotalSales": bson.M{"$sum": lineTotal},
			}}},
			{{Key: "$project", Value: bson.M{
				"_id":        0,
				"Country":    "$_id",
				"TotalSales": 1,
			}}},
		}, nil
	case query.ViewSalesByProduct:
		return mongo.Pipeline{
			{{Key: "$group", Value: bson.M{
				"_id":        "$stockCode",
				"Quantity":   bson.M{"$sum": "$quantity"},
				"UnitPrice":  bson.M{"$min": "$unitPrice"},
				"TotalPrice": bson.M{"$sum": lineTotal},
			}}},
			{{Key: "$project", Value: bson.M{
				"_id":        0,
				"StockCode":  "$_id",
				"Quantity":   1,
				"UnitPrice":  1,
				"TotalPrice": 1,
			}}},
		}, nil
	case query.ViewInvoiceSummary:
		return mongo.Pipeline{
			{{Key: "$group", Value: bson.M{
				"_id":          "$invoiceNo",
				"TotalAmount":  bson.M{"$sum": lineTotal},
				"CustomerName": bson.M{"$min": "$customerId"},
				"CountryName":  bson.M{"$min": "$countryName"},
				"InvoiceDate":  bson.M{"$min": "$invoiceDate"},
			}}},
			{{Key: "$project", Value: bson.M{
				"_id":          0,
				"InvoiceNo":    "$_id",
				"TotalAmount":  1,
				"CustomerName": 1,
				"CountryName":  1,
				"InvoiceDate":  1,
			}}},
		}, nil
	case query.ViewCustomerValue:
		return mongo.Pipeline{
			{{Key: "$group", Value: bson.M{
				"_id":           "$customerId",
				"LifetimeValue": bson.M{"$sum": lineTotal},
			}}},
			{{Key: "$project", Value: bson.M{
				"_id":           0,
				"CustomerID":    "$_id",
				"LifetimeValue": 1,
			}}},
		}, nil
	case query.ViewSalesTrend:
		return mongo.Pipeline{
			{{Key: "$group", Value: bson.M{
				"_id": bson.M{
					"Year":  bson.M{"$year": "$invoiceDate"},
					"Month": bson.M{"$month": "$invoiceDate"},
				},
				"TotalSales": bson.M{"$sum": lineTotal},
			}}},
			{{Key: "$project", Value: bson.M{
				"_id":        0,
				"Year":       "$_id.Year",
				"Month":      "$_id.Month",
				"TotalSales": 1,
			}}},
		}, nil
	}
	return nil, &query.UnknownViewError{View: spec.Name}
}

// sortStage renders the deterministic total order: the requested field in
// the requested direction, then the group-key fields ascending.
func sortStage(spec *query.ViewSpec, opts query.Options) bson.D {
	dir := 1
	if opts.SortOrder == query.OrderDesc {
		dir = -1
	}
	keys := bson.D{{Key: opts.SortField, Value: dir}}
	for _, key := range spec.GroupKey {
		if key == opts.SortField {
			continue
		}
		keys = append(keys, bson.E{Key: key, Value: 1})
	}
	return keys
}

// pagePipeline is the full pipeline for one sorted page of a view.
func pagePipeline(spec *query.ViewSpec, opts query.Options) (mongo.Pipeline, error) {
	pipeline, err := basePipeline(spec)
	if err != nil {
		return nil, err
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: sortStage(spec, opts)}},
		bson.D{{Key: "$skip", Value: opts.Offset()}},
		bson.D{{Key: "$limit", Value: opts.PageSize}},
	)
	return pipeline, nil
}

// countPipeline counts the grouped result set. Pagination totals come from
// here, never from the collection's raw document count.
func countPipeline(spec *query.ViewSpec) (mongo.Pipeline, error) {
	pipeline, err := basePipeline(spec)
	if err != nil {
		return nil, err
	}
	return append(pipeline, bson.D{{Key: "$count", Value: "total"}}), nil
}

// Query implements query.Source.
func (v *ViewSource) Query(ctx context.Context, spec *query.ViewSpec, opts query.Options) (*model.Result, error) {
	countPipe, err := countPipeline(spec)
	if err != nil {
		return nil, err
	}
	total, err := v.runCount(ctx, spec, countPipe)
	if err != nil {
		return nil, err
	}

	pagePipe, err := pagePipeline(spec, opts)
	if err != nil {
		return nil, err
	}
	rows, err := v.runPipeline(ctx, spec, pagePipe)
	if err != nil {
		return nil, err
	}

	return &model.Result{
		Rows:        rows,
		CurrentPage: opts.PageNumber,
		TotalPages:  query.TotalPages(total, opts.PageSize),
		PageSize:    opts.PageSize,
	}, nil
}

// FullRows implements query.RowSource: the complete unsorted grouped result
// set, used by the cache-aside layer to fill misses.
func (v *ViewSource) FullRows(ctx context.Context, spec *query.ViewSpec) ([]model.Row, error) {
	pipeline, err := basePipeline(spec)
	if err != nil {
		return nil, err
	}
	return v.runPipeline(ctx, spec, pipeline)
}

func (v *ViewSource) runCount(ctx context.Context, spec *query.ViewSpec, pipeline mongo.Pipeline) (int, error) {
	cursor, err := v.store.sales.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("count %s groups: %w", spec.Name, err)
	}
	defer cursor.Close(ctx)

	var out []struct {
		Total int `bson:"total"`
	}
	if err := cursor.All(ctx, &out); err != nil {
		return 0, fmt.Errorf("count %s groups: %w", spec.Name, err)
	}
	if len(out) == 0 {
		// $count emits nothing over an empty grouped set.
		return 0, nil
	}
	return out[0].Total, nil
}

func (v *ViewSource) runPipeline(ctx context.Context, spec *query.ViewSpec, pipeline mongo.Pipeline) ([]model.Row, error) {
	cursor, err := v.store.sales.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", spec.Name, err)
	}
	defer cursor.Close(ctx)

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", spec.Name, err)
	}

	rows := make([]model.Row, 0, len(raw))
	for _, doc := range raw {
		row := make(model.Row, len(doc))
		for key, val := range doc {
			row[key] = normalizeValue(val)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// normalizeValue maps driver-native scalar types onto the engine's row value
// types so rows compare and serialize identically to the other adapters.
func normalizeValue(val any) any {
	switch v := val.(type) {
	case primitive.DateTime:
		return v.Time().UTC()
	case time.Time:
		return v.UTC()
	case int32:
		return int64(v)
	case int:
		return int64(v)
	default:
		return val
	}
}
