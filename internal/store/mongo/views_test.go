package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"salesync/internal/query"
)

func stageValue(t *testing.T, stage bson.D, op string) any {
	t.Helper()
	require.Len(t, stage, 1)
	require.Equal(t, op, stage[0].Key)
	return stage[0].Value
}

func TestBasePipelineProjectsDeclaredFields(t *testing.T) {
	for _, name := range query.ViewNames() {
		spec, err := query.View(name)
		require.NoError(t, err)

		pipeline, err := basePipeline(spec)
		require.NoError(t, err, "view %s", name)
		require.Len(t, pipeline, 2, "view %s", name)

		stageValue(t, pipeline[0], "$group")
		project := stageValue(t, pipeline[1], "$project").(bson.M)
		for _, f := range spec.Fields {
			assert.Contains(t, project, f.Name, "view %s", name)
		}
		assert.Equal(t, 0, project["_id"], "view %s", name)
	}
}

func TestBasePipelineUsesMinForNonAdditiveFields(t *testing.T) {
	spec, err := query.View(query.ViewSalesByProduct)
	require.NoError(t, err)
	pipeline, err := basePipeline(spec)
	require.NoError(t, err)

	group := stageValue(t, pipeline[0], "$group").(bson.M)
	assert.Equal(t, bson.M{"$min": "$unitPrice"}, group["UnitPrice"])

	spec, err = query.View(query.ViewInvoiceSummary)
	require.NoError(t, err)
	pipeline, err = basePipeline(spec)
	require.NoError(t, err)

	group = stageValue(t, pipeline[0], "$group").(bson.M)
	assert.Equal(t, bson.M{"$min": "$customerId"}, group["CustomerName"])
	assert.Equal(t, bson.M{"$min": "$countryName"}, group["CountryName"])
	assert.Equal(t, bson.M{"$min": "$invoiceDate"}, group["InvoiceDate"])
}

func TestBasePipelineRejectsUnknownView(t *testing.T) {
	_, err := basePipeline(&query.ViewSpec{Name: "sales-by-moon-phase"})
	var unknown *query.UnknownViewError
	assert.ErrorAs(t, err, &unknown)
}

func TestSortStageTieBreaksOnGroupKey(t *testing.T) {
	spec, err := query.View(query.ViewSalesTrend)
	require.NoError(t, err)

	keys := sortStage(spec, query.Options{SortField: "TotalSales", SortOrder: query.OrderDesc})
	assert.Equal(t, bson.D{
		{Key: "TotalSales", Value: -1},
		{Key: "Year", Value: 1},
		{Key: "Month", Value: 1},
	}, keys)

	keys = sortStage(spec, query.Options{SortField: "Year", SortOrder: query.OrderAsc})
	assert.Equal(t, bson.D{
		{Key: "Year", Value: 1},
		{Key: "Month", Value: 1},
	}, keys)
}

func TestPagePipelineAppendsSortSkipLimit(t *testing.T) {
	spec, err := query.View(query.ViewSalesByCountry)
	require.NoError(t, err)

	pipeline, err := pagePipeline(spec, query.Options{
		SortField:  "TotalSales",
		SortOrder:  query.OrderDesc,
		PageNumber: 3,
		PageSize:   10,
	})
	require.NoError(t, err)
	require.Len(t, pipeline, 5)
	assert.Equal(t, 20, stageValue(t, pipeline[3], "$skip"))
	assert.Equal(t, 10, stageValue(t, pipeline[4], "$limit"))
}

func TestCountPipelineCountsGroups(t *testing.T) {
	spec, err := query.View(query.ViewSalesByCountry)
	require.NoError(t, err)

	pipeline, err := countPipeline(spec)
	require.NoError(t, err)
	require.Len(t, pipeline, 3)
	assert.Equal(t, "total", stageValue(t, pipeline[2], "$count"))
}

func TestNormalizeValue(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, ts, normalizeValue(primitive.NewDateTimeFromTime(ts)))
	assert.Equal(t, int64(7), normalizeValue(int32(7)))
	assert.Equal(t, int64(7), normalizeValue(7))
	assert.Equal(t, 2.5, normalizeValue(2.5))
	assert.Equal(t, "UK", normalizeValue("UK"))
}
