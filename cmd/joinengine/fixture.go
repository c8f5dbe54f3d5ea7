package main

import (
	"github.com/coldb/joinengine/colpage"
)

// i32ptr and strptr let the fixture builder express nulls as nil
// pointers without every literal needing a named variable.
func i32ptr(v int32) *int32   { return &v }
func strptr(v string) *string { return &v }

// buildFixtureCatalog assembles the two-table demo catalog the run
// command executes its plan against: a customers table (id, name) and
// an orders table (customer_id, amount_cents) with a few rows that
// don't match any customer, exercising the inner-join-drops-unmatched
// case alongside the fan-out case.
func buildFixtureCatalog() *colpage.Catalog {
	customers := colpage.NewTableBuilder().
		AddI32Column([]*int32{i32ptr(1), i32ptr(2), i32ptr(3), nil}).
		AddVarcharColumn([]*string{strptr("alice"), strptr("bob"), strptr("carol"), strptr("nobody")}).
		Build()

	orders := colpage.NewTableBuilder().
		AddI32Column([]*int32{i32ptr(1), i32ptr(1), i32ptr(2), i32ptr(99)}).
		AddI32Column([]*int32{i32ptr(500), i32ptr(125), i32ptr(900), i32ptr(1)}).
		Build()

	return &colpage.Catalog{Tables: []colpage.Table{customers, orders}}
}
