package repository

import (
	"time"

	"github.com/eslsoft/flashnet/pkg/filterexpr"
)

type listFlashcardParams struct {
	Known         *bool
	Reviewed      *bool
	FrontPrefix   *string
	Keyword       *string
	CategoryIDs   []string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time

	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

var listFlashcardsSchema = filterexpr.ResourceSchema{
	Filter: map[string]filterexpr.FilterField{
		"is_known": {
			Kind: filterexpr.KindBool,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "Known"},
		},
		"is_reviewed": {
			Kind: filterexpr.KindBool,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "Reviewed"},
		},
		"front": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpSW: "FrontPrefix"},
		},
		"keyword": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "Keyword"},
		},
		"category_id": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpIN: "CategoryIDs"},
		},
		"created_at": {
			Kind: filterexpr.KindTimestamp,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpGTE: "CreatedAfter",
				filterexpr.OpLTE: "CreatedBefore",
			},
		},
	},
	Order: filterexpr.OrderSchema{
		DefaultPrimary: "created_at",
		FallbackKey:    "id",
		Fields: map[string]filterexpr.OrderField{
			"created_at": {Expr: "created_at"},
			"updated_at": {Expr: "updated_at"},
			"front":      {Expr: "front"},
			"id":         {Expr: "id"},
		},
	},
}

type listCategoryParams struct {
	Name       *string
	NamePrefix *string
	Keyword    *string

	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

var listCategoriesSchema = filterexpr.ResourceSchema{
	Filter: map[string]filterexpr.FilterField{
		"name": {
			Kind: filterexpr.KindString,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpEQ: "Name",
				filterexpr.OpSW: "NamePrefix",
			},
		},
		"keyword": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "Keyword"},
		},
	},
	Order: filterexpr.OrderSchema{
		DefaultPrimary: "created_at",
		FallbackKey:    "id",
		Fields: map[string]filterexpr.OrderField{
			"created_at": {Expr: "created_at"},
			"name":       {Expr: "name"},
			"id":         {Expr: "id"},
		},
	},
}
