package filterexpr

import (
	"strings"
	"testing"
	"time"
)

type request struct {
	filter  string
	orderBy string
}

func (r request) GetFilter() string  { return r.filter }
func (r request) GetOrderBy() string { return r.orderBy }

type cardParams struct {
	Known        *bool
	Reviewed     *bool
	FrontPrefix  *string
	Keyword      *string
	CategoryIDs  []string
	CreatedAfter *time.Time

	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

var cardSchema = ResourceSchema{
	Filter: map[string]FilterField{
		"is_known":    {Kind: KindBool, Ops: map[Op]string{OpEQ: "Known"}},
		"is_reviewed": {Kind: KindBool, Ops: map[Op]string{OpEQ: "Reviewed"}},
		"front":       {Kind: KindString, Ops: map[Op]string{OpSW: "FrontPrefix"}},
		"keyword":     {Kind: KindString, Ops: map[Op]string{OpEQ: "Keyword"}},
		"category_id": {Kind: KindString, Ops: map[Op]string{OpIN: "CategoryIDs"}},
		"created_at":  {Kind: KindTimestamp, Ops: map[Op]string{OpGTE: "CreatedAfter"}},
	},
	Order: OrderSchema{
		DefaultPrimary: "created_at",
		FallbackKey:    "id",
		Fields: map[string]OrderField{
			"created_at": {Expr: "created_at"},
			"front":      {Expr: "front"},
			"id":         {Expr: "id"},
		},
	},
}

func TestBindFlashcardFilter(t *testing.T) {
	var params cardParams
	req := request{
		filter: "is_known == false && front.startsWith('ho') && category_id in ['a', 'b'] && " +
			"keyword == 'cat' && created_at >= timestamp('2024-01-02T03:04:05Z')",
		orderBy: "front desc",
	}

	if err := Bind(req, &params, cardSchema); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}

	if params.Known == nil || *params.Known {
		t.Fatalf("expected Known=false, got %v", params.Known)
	}
	if params.Reviewed != nil {
		t.Fatalf("expected Reviewed unset, got %v", *params.Reviewed)
	}
	if params.FrontPrefix == nil || *params.FrontPrefix != "ho" {
		t.Fatalf("unexpected prefix %v", params.FrontPrefix)
	}
	if params.Keyword == nil || *params.Keyword != "cat" {
		t.Fatalf("unexpected keyword %v", params.Keyword)
	}
	if strings.Join(params.CategoryIDs, ",") != "a,b" {
		t.Fatalf("unexpected category ids %v", params.CategoryIDs)
	}
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if params.CreatedAfter == nil || !params.CreatedAfter.Equal(want) {
		t.Fatalf("unexpected created_at bound %v", params.CreatedAfter)
	}
	if params.PrimaryKey != "front" || !params.PrimaryDesc || params.SecondaryKey != "id" || params.SecondaryDesc {
		t.Fatalf("unexpected ordering %+v", params)
	}
}

func TestBindEmptyInputUsesDefaults(t *testing.T) {
	var params cardParams
	if err := Bind(request{}, &params, cardSchema); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	if params.Known != nil || params.CategoryIDs != nil {
		t.Fatalf("expected no filters, got %+v", params)
	}
	if params.PrimaryKey != "created_at" || params.SecondaryKey != "id" {
		t.Fatalf("unexpected default ordering %+v", params)
	}
}

func TestBindRejectsUnsupportedFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   string
	}{
		{name: "or", filter: "is_known == true || is_reviewed == true", want: "only && is allowed"},
		{name: "not", filter: "!(is_known == true)", want: "not supported"},
		{name: "unknown field", filter: "owner == 'x'", want: "is not allowed"},
		{name: "operator not allowed", filter: "keyword.startsWith('x')", want: "not allowed"},
		{name: "wrong literal", filter: "is_known == 'yes'", want: "expected true or false"},
		{name: "empty list", filter: "category_id in []", want: "non-empty list"},
		{name: "bare identifier", filter: "is_known", want: "expected a comparison"},
		{name: "syntax", filter: "is_known ==", want: "invalid filter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var params cardParams
			err := Bind(request{filter: tt.filter}, &params, cardSchema)
			if err == nil {
				t.Fatalf("expected error for %q", tt.filter)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParseOrderBy(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Ordering
		wantErr bool
	}{
		{name: "default", raw: "", want: Ordering{PrimaryKey: "created_at", SecondaryKey: "id"}},
		{name: "two keys", raw: "front asc, created_at DESC", want: Ordering{PrimaryKey: "front", SecondaryKey: "created_at", SecondaryDesc: true}},
		{name: "fallback as primary", raw: "id desc", want: Ordering{PrimaryKey: "id", PrimaryDesc: true, SecondaryKey: "created_at"}},
		{name: "unknown key", raw: "back", wantErr: true},
		{name: "bad direction", raw: "front up", wantErr: true},
		{name: "duplicate", raw: "front, front desc", wantErr: true},
		{name: "three keys", raw: "front, id, created_at", wantErr: true},
		{name: "junk segment", raw: "front asc extra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOrderBy(tt.raw, cardSchema.Order)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOrderBy: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseOrderBy = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBindRequiresOrderFields(t *testing.T) {
	var params struct{ Known *bool }
	err := Bind(request{filter: "is_known == true"}, &params, cardSchema)
	if err == nil || !strings.Contains(err.Error(), "no settable field") {
		t.Fatalf("expected missing order field error, got %v", err)
	}
}
