package repository

import (
	"math"
	"testing"
)

func TestPaginationOffset(t *testing.T) {
	cases := []struct {
		page Pagination
		want int64
	}{
		{Pagination{}, 0},
		{Pagination{PageNo: 1, PageSize: 20}, 0},
		{Pagination{PageNo: 3, PageSize: 20}, 40},
		{Pagination{PageNo: 5, PageSize: 0}, 0},
		{Pagination{PageNo: 300000, PageSize: 10000}, 2999990000},
		{Pagination{PageNo: math.MaxInt32, PageSize: math.MaxInt32}, int64(math.MaxInt32-1) * math.MaxInt32},
	}
	for _, tc := range cases {
		if got := tc.page.Offset(); got != tc.want {
			t.Errorf("%+v.Offset() = %d, want %d", tc.page, got, tc.want)
		}
	}
}
