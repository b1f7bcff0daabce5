package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/flashnet/internal/adapter/mapping"
	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 10000
	maxBodyBytes    = 1 << 20
)

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

// ListResponse wraps one page of a list.
type ListResponse[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	PageNo   int32 `json:"page_no"`
	PageSize int32 `json:"page_size"`
}

// CountResponse reports how many rows a bulk call touched.
type CountResponse struct {
	Count int64 `json:"count"`
}

// NewErrorBody classifies err for the wire.
func NewErrorBody(err error) ErrorBody {
	return ErrorBody{
		Code:    mapping.Code(err).String(),
		Kind:    entity.KindName(entity.KindOf(err)),
		Reason:  mapping.Reason(err),
		Message: err.Error(),
	}
}

// WriteError writes err with the HTTP status of its gRPC code.
func WriteError(w http.ResponseWriter, err error) {
	status := mapping.HTTPStatus(err)
	if reason := mapping.Reason(err); reason != "" {
		w.Header().Set(mapping.ReasonHeader, reason)
	}
	writeJSON(w, status, NewErrorBody(err))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Warn("write response body")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return entity.NewStoreError("decode body", entity.ErrValidationRejected, "request body required", err)
		}
		return entity.NewStoreError("decode body", entity.ErrValidationRejected, err.Error(), err)
	}
	return nil
}

func principal(r *http.Request) (entity.Principal, error) {
	p, ok := entity.PrincipalFrom(r.Context())
	if !ok {
		return entity.Principal{}, entity.ErrNotAuthenticated
	}
	return p, nil
}

func parsePagination(r *http.Request) (repository.Pagination, error) {
	q := r.URL.Query()
	pageNo, err := queryInt(q.Get("page_no"), 1)
	if err != nil {
		return repository.Pagination{}, err
	}
	pageSize, err := queryInt(q.Get("page_size"), defaultPageSize)
	if err != nil {
		return repository.Pagination{}, err
	}
	if pageNo <= 0 {
		pageNo = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return repository.Pagination{PageNo: pageNo, PageSize: pageSize}, nil
}

func parseFilterOrder(r *http.Request) repository.FilterOrder {
	q := r.URL.Query()
	return repository.FilterOrder{
		Filter:  strings.TrimSpace(q.Get("filter")),
		OrderBy: strings.TrimSpace(q.Get("order_by")),
	}
}

func queryInt(raw string, fallback int32) (int32, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, entity.NewStoreError("parse query", entity.ErrValidationRejected, "invalid integer "+strconv.Quote(raw), err)
	}
	return int32(v), nil
}
