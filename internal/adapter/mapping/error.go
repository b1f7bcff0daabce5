package mapping

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/eslsoft/flashnet/internal/entity"
)

// ReasonHeader carries the domain reason of an error across transports.
const ReasonHeader = "Flashnet-Error-Reason"

// reasons names the sentinels a client must be able to tell apart.
var reasons = []struct {
	name string
	err  error
}{
	{"category_not_found", entity.ErrCategoryNotFound},
	{"invalid_category_id", entity.ErrInvalidCategoryID},
	{"invalid_category_name", entity.ErrInvalidCategoryName},
	{"duplicate_category", entity.ErrDuplicateCategory},
	{"flashcard_not_found", entity.ErrFlashcardNotFound},
	{"invalid_flashcard_id", entity.ErrInvalidFlashcardID},
	{"invalid_flashcard_text", entity.ErrInvalidFlashcardText},
	{"empty_patch", entity.ErrEmptyPatch},
	{"invalid_user_id", entity.ErrInvalidUserID},
	{"session_not_found", entity.ErrSessionNotFound},
	{"session_not_loaded", entity.ErrSessionNotLoaded},
	{"session_complete", entity.ErrSessionComplete},
	{"card_not_flipped", entity.ErrCardNotFlipped},
}

// Code classifies err as a gRPC status code.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, entity.ErrNotAuthenticated):
		return codes.Unauthenticated
	case errors.Is(err, entity.ErrCategoryNotFound),
		errors.Is(err, entity.ErrFlashcardNotFound),
		errors.Is(err, entity.ErrSessionNotFound):
		return codes.NotFound
	case errors.Is(err, entity.ErrDuplicateCategory):
		return codes.AlreadyExists
	case errors.Is(err, entity.ErrSessionNotLoaded),
		errors.Is(err, entity.ErrSessionComplete),
		errors.Is(err, entity.ErrCardNotFlipped):
		return codes.FailedPrecondition
	case errors.Is(err, entity.ErrInvalidCategoryID),
		errors.Is(err, entity.ErrInvalidCategoryName),
		errors.Is(err, entity.ErrInvalidFlashcardID),
		errors.Is(err, entity.ErrInvalidFlashcardText),
		errors.Is(err, entity.ErrEmptyPatch),
		errors.Is(err, entity.ErrInvalidUserID),
		errors.Is(err, entity.ErrValidationRejected):
		return codes.InvalidArgument
	case errors.Is(err, entity.ErrNetwork):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// ToStatus converts err to a gRPC status error.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	return status.Error(Code(err), err.Error())
}

// HTTPStatus returns the HTTP status grpc-gateway would use for err.
func HTTPStatus(err error) int {
	return runtime.HTTPStatusFromCode(Code(err))
}

// ToConnectError converts err to a connect error, keeping the domain
// reason in the error metadata. connect codes share gRPC's numbering.
func ToConnectError(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return ce
	}
	ce = connect.NewError(connect.Code(Code(err)), err)
	if reason := Reason(err); reason != "" {
		ce.Meta().Set(ReasonHeader, reason)
	}
	return ce
}

// FromConnectError rebuilds a domain error from a connect error returned to
// a client.
func FromConnectError(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if !errors.As(err, &ce) {
		return err
	}
	return FromCode(codes.Code(ce.Code()), ce.Meta().Get(ReasonHeader), ce.Message())
}

// Reason returns the wire name of the first domain sentinel err matches.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.name
		}
	}
	return ""
}

// ReasonError returns the sentinel named by reason, or nil.
func ReasonError(reason string) error {
	for _, r := range reasons {
		if r.name == reason {
			return r.err
		}
	}
	return nil
}

// FromCode rebuilds an error from a code, an optional reason and a message.
// Known reasons come back as their sentinel so errors.Is keeps working.
func FromCode(code codes.Code, reason, message string) error {
	if sentinel := ReasonError(reason); sentinel != nil {
		if message == "" || message == sentinel.Error() {
			return sentinel
		}
		return fmt.Errorf("%w: %s", sentinel, message)
	}

	switch code {
	case codes.OK:
		return nil
	case codes.Unauthenticated, codes.PermissionDenied:
		return entity.NewStoreError("", entity.ErrNotAuthenticated, message, nil)
	case codes.InvalidArgument, codes.AlreadyExists, codes.FailedPrecondition, codes.NotFound:
		return entity.NewStoreError("", entity.ErrValidationRejected, message, nil)
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return entity.NewStoreError("", entity.ErrNetwork, message, nil)
	default:
		return entity.NewStoreError("", entity.ErrUnknown, message, nil)
	}
}
