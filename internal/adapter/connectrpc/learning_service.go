// Package connectrpc serves hosted learning sessions as connect unary RPCs.
package connectrpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/eslsoft/flashnet/internal/adapter/mapping"
	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/usecase/learning"
)

// SessionHost is the part of learning.Manager the service needs.
type SessionHost interface {
	Start(ctx context.Context, principal entity.Principal, categoryID string) (string, learning.View, error)
	Get(ctx context.Context, principal entity.Principal, id string) (learning.View, error)
	Turn(ctx context.Context, principal entity.Principal, id string) (learning.View, error)
	Shuffle(ctx context.Context, principal entity.Principal, id string) (learning.View, error)
	MarkKnown(ctx context.Context, principal entity.Principal, id string) (learning.View, error)
	MarkUnknown(ctx context.Context, principal entity.Principal, id string) (learning.View, error)
	ResetSet(ctx context.Context, principal entity.Principal, id string) (learning.View, error)
	End(ctx context.Context, principal entity.Principal, id string) error
}

var _ SessionHost = (*learning.Manager)(nil)

// LearningServiceServer adapts a SessionHost to connect.
type LearningServiceServer struct {
	host SessionHost
}

func NewLearningServiceServer(host SessionHost) *LearningServiceServer {
	return &LearningServiceServer{host: host}
}

func (s *LearningServiceServer) StartSession(ctx context.Context, req *connect.Request[StartSessionRequest]) (*connect.Response[SessionView], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg == nil || strings.TrimSpace(req.Msg.CategoryID) == "" {
		return nil, mapping.ToConnectError(entity.ErrInvalidCategoryID)
	}
	id, view, err := s.host.Start(ctx, p, req.Msg.CategoryID)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	return connect.NewResponse(&SessionView{SessionID: id, View: view}), nil
}

func (s *LearningServiceServer) GetSession(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[SessionView], error) {
	return s.step(ctx, req, s.host.Get)
}

func (s *LearningServiceServer) Turn(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[SessionView], error) {
	return s.step(ctx, req, s.host.Turn)
}

func (s *LearningServiceServer) Shuffle(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[SessionView], error) {
	return s.step(ctx, req, s.host.Shuffle)
}

func (s *LearningServiceServer) MarkKnown(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[SessionView], error) {
	return s.step(ctx, req, s.host.MarkKnown)
}

func (s *LearningServiceServer) MarkUnknown(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[SessionView], error) {
	return s.step(ctx, req, s.host.MarkUnknown)
}

func (s *LearningServiceServer) ResetSet(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[SessionView], error) {
	return s.step(ctx, req, s.host.ResetSet)
}

func (s *LearningServiceServer) EndSession(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[EndSessionResponse], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	id, err := sessionID(req)
	if err != nil {
		return nil, err
	}
	if err := s.host.End(ctx, p, id); err != nil {
		return nil, mapping.ToConnectError(err)
	}
	return connect.NewResponse(&EndSessionResponse{}), nil
}

type sessionCall func(ctx context.Context, principal entity.Principal, id string) (learning.View, error)

func (s *LearningServiceServer) step(ctx context.Context, req *connect.Request[SessionRequest], call sessionCall) (*connect.Response[SessionView], error) {
	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	id, err := sessionID(req)
	if err != nil {
		return nil, err
	}
	view, err := call(ctx, p, id)
	if err != nil {
		return nil, mapping.ToConnectError(err)
	}
	return connect.NewResponse(&SessionView{SessionID: id, View: view}), nil
}

func principal(ctx context.Context) (entity.Principal, error) {
	p, ok := entity.PrincipalFrom(ctx)
	if !ok {
		return entity.Principal{}, mapping.ToConnectError(entity.ErrNotAuthenticated)
	}
	return p, nil
}

func sessionID(req *connect.Request[SessionRequest]) (string, error) {
	if req.Msg == nil || strings.TrimSpace(req.Msg.SessionID) == "" {
		return "", mapping.ToConnectError(entity.ErrSessionNotFound)
	}
	return strings.TrimSpace(req.Msg.SessionID), nil
}

// NewLearningServiceHandler builds an HTTP handler serving every
// LearningService procedure, and returns the path to mount it on.
func NewLearningServiceHandler(svc *LearningServiceServer, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	handlers := map[string]http.Handler{
		LearningServiceStartSessionProcedure: connect.NewUnaryHandler(LearningServiceStartSessionProcedure, svc.StartSession, opts...),
		LearningServiceGetSessionProcedure:   connect.NewUnaryHandler(LearningServiceGetSessionProcedure, svc.GetSession, opts...),
		LearningServiceTurnProcedure:         connect.NewUnaryHandler(LearningServiceTurnProcedure, svc.Turn, opts...),
		LearningServiceShuffleProcedure:      connect.NewUnaryHandler(LearningServiceShuffleProcedure, svc.Shuffle, opts...),
		LearningServiceMarkKnownProcedure:    connect.NewUnaryHandler(LearningServiceMarkKnownProcedure, svc.MarkKnown, opts...),
		LearningServiceMarkUnknownProcedure:  connect.NewUnaryHandler(LearningServiceMarkUnknownProcedure, svc.MarkUnknown, opts...),
		LearningServiceResetSetProcedure:     connect.NewUnaryHandler(LearningServiceResetSetProcedure, svc.ResetSet, opts...),
		LearningServiceEndSessionProcedure:   connect.NewUnaryHandler(LearningServiceEndSessionProcedure, svc.EndSession, opts...),
	}

	return "/" + LearningServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
