package connectrpc

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/eslsoft/flashnet/internal/adapter/mapping"
)

// LearningClient drives a server-hosted session.
type LearningClient struct {
	start       *connect.Client[StartSessionRequest, SessionView]
	get         *connect.Client[SessionRequest, SessionView]
	turn        *connect.Client[SessionRequest, SessionView]
	shuffle     *connect.Client[SessionRequest, SessionView]
	markKnown   *connect.Client[SessionRequest, SessionView]
	markUnknown *connect.Client[SessionRequest, SessionView]
	resetSet    *connect.Client[SessionRequest, SessionView]
	end         *connect.Client[SessionRequest, EndSessionResponse]
}

// NewLearningClient returns a client for the server at baseURL. A non-empty
// token is sent as a bearer token on every call.
func NewLearningClient(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *LearningClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	if token != "" {
		opts = append(opts, connect.WithInterceptors(bearer(token)))
	}
	return &LearningClient{
		start:       connect.NewClient[StartSessionRequest, SessionView](httpClient, baseURL+LearningServiceStartSessionProcedure, opts...),
		get:         connect.NewClient[SessionRequest, SessionView](httpClient, baseURL+LearningServiceGetSessionProcedure, opts...),
		turn:        connect.NewClient[SessionRequest, SessionView](httpClient, baseURL+LearningServiceTurnProcedure, opts...),
		shuffle:     connect.NewClient[SessionRequest, SessionView](httpClient, baseURL+LearningServiceShuffleProcedure, opts...),
		markKnown:   connect.NewClient[SessionRequest, SessionView](httpClient, baseURL+LearningServiceMarkKnownProcedure, opts...),
		markUnknown: connect.NewClient[SessionRequest, SessionView](httpClient, baseURL+LearningServiceMarkUnknownProcedure, opts...),
		resetSet:    connect.NewClient[SessionRequest, SessionView](httpClient, baseURL+LearningServiceResetSetProcedure, opts...),
		end:         connect.NewClient[SessionRequest, EndSessionResponse](httpClient, baseURL+LearningServiceEndSessionProcedure, opts...),
	}
}

func (c *LearningClient) StartSession(ctx context.Context, categoryID string) (*SessionView, error) {
	resp, err := c.start.CallUnary(ctx, connect.NewRequest(&StartSessionRequest{CategoryID: categoryID}))
	if err != nil {
		return nil, mapping.FromConnectError(err)
	}
	return resp.Msg, nil
}

func (c *LearningClient) GetSession(ctx context.Context, sessionID string) (*SessionView, error) {
	return call(ctx, c.get, sessionID)
}

func (c *LearningClient) Turn(ctx context.Context, sessionID string) (*SessionView, error) {
	return call(ctx, c.turn, sessionID)
}

func (c *LearningClient) Shuffle(ctx context.Context, sessionID string) (*SessionView, error) {
	return call(ctx, c.shuffle, sessionID)
}

func (c *LearningClient) MarkKnown(ctx context.Context, sessionID string) (*SessionView, error) {
	return call(ctx, c.markKnown, sessionID)
}

func (c *LearningClient) MarkUnknown(ctx context.Context, sessionID string) (*SessionView, error) {
	return call(ctx, c.markUnknown, sessionID)
}

func (c *LearningClient) ResetSet(ctx context.Context, sessionID string) (*SessionView, error) {
	return call(ctx, c.resetSet, sessionID)
}

func (c *LearningClient) EndSession(ctx context.Context, sessionID string) error {
	if _, err := c.end.CallUnary(ctx, connect.NewRequest(&SessionRequest{SessionID: sessionID})); err != nil {
		return mapping.FromConnectError(err)
	}
	return nil
}

func call(ctx context.Context, client *connect.Client[SessionRequest, SessionView], sessionID string) (*SessionView, error) {
	resp, err := client.CallUnary(ctx, connect.NewRequest(&SessionRequest{SessionID: sessionID}))
	if err != nil {
		return nil, mapping.FromConnectError(err)
	}
	return resp.Msg, nil
}

func bearer(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	}
}
