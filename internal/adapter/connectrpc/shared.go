package connectrpc

import (
	"github.com/eslsoft/flashnet/internal/usecase/learning"
)

// LearningServiceName is the fully-qualified name of the session service.
const LearningServiceName = "flashnet.learning.v1.LearningService"

// Procedure paths of LearningService.
const (
	LearningServiceStartSessionProcedure = "/" + LearningServiceName + "/StartSession"
	LearningServiceGetSessionProcedure   = "/" + LearningServiceName + "/GetSession"
	LearningServiceTurnProcedure         = "/" + LearningServiceName + "/Turn"
	LearningServiceShuffleProcedure      = "/" + LearningServiceName + "/Shuffle"
	LearningServiceMarkKnownProcedure    = "/" + LearningServiceName + "/MarkKnown"
	LearningServiceMarkUnknownProcedure  = "/" + LearningServiceName + "/MarkUnknown"
	LearningServiceResetSetProcedure     = "/" + LearningServiceName + "/ResetSet"
	LearningServiceEndSessionProcedure   = "/" + LearningServiceName + "/EndSession"
)

// StartSessionRequest opens a session over one category.
type StartSessionRequest struct {
	CategoryID string `json:"category_id"`
}

// SessionRequest addresses an existing session.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

// SessionView is the state of a session after a call.
type SessionView struct {
	SessionID string        `json:"session_id"`
	View      learning.View `json:"view"`
}

// EndSessionResponse is returned by EndSession.
type EndSessionResponse struct{}
