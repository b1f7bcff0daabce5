package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/flashnet/internal/adapter/mapping"
	"github.com/eslsoft/flashnet/internal/infrastructure/config"
)

// ConnectLogger logs every unary call once it completes.
func ConnectLogger(logger logrus.FieldLogger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			code := connect.CodeOf(err)
			fields := logrus.Fields{
				"procedure": req.Spec().Procedure,
				"status":    code.String(),
				"duration":  time.Since(start).String(),
			}
			if err == nil {
				fields["status"] = "ok"
			}
			addField(fields, "peer_addr", req.Peer().Addr)
			addField(fields, "protocol", req.Peer().Protocol)
			addField(fields, "user_agent", req.Header().Get("User-Agent"))
			addField(fields, "request_id", req.Header().Get("X-Request-Id"))
			addField(fields, "client_ip", firstForwardedFor(req.Header()))

			var ce *connect.Error
			if errors.As(err, &ce) {
				addField(fields, "reason", ce.Meta().Get(mapping.ReasonHeader))
			}

			entry := logger.WithFields(fields)
			if err != nil {
				entry = entry.WithError(err)
			}
			entry.Log(rpcLevel(code, err), "request completed")
			return resp, err
		}
	}
}

// rpcLevel logs caller mistakes as warnings and everything else as errors.
func rpcLevel(code connect.Code, err error) logrus.Level {
	if err == nil {
		return logrus.InfoLevel
	}
	switch code {
	case connect.CodeInvalidArgument, connect.CodeFailedPrecondition, connect.CodeNotFound,
		connect.CodeAlreadyExists, connect.CodePermissionDenied, connect.CodeUnauthenticated,
		connect.CodeCanceled:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}

// AccessLog logs one line per HTTP request.
func AccessLog(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			fields := logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"bytes":    rec.bytes,
				"duration": time.Since(start).String(),
			}
			addField(fields, "remote_addr", r.RemoteAddr)
			addField(fields, "client_ip", firstForwardedFor(r.Header))
			addField(fields, "request_id", r.Header.Get("X-Request-Id"))
			addField(fields, "reason", rec.Header().Get(mapping.ReasonHeader))

			logger.WithFields(fields).Log(httpLevel(rec.status), "http request")
		})
	}
}

func httpLevel(status int) logrus.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return logrus.ErrorLevel
	case status >= http.StatusBadRequest:
		return logrus.WarnLevel
	default:
		return logrus.DebugLevel
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func addField(fields logrus.Fields, key, value string) {
	if value == "" {
		return
	}
	fields[key] = value
}

func firstForwardedFor(header http.Header) string {
	forwarded := header.Get("X-Forwarded-For")
	if forwarded == "" {
		return ""
	}
	for _, part := range strings.Split(forwarded, ",") {
		if candidate := strings.TrimSpace(part); candidate != "" {
			return candidate
		}
	}
	return ""
}

// NewLogger builds a configured logrus logger from application config.
func NewLogger(cfg *config.Config) (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}
