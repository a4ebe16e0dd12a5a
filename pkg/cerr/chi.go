package cerr

import (
	"context"
	"net/http"
)

type responseReceiverKey struct{}

// responseReceiver collects the handler's outcome so the middleware can
// serialize exactly one of a JSON body or a coded error.
type responseReceiver struct {
	response any
	status   int
	err      error
}

func contextWithResponseReceiver(ctx context.Context, rr *responseReceiver) context.Context {
	return context.WithValue(ctx, responseReceiverKey{}, rr)
}

func responseReceiverFromContext(ctx context.Context) *responseReceiver {
	if rr, ok := ctx.Value(responseReceiverKey{}).(*responseReceiver); ok {
		return rr
	}
	return nil
}

// SetJSONResponse registers response to be written as a 200 JSON body.
func SetJSONResponse(ctx context.Context, response any) {
	SetJSONResponseStatus(ctx, response, http.StatusOK)
}

// SetJSONResponseStatus registers response with an explicit status.
// A nil response writes the status with an empty body.
func SetJSONResponseStatus(ctx context.Context, response any, status int) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.response = response
		rr.status = status
	}
}

func SetJSONError(ctx context.Context, err error) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.err = err
	}
}

func SetNewJSONError(ctx context.Context, code Code, msg string, err error) {
	SetJSONError(ctx, NewError(code, msg, err))
}

// NewJSONResponseChiMiddleware installs a response receiver in the
// request context and writes whatever the handler registered once the
// handler returns.
func NewJSONResponseChiMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rr := &responseReceiver{}
			ctx := contextWithResponseReceiver(r.Context(), rr)
			next.ServeHTTP(rw, r.WithContext(ctx))
			ExtractToHTTPResponse(ctx, rw, rr)
		})
	}
}
