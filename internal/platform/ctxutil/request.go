package ctxutil

import "context"

type requestDataKey struct{}

// RequestData is the verified caller identity, set by the auth middleware.
type RequestData struct {
	Email    string
	Username string
	Subject  string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// CallerEmail returns the verified caller email, or "" when the request is anonymous.
func CallerEmail(ctx context.Context) string {
	if rd := GetRequestData(ctx); rd != nil {
		return rd.Email
	}
	return ""
}
