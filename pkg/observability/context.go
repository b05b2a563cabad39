package observability

import (
	"context"

	"github.com/linkai/console/pkg/contextkeys"
)

func requestIDFromContext(ctx context.Context) string {
	return contextkeys.GetRequestID(ctx)
}

func userIDFromContext(ctx context.Context) string {
	return contextkeys.GetUserID(ctx)
}

func siteIDFromContext(ctx context.Context) string {
	return contextkeys.GetSiteID(ctx)
}
