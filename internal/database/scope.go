package database

import (
	"context"
	"net/http"

	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-user-api/internal/httputil"
	"github.com/redmonkez12/go-user-api/internal/logging"
)

type connKey struct{}

// ScopedConn acquires a dedicated connection from the pool before the
// handler runs and returns it once the handler is done, whichever way it
// exits. Repositories pick the connection up through IDB.
func ScopedConn(db *bun.DB) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := db.Conn(r.Context())
			if err != nil {
				logging.GetLoggerFromContext(r.Context()).Error("failed to acquire database connection", "error", err.Error())
				httputil.RespondErrorWithCode(w, "database unavailable", httputil.CodeInternalError, http.StatusServiceUnavailable)
				return
			}
			defer conn.Close()

			next.ServeHTTP(w, r.WithContext(WithConn(r.Context(), &conn)))
		})
	}
}

// WithConn returns a context carrying conn for IDB to find.
func WithConn(ctx context.Context, conn *bun.Conn) context.Context {
	return context.WithValue(ctx, connKey{}, conn)
}

// IDB returns the request-scoped connection when there is one, otherwise fallback.
func IDB(ctx context.Context, fallback bun.IDB) bun.IDB {
	if conn, ok := ctx.Value(connKey{}).(*bun.Conn); ok {
		return conn
	}
	return fallback
}
