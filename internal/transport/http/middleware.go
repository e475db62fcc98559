// Copyright 2026 The Timesheet Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/anand1357/timesheet-multitenant-backend/internal/observability/logger"
	"github.com/anand1357/timesheet-multitenant-backend/internal/requestctx"
)

// LoggingMiddleware logs HTTP requests. Tenant and user are added once the
// request context middleware has run further down the chain.
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			var rc requestctx.RequestContext
			var resolved bool
			r = r.WithContext(withCapture(r.Context(), func(c requestctx.RequestContext) {
				rc, resolved = c, true
			}))

			defer func() {
				attrs := []slog.Attr{
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(clientIP(r)),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				}
				if resolved {
					attrs = append(attrs,
						logger.TenantID(rc.TenantID().String()),
						logger.UserID(rc.UserID().String()),
						logger.Role(string(rc.Role())),
					)
				}
				level := slog.LevelInfo
				if ww.Status() >= http.StatusInternalServerError {
					level = slog.LevelError
				}
				slog.LogAttrs(r.Context(), level, "http_request", attrs...)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
