// Package privacyheaders observes privacy-relevant request headers and
// records them in the audit trail for compliance review.
package privacyheaders

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mssola/useragent"

	"ucm/internal/audit"
	"ucm/internal/gpc"
)

// Observer emits a privacy_headers audit event per request. Recording is
// best-effort and never blocks or fails the request being observed.
type Observer struct {
	publisher *audit.Publisher
	logger    *slog.Logger
}

func NewObserver(publisher *audit.Publisher, logger *slog.Logger) *Observer {
	return &Observer{publisher: publisher, logger: logger}
}

type headerSnapshot struct {
	GPC      bool   `json:"gpc"`
	DNT      string `json:"dnt,omitempty"`
	Browser  string `json:"browser,omitempty"`
	OS       string `json:"os,omitempty"`
	Mobile   bool   `json:"mobile"`
	Platform string `json:"platform,omitempty"`
}

// Handler records the privacy-relevant headers of the request, then serves it.
func (o *Observer) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snapshot := headerSnapshot{
			GPC: gpc.FromHeader(r.Header.Get(gpc.HeaderName)),
			DNT: r.Header.Get("DNT"),
		}
		if ua := r.Header.Get("User-Agent"); ua != "" {
			parsed := useragent.New(ua)
			browser, version := parsed.Browser()
			if version != "" {
				browser += "/" + version
			}
			snapshot.Browser = browser
			snapshot.OS = parsed.OS()
			snapshot.Mobile = parsed.Mobile()
			snapshot.Platform = parsed.Platform()
		}

		details, err := json.Marshal(snapshot)
		if err != nil {
			o.logger.Warn("privacy header snapshot marshal failed", "error", err)
		} else {
			o.publisher.Emit(r.Context(), audit.Event{
				Type:    audit.TypePrivacyHeaders,
				Site:    r.Host,
				Details: string(details),
			})
		}

		next.ServeHTTP(w, r)
	})
}
