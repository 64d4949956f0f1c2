package httpapi

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"

	"golang.org/x/time/rate"

	"pricelink.org/internal/auth"
	"pricelink.org/internal/catalog"
	"pricelink.org/internal/config"
	"pricelink.org/internal/link"
	"pricelink.org/internal/mail"
	"pricelink.org/internal/obs"
)

// SessionService is the slice of the session layer the HTTP surface needs.
type SessionService interface {
	Login(ctx context.Context, email, password string) (auth.TokenPair, auth.Principal, error)
	Verify(ctx context.Context, token string, kind auth.Kind) (auth.Principal, error)
	Refresh(ctx context.Context, token string) (auth.TokenPair, auth.Principal, error)
}

// BlobOpener reads stored file payloads back for streaming.
type BlobOpener interface {
	Open(relPath string) (io.ReadCloser, int64, error)
}

// API wires the portal services to HTTP routes.
type API struct {
	cfg      config.Config
	sessions SessionService
	catalog  *catalog.Service
	links    *link.Service
	blobs    BlobOpener
	mailer   mail.Sender
	limiter  *ipLimiter

	readyFlag atomic.Bool
}

func New(cfg config.Config, sessions SessionService, cat *catalog.Service, links *link.Service, blobs BlobOpener, mailer mail.Sender) *API {
	return &API{
		cfg:      cfg,
		sessions: sessions,
		catalog:  cat,
		links:    links,
		blobs:    blobs,
		mailer:   mailer,
		limiter:  newIPLimiter(rate.Limit(20), 40),
	}
}

// Handler builds the full route table with the shared middleware chain.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.HandleFunc("GET /readyz", a.handleReady)
	mux.Handle("GET /metrics", obs.Handler())

	mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", a.handleRefresh)
	mux.HandleFunc("GET /api/auth/me", a.authenticated(a.handleMe))

	mux.HandleFunc("GET /api/dealers", a.admin(a.handleListDealers))
	mux.HandleFunc("POST /api/dealers", a.admin(a.handleCreateDealer))
	mux.HandleFunc("GET /api/dealers/{id}", a.admin(a.handleGetDealer))
	mux.HandleFunc("PUT /api/dealers/{id}", a.admin(a.handleUpdateDealer))
	mux.HandleFunc("DELETE /api/dealers/{id}", a.admin(a.handleDeleteDealer))
	mux.HandleFunc("GET /api/dealers/{id}/vendors", a.admin(a.handleDealerVendors))
	mux.HandleFunc("POST /api/dealers/{id}/vendors", a.admin(a.handleAssignVendor))
	mux.HandleFunc("DELETE /api/dealers/{id}/vendors/{vendorID}", a.admin(a.handleRemoveVendor))

	mux.HandleFunc("GET /api/vendors", a.authenticated(a.handleListVendors))
	mux.HandleFunc("POST /api/vendors", a.admin(a.handleCreateVendor))
	mux.HandleFunc("GET /api/vendors/{id}", a.authenticated(a.handleGetVendor))
	mux.HandleFunc("PUT /api/vendors/{id}", a.admin(a.handleUpdateVendor))
	mux.HandleFunc("DELETE /api/vendors/{id}", a.admin(a.handleDeleteVendor))

	mux.HandleFunc("GET /api/files", a.authenticated(a.handleListFiles))
	mux.HandleFunc("GET /api/files/{id}", a.authenticated(a.handleGetFile))
	mux.HandleFunc("POST /api/files", a.admin(a.handleUploadFile))
	mux.HandleFunc("POST /api/files/upload-utility", a.partner(a.handlePartnerUploadFile))
	mux.HandleFunc("DELETE /api/files/{id}", a.admin(a.handleDeleteFile))

	mux.HandleFunc("POST /api/links/generate", a.admin(a.handleGenerateLinks))
	mux.HandleFunc("GET /api/links", a.authenticated(a.handleListLinks))
	// The sole consumption entry point. Stays unauthenticated: recipients
	// follow it from email, outside any session.
	mux.HandleFunc("GET /api/links/download/{token}", a.handleDownload)

	mux.HandleFunc("POST /api/partner/get-links", a.partner(a.handlePartnerGetLinks))
	mux.HandleFunc("POST /api/partner/notify-upload", a.partner(a.handlePartnerNotifyUpload))

	var h http.Handler = mux
	h = MaxBodyBytes(a.cfg.MaxUploadBytes)(h)
	h = RateLimit(a.limiter)(h)
	h = CORS(a.cfg.CORSOrigins)(h)
	h = SecurityHeaders(h)
	h = obs.Instrument(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return h
}
