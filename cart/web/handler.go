// Package web serves the cart page over HTTP.
package web

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"storefront/cart/logic"
)

const cartPath = "/cart"

// Handler routes cart page requests to a CartPage.
type Handler struct {
	page   logic.CartPage
	logger *zap.Logger
	router chi.Router
}

func NewHandler(page logic.CartPage, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{page: page, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Get(cartPath, h.show)
	r.Post(cartPath+"/clear", h.intent("clear", func(ctx context.Context, _ string) error {
		return h.page.ClearAll(ctx)
	}))
	r.Route(cartPath+"/items/{id}", func(r chi.Router) {
		r.Post("/increment", h.intent("increment", h.page.Increment))
		r.Post("/decrement", h.intent("decrement", h.page.Decrement))
		r.Post("/remove", h.intent("remove", h.page.Remove))
	})

	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "")
}

// intent runs one user action and redirects back to the cart. Failures
// re-render the page in place with the mapped status.
func (h *Handler) intent(name string, run func(ctx context.Context, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := run(r.Context(), id); err != nil {
			status := httpStatus(err)
			h.logger.Warn("cart intent failed",
				zap.String("intent", name),
				zap.String("item_id", id),
				zap.Int("status", status),
				zap.Error(err))
			h.render(w, r, status, userMessage(err))
			return
		}
		http.Redirect(w, r, cartPath, http.StatusSeeOther)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, flash string) {
	var buf bytes.Buffer
	if err := CartPage(h.page.View(), flash).Render(r.Context(), &buf); err != nil {
		h.logger.Error("render cart page", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
