package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/blagoySimandov/clinicbook/internal/logging"
	"github.com/blagoySimandov/clinicbook/internal/pricing"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	visitorCookieName  = "visitor_id"
	checkoutErrorParam = "checkout_error"
	defaultTitle       = "Choose Your Plan"
	defaultSubtitle    = "Select the perfect plan for your healthcare needs"
)

type Config struct {
	// PublicBaseURL is the origin the browser sees, e.g. https://clinic.example.
	PublicBaseURL string
	Title         string
	Subtitle      string
	SecureCookie  bool
}

// Handlers renders the pricing section and turns plan selections into redirects.
type Handlers struct {
	flow   *pricing.Flow
	client *pricing.Client
	cfg    Config
	base   *url.URL
	tmpl   *template.Template
}

func NewHandlers(flow *pricing.Flow, client *pricing.Client, cfg Config) (*Handlers, error) {
	base, err := url.Parse(cfg.PublicBaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid public base url %q", cfg.PublicBaseURL)
	}
	if cfg.Title == "" {
		cfg.Title = defaultTitle
	}
	if cfg.Subtitle == "" {
		cfg.Subtitle = defaultSubtitle
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Handlers{
		flow:   flow,
		client: client,
		cfg:    cfg,
		base:   base,
		tmpl:   tmpl,
	}, nil
}

func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Index).Methods(http.MethodGet)
	router.HandleFunc("/pricing", h.Pricing).Methods(http.MethodGet)
	router.HandleFunc("/checkout", h.Checkout).Methods(http.MethodPost)
	router.HandleFunc("/success", h.Success).Methods(http.MethodGet)
}

type pageData struct {
	Title                 string
	Subtitle              string
	UserID                string
	Page                  string
	CheckoutFailedMessage string
	View                  pricing.View
}

// Index serves the landing shell with the pricing section in its loading state.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	h.ensureVisitor(w, r)
	h.render(w, r, "shell", pageData{
		Title:                 h.cfg.Title,
		UserID:                r.URL.Query().Get("user_id"),
		CheckoutFailedMessage: pricing.CheckoutFailedMessage,
	})
}

// Pricing renders the resolved section: error panel, empty panel or plan grid.
func (h *Handlers) Pricing(w http.ResponseWriter, r *http.Request) {
	visitorID := h.ensureVisitor(w, r)
	q := r.URL.Query()

	flow := h.flow.WithAPI(h.client.WithCookies(r.Cookies()))
	view := flow.Load(r.Context(), q.Get("user_id"))
	view.Processing = flow.Selections().Processing(visitorID)

	h.render(w, r, "pricing", pageData{
		Title:    h.cfg.Title,
		Subtitle: h.cfg.Subtitle,
		UserID:   q.Get("user_id"),
		Page:     sanitizePage(q.Get("page")),
		View:     view,
	})
}

// Checkout starts a checkout for the posted plan and answers with a redirect:
// to Stripe on success, back to the page with an alert flag on failure.
func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	planID := strings.TrimSpace(r.PostForm.Get("plan_id"))
	userID := strings.TrimSpace(r.PostForm.Get("user_id"))
	if planID == "" {
		http.Error(w, "plan_id is required", http.StatusBadRequest)
		return
	}

	visitorID := h.ensureVisitor(w, r)
	location := h.base.ResolveReference(&url.URL{Path: "/"})
	if ref, err := url.Parse(sanitizePage(r.PostForm.Get("page"))); err == nil {
		location = h.base.ResolveReference(ref)
	}

	// The account is resolved again here; a posted account id is never trusted.
	flow := h.flow.WithAPI(h.client.WithCookies(r.Cookies()))
	res := flow.ResolveAccount(r.Context(), userID)
	if !res.Found() {
		log.Warn().Str("planId", planID).Msg("Checkout without a resolvable billing account")
		logging.EnrichError(r.Context(), pricing.ErrNoAccount, "resolve_account")
		http.Redirect(w, r, alertLocation(location), http.StatusSeeOther)
		return
	}

	outcome, err := flow.Select(r.Context(), visitorID, planID, res.AccountID, location)
	if errors.Is(err, pricing.ErrSelectionInFlight) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("planId", planID).Msg("Checkout failed unexpectedly")
		http.Error(w, "Checkout failed", http.StatusInternalServerError)
		return
	}

	logging.EnrichMetadata(r.Context(), "checkout_outcome", outcomeName(outcome.Kind))
	switch outcome.Kind {
	case pricing.OutcomeNavigate:
		http.Redirect(w, r, outcome.URL, http.StatusSeeOther)
	case pricing.OutcomeAlert:
		http.Redirect(w, r, alertLocation(location), http.StatusSeeOther)
	default:
		http.Redirect(w, r, location.String(), http.StatusSeeOther)
	}
}

// alertLocation is the page the visitor came from, flagged to show the checkout alert.
func alertLocation(location *url.URL) string {
	back := *location
	q := back.Query()
	q.Set(checkoutErrorParam, "1")
	back.RawQuery = q.Encode()
	return back.String()
}

func outcomeName(kind pricing.OutcomeKind) string {
	switch kind {
	case pricing.OutcomeNavigate:
		return "navigate"
	case pricing.OutcomeAlert:
		return "alert"
	case pricing.OutcomeDelegated:
		return "delegated"
	}
	return "unknown"
}

func (h *Handlers) Success(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "success", pageData{Title: h.cfg.Title})
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render template")
		logging.EnrichError(r.Context(), err, "render_"+name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// ensureVisitor returns the visitor id, issuing a cookie on first contact.
func (h *Handlers) ensureVisitor(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(visitorCookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			logging.EnrichVisitor(r.Context(), c.Value)
			return c.Value
		}
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	r.AddCookie(&http.Cookie{Name: visitorCookieName, Value: id})
	logging.EnrichVisitor(r.Context(), id)
	return id
}

// sanitizePage keeps only a same-site path and query, dropping the alert flag.
func sanitizePage(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(raw, "//") {
		return "/"
	}
	q := u.Query()
	q.Del(checkoutErrorParam)
	page := url.URL{Path: u.Path, RawQuery: q.Encode()}
	return page.String()
}
