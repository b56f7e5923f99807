package pricing

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/blagoySimandov/clinicbook/internal/account"
	"github.com/blagoySimandov/clinicbook/internal/logging"
	"github.com/blagoySimandov/clinicbook/internal/metrics"
	"github.com/blagoySimandov/clinicbook/internal/models"
	"github.com/rs/zerolog/log"
)

type State int

const (
	StateLoading State = iota
	StateError
	StateEmpty
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateEmpty:
		return "empty"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// PopularIndex is the position of the plan highlighted as "most popular".
const PopularIndex = 1

const (
	CheckoutFailedMessage = "Failed to initiate checkout. Please try again."
	NoAccountMessage      = "No billing account is configured for this clinic."
	LoadFailedMessage     = "Failed to load pricing plans"
)

var ErrNoAccount = errors.New("no billing account resolved")

// API is the billing API as seen by the pricing section.
type API interface {
	SessionAccountID(ctx context.Context) (string, error)
	LookupAccountID(ctx context.Context, userID string) (string, error)
	ListPlans(ctx context.Context, accountID string) ([]models.Plan, error)
	CreateCheckoutSession(ctx context.Context, req models.CreateCheckoutSessionRequest) (string, error)
}

// SelectHandler replaces the default checkout behavior when set.
type SelectHandler func(ctx context.Context, planID string) error

type Observer interface {
	ObserveResolution(source string)
	ObservePlanListing(outcome string)
	ObserveCheckout(outcome string)
}

type Config struct {
	DefaultAccountID string
	DashboardURL     string
	SuccessPath      string
	OnSelect         SelectHandler
	Observer         Observer
}

type View struct {
	State         State
	Plans         []models.Plan
	AccountID     string
	AccountSource account.Source
	Error         string
	DashboardURL  string
	Processing    string
}

func (v View) IsPopular(index int) bool {
	return v.State == StateReady && index == PopularIndex && len(v.Plans) > PopularIndex
}

func (v View) IsProcessing(planID string) bool {
	return v.Processing != "" && v.Processing == planID
}

type OutcomeKind int

const (
	OutcomeNavigate OutcomeKind = iota + 1
	OutcomeAlert
	OutcomeDelegated
)

type Outcome struct {
	Kind    OutcomeKind
	URL     string
	Message string
}

type Flow struct {
	api        API
	cfg        Config
	selections *Selections
}

func NewFlow(api API, cfg Config) *Flow {
	if cfg.SuccessPath == "" {
		cfg.SuccessPath = "/success"
	}
	return &Flow{
		api:        api,
		cfg:        cfg,
		selections: NewSelections(),
	}
}

// WithAPI returns a flow bound to a per-visitor API client. Selection state is shared.
func (f *Flow) WithAPI(api API) *Flow {
	cp := *f
	cp.api = api
	return &cp
}

func (f *Flow) Selections() *Selections {
	return f.selections
}

// ResolveAccount tries the session record, then the lookup endpoint, then the configured default.
func (f *Flow) ResolveAccount(ctx context.Context, userID string) account.Resolution {
	res := account.FirstNonEmpty(ctx,
		func(source account.Source, err error) {
			log.Debug().Err(err).Str("source", string(source)).Msg("Account resolution step yielded nothing")
		},
		account.Step{Source: account.SourceSession, Resolve: f.api.SessionAccountID},
		account.Step{Source: account.SourceLookup, Resolve: func(ctx context.Context) (string, error) {
			return f.api.LookupAccountID(ctx, userID)
		}},
		account.Step{Source: account.SourceDefault, Resolve: account.Static(f.cfg.DefaultAccountID)},
	)

	f.observeResolution(string(res.Source))
	logging.EnrichAccount(ctx, res.AccountID, string(res.Source))
	return res
}

// Load resolves the account and fetches its plans. The returned view is never StateLoading.
func (f *Flow) Load(ctx context.Context, userID string) View {
	view := View{DashboardURL: f.cfg.DashboardURL}

	res := f.ResolveAccount(ctx, userID)
	view.AccountID = res.AccountID
	view.AccountSource = res.Source
	if !res.Found() {
		logging.EnrichError(ctx, ErrNoAccount, "resolve_account")
		f.observeListing(metrics.OutcomeError)
		view.State = StateError
		view.Error = NoAccountMessage
		return view
	}

	plans, err := f.api.ListPlans(ctx, res.AccountID)
	if err != nil {
		log.Error().Err(err).Str("accountId", res.AccountID).Msg("Error fetching plans")
		logging.EnrichError(ctx, err, "list_plans")
		f.observeListing(metrics.OutcomeError)
		view.State = StateError
		view.Error = errorMessage(err)
		return view
	}

	view.Plans = plans
	if len(plans) == 0 {
		f.observeListing(metrics.OutcomeEmpty)
		view.State = StateEmpty
		return view
	}

	f.observeListing(metrics.OutcomeOK)
	view.State = StateReady
	return view
}

// Select starts checkout for planID. location is the page the visitor is on; it becomes the
// cancel target and its origin prefixes the success path. ErrSelectionInFlight is returned
// when the visitor already has a checkout processing; every other failure is an alert outcome.
func (f *Flow) Select(ctx context.Context, visitorID, planID, accountID string, location *url.URL) (Outcome, error) {
	if err := f.selections.Begin(visitorID, planID); err != nil {
		f.observeCheckout(metrics.OutcomeRejected)
		return Outcome{}, err
	}
	defer f.selections.End(visitorID)

	logging.EnrichCheckout(ctx, planID, "")

	if f.cfg.OnSelect != nil {
		if err := f.cfg.OnSelect(ctx, planID); err != nil {
			log.Warn().Err(err).Str("planId", planID).Msg("Select handler failed")
			logging.EnrichError(ctx, err, "select_handler")
		}
		f.observeCheckout(metrics.OutcomeDelegated)
		return Outcome{Kind: OutcomeDelegated}, nil
	}

	origin := url.URL{Scheme: location.Scheme, Host: location.Host}
	checkoutURL, err := f.api.CreateCheckoutSession(ctx, models.CreateCheckoutSessionRequest{
		PlanID:     planID,
		AccountID:  accountID,
		SuccessURL: origin.String() + f.cfg.SuccessPath,
		CancelURL:  location.String(),
	})
	if err != nil {
		log.Error().Err(err).Str("planId", planID).Msg("Checkout error")
		logging.EnrichError(ctx, err, "create_checkout_session")
		f.observeCheckout(metrics.OutcomeFailed)
		return Outcome{Kind: OutcomeAlert, Message: CheckoutFailedMessage}, nil
	}

	f.observeCheckout(metrics.OutcomeCreated)
	return Outcome{Kind: OutcomeNavigate, URL: checkoutURL}, nil
}

func errorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("%s: %d", LoadFailedMessage, apiErr.Status)
	}
	return LoadFailedMessage
}

func (f *Flow) observeResolution(source string) {
	if f.cfg.Observer != nil {
		f.cfg.Observer.ObserveResolution(source)
	}
}

func (f *Flow) observeListing(outcome string) {
	if f.cfg.Observer != nil {
		f.cfg.Observer.ObservePlanListing(outcome)
	}
}

func (f *Flow) observeCheckout(outcome string) {
	if f.cfg.Observer != nil {
		f.cfg.Observer.ObserveCheckout(outcome)
	}
}
