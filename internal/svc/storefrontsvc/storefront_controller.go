package storefrontsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mkrupp/sweetshop/internal/domain"
	context_ "github.com/mkrupp/sweetshop/internal/infra/context"
	"github.com/mkrupp/sweetshop/internal/infra/logging"
	"github.com/mkrupp/sweetshop/internal/svc/apiclient"
	"github.com/mkrupp/sweetshop/internal/svc/inventorysvc"
)

var (
	// ErrInvalidTransition is returned when an action is not allowed in the current view.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrStaffOnly is returned when a non-staff session attempts an admin action.
	ErrStaffOnly = errors.New("staff only")
	// ErrUnknownItem is returned when an item is not in the inventory cache.
	ErrUnknownItem = errors.New("unknown item")
	// ErrOutOfStock is returned when purchasing an item with no units left.
	ErrOutOfStock = errors.New("out of stock")
	// ErrPurchaseInFlight is returned when a purchase of the same item is still pending.
	ErrPurchaseInFlight = errors.New("purchase in flight")
	// ErrMissingField is returned when a required form field is empty.
	ErrMissingField = errors.New("missing field")
)

// SessionStore holds the authenticated session.
type SessionStore interface {
	Load(ctx context.Context) (domain.Session, bool, error)
	Set(ctx context.Context, sess domain.Session) error
	Clear(ctx context.Context) error
	Current() (domain.Session, bool)
}

// InventoryCache holds the last fetched inventory.
type InventoryCache interface {
	Refresh(ctx context.Context) ([]domain.Item, error)
	Items() []domain.Item
	Lookup(id domain.ItemID) (domain.Item, bool)
	Categories() []string
	Clear()
}

// Notifier shows transient status messages.
type Notifier interface {
	Notify(ctx context.Context, text string, kind domain.StatusKind)
}

// Controller is the storefront state machine. It owns the active view and the
// filter criteria, and coordinates the session, the backend and the cache.
// Its methods are safe for concurrent use; no lock is held during backend calls.
type Controller struct {
	sessions SessionStore
	api      apiclient.Client
	cache    InventoryCache
	notifier Notifier
	log      logging.Logger

	mu       sync.Mutex
	view     View
	formSeq  uint64
	criteria domain.FilterCriteria
	inFlight map[domain.ItemID]struct{}
}

// NewController creates a Controller showing the login view.
func NewController(
	sessions SessionStore,
	api apiclient.Client,
	cache InventoryCache,
	notifier Notifier,
) *Controller {
	return &Controller{
		sessions: sessions,
		api:      api,
		cache:    cache,
		notifier: notifier,
		log:      logging.GetLogger("svc.storefrontsvc.storefront_controller"),
		view:     LoginView{},
		inFlight: make(map[domain.ItemID]struct{}),
	}
}

// Start restores a persisted session. With a valid session the controller
// enters the dashboard and refreshes the inventory, otherwise it stays on login.
func (c *Controller) Start(ctx context.Context) (err error) {
	defer c.trace(ctx, "start", &err)

	sess, ok, err := c.sessions.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	if !ok {
		return nil
	}

	c.mu.Lock()
	c.view = DashboardView{Form: NoForm{}}
	c.mu.Unlock()

	_ = c.refresh(context_.WithUsername(ctx, sess.User.Username))

	return nil
}

// View returns the active view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.view
}

// Session returns the current session, if any.
func (c *Controller) Session() (domain.Session, bool) {
	return c.sessions.Current()
}

// NavigateRegister switches from login to register.
func (c *Controller) NavigateRegister() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.view.(LoginView); !ok {
		return c.invalid("register")
	}

	c.view = RegisterView{}

	return nil
}

// NavigateLogin switches from register to login.
func (c *Controller) NavigateLogin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.view.(RegisterView); !ok {
		return c.invalid("login")
	}

	c.view = LoginView{}

	return nil
}

// SubmitLogin authenticates with creds. On success the session is stored, the
// dashboard is shown and the inventory refreshed. On failure the login view
// stays active and no session is created, whatever the backend status.
func (c *Controller) SubmitLogin(ctx context.Context, creds domain.Credentials) (err error) {
	ctx = context_.WithUsername(ctx, creds.Username)
	defer c.trace(ctx, "login", &err)

	if err := c.expect(func(v View) bool { _, ok := v.(LoginView); return ok }, "dashboard"); err != nil {
		return err
	}

	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		c.notifier.Notify(ctx, MsgMissingFields, domain.StatusError)

		return fmt.Errorf("login: %w", ErrMissingField)
	}

	sess, err := c.api.Login(ctx, creds)
	if err != nil {
		c.notifier.Notify(ctx, failureText(err, MsgLoginFailed), domain.StatusError)

		return fmt.Errorf("login: %w", err)
	}

	if err := c.sessions.Set(ctx, sess); err != nil {
		c.log.WarnContext(ctx, "session not persisted", "error", err)
	}

	c.mu.Lock()
	c.view = DashboardView{Form: NoForm{}}
	c.criteria = domain.FilterCriteria{}
	c.mu.Unlock()

	c.notifier.Notify(ctx, MsgLoginSuccess, domain.StatusSuccess)

	_ = c.refresh(ctx)

	return nil
}

// SubmitRegister creates an account. On success the login view is shown;
// the new account is not signed in.
func (c *Controller) SubmitRegister(ctx context.Context, reg domain.Registration) (err error) {
	defer c.trace(ctx, "register", &err)

	if err := c.expect(func(v View) bool { _, ok := v.(RegisterView); return ok }, "login"); err != nil {
		return err
	}

	if strings.TrimSpace(reg.Username) == "" || strings.TrimSpace(reg.Email) == "" || reg.Password == "" {
		c.notifier.Notify(ctx, MsgMissingFields, domain.StatusError)

		return fmt.Errorf("register: %w", ErrMissingField)
	}

	if err := c.api.Register(ctx, reg); err != nil {
		c.notifier.Notify(ctx, failureText(err, MsgRegisterFailed), domain.StatusError)

		return fmt.Errorf("register: %w", err)
	}

	c.mu.Lock()
	if _, ok := c.view.(RegisterView); ok {
		c.view = LoginView{}
	}
	c.mu.Unlock()

	c.notifier.Notify(ctx, MsgRegisterSuccess, domain.StatusSuccess)

	return nil
}

// Logout clears the session and the inventory and shows the login view.
func (c *Controller) Logout(ctx context.Context) (err error) {
	ctx = c.withUser(ctx)
	defer c.trace(ctx, "logout", &err)

	c.mu.Lock()
	if _, ok := c.view.(DashboardView); !ok {
		defer c.mu.Unlock()

		return c.invalid("login")
	}

	c.view = LoginView{}
	c.criteria = domain.FilterCriteria{}
	c.mu.Unlock()

	if err := c.sessions.Clear(ctx); err != nil {
		c.log.WarnContext(ctx, "persisted session not cleared", "error", err)
	}

	c.cache.Clear()
	c.notifier.Notify(ctx, MsgLogoutSuccess, domain.StatusSuccess)

	return nil
}

// Refresh reloads the inventory.
func (c *Controller) Refresh(ctx context.Context) (err error) {
	ctx = c.withUser(ctx)
	defer c.trace(ctx, "refresh", &err)

	if err := c.requireDashboard("refresh"); err != nil {
		return err
	}

	return c.refresh(ctx)
}

// Search asks the backend for matching items. The cache is not modified.
func (c *Controller) Search(ctx context.Context, query domain.SearchQuery) (_ []domain.Item, err error) {
	ctx = c.withUser(ctx)
	defer c.trace(ctx, "search", &err)

	if err := c.requireDashboard("search"); err != nil {
		return nil, err
	}

	items, err := c.api.SearchSweets(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", c.report(ctx, err, MsgSearchFailed))
	}

	return items, nil
}

// SetCriteria replaces the filter criteria of the product list.
func (c *Controller) SetCriteria(criteria domain.FilterCriteria) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.criteria = criteria
}

// Criteria returns the filter criteria of the product list.
func (c *Controller) Criteria() domain.FilterCriteria {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.criteria
}

// Visible returns the cached items matching the filter criteria.
func (c *Controller) Visible() []domain.Item {
	return inventorysvc.Filter(c.cache.Items(), c.Criteria())
}

// Categories returns the distinct categories of the whole cached inventory.
func (c *Controller) Categories() []string {
	return c.cache.Categories()
}

// OpenAdd opens the add form. Staff only.
func (c *Controller) OpenAdd(ctx context.Context) error {
	return c.openForm(c.withUser(ctx), "add", func() (AdminForm, error) {
		return AddForm{}, nil
	})
}

// OpenUpdate opens the update form for the cached item id, pre-populated
// with its current fields. Staff only.
func (c *Controller) OpenUpdate(ctx context.Context, id domain.ItemID) error {
	return c.openForm(c.withUser(ctx), "update", func() (AdminForm, error) {
		item, ok := c.cache.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownItem, id)
		}

		return UpdateForm{Item: item, Draft: item.Draft()}, nil
	})
}

// OpenRestock opens the restock form for the cached item id with an empty
// quantity. Staff only.
func (c *Controller) OpenRestock(ctx context.Context, id domain.ItemID) error {
	return c.openForm(c.withUser(ctx), "restock", func() (AdminForm, error) {
		item, ok := c.cache.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownItem, id)
		}

		return RestockForm{Item: item}, nil
	})
}

func (c *Controller) openForm(ctx context.Context, name string, build func() (AdminForm, error)) (err error) {
	defer c.trace(ctx, "open "+name, &err)

	err = func() error {
		c.mu.Lock()
		defer c.mu.Unlock()

		dash, ok := c.view.(DashboardView)
		if !ok {
			return c.invalid(name)
		}

		if _, ok := dash.Form.(NoForm); !ok {
			return c.invalid(name)
		}

		if sess, ok := c.sessions.Current(); !ok || !sess.User.IsStaff {
			return ErrStaffOnly
		}

		form, err := build()
		if err != nil {
			return err
		}

		c.formSeq++
		c.view = DashboardView{Form: form}

		return nil
	}()

	switch {
	case errors.Is(err, ErrStaffOnly):
		c.notifier.Notify(ctx, MsgAdminOnly, domain.StatusError)
	case errors.Is(err, ErrUnknownItem):
		c.notifier.Notify(ctx, MsgUnknownItem, domain.StatusError)
	}

	return err
}

// CancelForm closes the open admin form and discards its draft.
func (c *Controller) CancelForm() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dash, ok := c.view.(DashboardView)
	if !ok {
		return c.invalid("cancel")
	}

	if _, ok := dash.Form.(NoForm); ok {
		return c.invalid("cancel")
	}

	c.view = DashboardView{Form: NoForm{}}

	return nil
}

// SetItemDraft replaces the draft of the open add or update form.
func (c *Controller) SetItemDraft(draft domain.ItemDraft) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dash, ok := c.view.(DashboardView)
	if !ok {
		return c.invalid("edit")
	}

	switch form := dash.Form.(type) {
	case AddForm:
		form.Draft = draft
		c.view = DashboardView{Form: form}
	case UpdateForm:
		form.Draft = draft
		c.view = DashboardView{Form: form}
	default:
		return c.invalid("edit")
	}

	return nil
}

// SetRestockDraft replaces the draft of the open restock form.
func (c *Controller) SetRestockDraft(draft domain.RestockDraft) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dash, ok := c.view.(DashboardView)
	if !ok {
		return c.invalid("edit")
	}

	form, ok := dash.Form.(RestockForm)
	if !ok {
		return c.invalid("edit")
	}

	form.Draft = draft
	c.view = DashboardView{Form: form}

	return nil
}

// SubmitForm submits the open admin form. An invalid draft or a rejected
// request keeps the form open; on success the form closes and the inventory
// is refreshed.
func (c *Controller) SubmitForm(ctx context.Context) (err error) {
	ctx = c.withUser(ctx)

	c.mu.Lock()
	dash, ok := c.view.(DashboardView)
	seq := c.formSeq

	var invalid error
	if !ok || dash.Form == (NoForm{}) {
		invalid = c.invalid("submit")
	}
	c.mu.Unlock()

	if invalid != nil {
		return invalid
	}

	switch form := dash.Form.(type) {
	case AddForm:
		defer c.trace(ctx, "add sweet", &err)

		input, err := c.parseDraft(ctx, form.Draft)
		if err != nil {
			return err
		}

		if err := c.api.CreateSweet(ctx, input); err != nil {
			return fmt.Errorf("add sweet: %w", c.report(ctx, err, MsgAddFailed))
		}

		return c.completeForm(ctx, seq, MsgAddSuccess)
	case UpdateForm:
		defer c.trace(ctx, "update sweet", &err)

		input, err := c.parseDraft(ctx, form.Draft)
		if err != nil {
			return err
		}

		if err := c.api.UpdateSweet(ctx, form.Item.ID, input); err != nil {
			return fmt.Errorf("update sweet: %w", c.report(ctx, err, MsgUpdateFailed))
		}

		return c.completeForm(ctx, seq, MsgUpdateSuccess)
	case RestockForm:
		defer c.trace(ctx, "restock sweet", &err)

		quantity, err := form.Draft.Parse()
		if err != nil {
			c.notifier.Notify(ctx, validationText(err), domain.StatusError)

			return fmt.Errorf("restock sweet: %w", err)
		}

		if err := c.api.RestockSweet(ctx, form.Item.ID, quantity); err != nil {
			return fmt.Errorf("restock sweet: %w", c.report(ctx, err, MsgRestockFailed))
		}

		return c.completeForm(ctx, seq, MsgRestockSuccess)
	default:
		return fmt.Errorf("%w: unknown form %T", ErrInvalidTransition, form)
	}
}

func (c *Controller) parseDraft(ctx context.Context, draft domain.ItemDraft) (domain.ItemInput, error) {
	input, err := draft.Parse()
	if err != nil {
		c.notifier.Notify(ctx, validationText(err), domain.StatusError)

		return domain.ItemInput{}, fmt.Errorf("parse draft: %w", err)
	}

	return input, nil
}

// completeForm closes the form opened as formSeq, unless another form
// replaced it meanwhile, then reports success and refreshes.
func (c *Controller) completeForm(ctx context.Context, formSeq uint64, msg string) error {
	c.mu.Lock()
	if _, ok := c.view.(DashboardView); ok && c.formSeq == formSeq {
		c.view = DashboardView{Form: NoForm{}}
	}
	c.mu.Unlock()

	c.notifier.Notify(ctx, msg, domain.StatusSuccess)

	_ = c.refresh(ctx)

	return nil
}

// Delete removes the item. Staff only. Confirmation is up to the caller.
// An open update or restock form for the item is closed.
func (c *Controller) Delete(ctx context.Context, id domain.ItemID) (err error) {
	ctx = c.withUser(ctx)
	defer c.trace(ctx, "delete sweet", &err)

	if err := c.requireDashboard("delete"); err != nil {
		return err
	}

	if sess, ok := c.sessions.Current(); !ok || !sess.User.IsStaff {
		c.notifier.Notify(ctx, MsgAdminOnly, domain.StatusError)

		return ErrStaffOnly
	}

	if _, ok := c.cache.Lookup(id); !ok {
		c.notifier.Notify(ctx, MsgUnknownItem, domain.StatusError)

		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}

	if err := c.api.DeleteSweet(ctx, id); err != nil {
		return fmt.Errorf("delete sweet: %w", c.report(ctx, err, MsgDeleteFailed))
	}

	c.mu.Lock()
	if dash, ok := c.view.(DashboardView); ok {
		switch form := dash.Form.(type) {
		case UpdateForm:
			if form.Item.ID == id {
				c.view = DashboardView{Form: NoForm{}}
			}
		case RestockForm:
			if form.Item.ID == id {
				c.view = DashboardView{Form: NoForm{}}
			}
		}
	}
	c.mu.Unlock()

	c.notifier.Notify(ctx, MsgDeleteSuccess, domain.StatusSuccess)

	_ = c.refresh(ctx)

	return nil
}

// Purchase buys one unit of the item. A second purchase of the same item is
// rejected until the first one has resolved.
func (c *Controller) Purchase(ctx context.Context, id domain.ItemID) (err error) {
	ctx = c.withUser(ctx)
	defer c.trace(ctx, "purchase sweet", &err)

	err = func() error {
		c.mu.Lock()
		defer c.mu.Unlock()

		if _, ok := c.view.(DashboardView); !ok {
			return c.invalid("purchase")
		}

		item, ok := c.cache.Lookup(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownItem, id)
		}

		if !item.InStock() {
			return fmt.Errorf("%w: %s", ErrOutOfStock, item.Name)
		}

		if _, ok := c.inFlight[id]; ok {
			return fmt.Errorf("%w: %s", ErrPurchaseInFlight, item.Name)
		}

		c.inFlight[id] = struct{}{}

		return nil
	}()

	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownItem):
		c.notifier.Notify(ctx, MsgUnknownItem, domain.StatusError)

		return err
	case errors.Is(err, ErrOutOfStock):
		c.notifier.Notify(ctx, MsgOutOfStock, domain.StatusError)

		return err
	case errors.Is(err, ErrPurchaseInFlight):
		c.notifier.Notify(ctx, MsgPurchasePending, domain.StatusError)

		return err
	default:
		return err
	}

	defer func() {
		c.mu.Lock()
		delete(c.inFlight, id)
		c.mu.Unlock()
	}()

	if err := c.api.PurchaseSweet(ctx, id); err != nil {
		return fmt.Errorf("purchase sweet: %w", c.report(ctx, err, MsgPurchaseFailed))
	}

	c.notifier.Notify(ctx, MsgPurchaseSuccess, domain.StatusSuccess)

	_ = c.refresh(ctx)

	return nil
}

// refresh reloads the cache after the triggering request has resolved.
func (c *Controller) refresh(ctx context.Context) error {
	_, err := c.cache.Refresh(ctx)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, inventorysvc.ErrCacheCleared):
		return nil
	case errors.Is(err, apiclient.ErrUnauthorized):
		return c.expire(ctx, err)
	default:
		c.notifier.Notify(ctx, failureText(err, MsgFetchFailed), domain.StatusError)

		return fmt.Errorf("refresh: %w", err)
	}
}

// report shows the failure of an authenticated request and returns err.
// Unauthorized responses end the session.
func (c *Controller) report(ctx context.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, apiclient.ErrUnauthorized):
		return c.expire(ctx, err)
	case errors.Is(err, apiclient.ErrForbidden):
		c.notifier.Notify(ctx, MsgAdminOnly, domain.StatusError)
	default:
		c.notifier.Notify(ctx, failureText(err, fallback), domain.StatusError)
	}

	return err
}

// expire ends the session after the backend rejected its credential,
// whatever view or form is active.
func (c *Controller) expire(ctx context.Context, cause error) error {
	c.log.InfoContext(ctx, "session expired", "cause", cause)

	c.mu.Lock()
	c.view = LoginView{}
	c.criteria = domain.FilterCriteria{}
	c.mu.Unlock()

	if err := c.sessions.Clear(ctx); err != nil {
		c.log.WarnContext(ctx, "persisted session not cleared", "error", err)
	}

	c.cache.Clear()
	c.notifier.Notify(ctx, MsgSessionExpired, domain.StatusError)

	return errors.Join(domain.ErrSessionExpired, cause)
}

func failureText(err error, fallback string) string {
	if errors.Is(err, apiclient.ErrNetwork) {
		return fallback + retrySuffix
	}

	if msg, ok := apiclient.Message(err); ok {
		return msg
	}

	return fallback
}

func validationText(err error) string {
	text := strings.ReplaceAll(err.Error(), "\n", "; ")

	return strings.ToUpper(text[:1]) + text[1:]
}

func (c *Controller) expect(ok func(View) bool, target string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !ok(c.view) {
		return c.invalid(target)
	}

	return nil
}

func (c *Controller) requireDashboard(action string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.view.(DashboardView); !ok {
		return c.invalid(action)
	}

	return nil
}

// invalid must be called with c.mu held.
func (c *Controller) invalid(target string) error {
	from := ViewName(c.view)
	if dash, ok := c.view.(DashboardView); ok {
		from += "/" + FormName(dash.Form)
	}

	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, target)
}

func (c *Controller) withUser(ctx context.Context) context.Context {
	if sess, ok := c.sessions.Current(); ok {
		return context_.WithUsername(ctx, sess.User.Username)
	}

	return ctx
}

func (c *Controller) trace(ctx context.Context, action string, errp *error) {
	if *errp != nil {
		c.log.WarnContext(ctx, action+" failed", "error", *errp)
	} else {
		c.log.DebugContext(ctx, action)
	}
}
