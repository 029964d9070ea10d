package storefrontsvc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/mkrupp/sweetshop/internal/domain"
	"github.com/mkrupp/sweetshop/internal/infra/logging"
)

// ErrUnbalancedQuote is returned for a command line with an unterminated quote.
var ErrUnbalancedQuote = errors.New("unbalanced quote")

// TerminalTransportConfig contains configuration parameters for the terminal transport.
type TerminalTransportConfig struct {
	Prompt string `env:"PROMPT" default:"sweetshop> "`
}

// TerminalTransport drives a Controller from line-oriented text input.
type TerminalTransport struct {
	ctrl *Controller
	log  logging.Logger
	cfg  TerminalTransportConfig

	mu  sync.Mutex
	out io.Writer
}

// NewTerminalTransport creates a TerminalTransport writing to out.
func NewTerminalTransport(ctrl *Controller, cfg TerminalTransportConfig, out io.Writer) *TerminalTransport {
	return &TerminalTransport{
		ctrl: ctrl,
		log:  logging.GetLogger("svc.storefrontsvc.terminal_transport"),
		cfg:  cfg,
		out:  out,
	}
}

// ShowStatus prints a status message. It can be subscribed to the notification channel.
func (tt *TerminalTransport) ShowStatus(msg domain.StatusMessage, ok bool) {
	if !ok {
		return
	}

	tt.printf("[%s] %s\n", msg.Kind, msg.Text)
}

// Serve reads commands from in until it is exhausted, the quit command is
// entered or ctx is done.
func (tt *TerminalTransport) Serve(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	tt.printf("Type 'help' for a list of commands.\n")
	tt.prompt()

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("serve: %w", err)
		}

		args, err := splitArgs(scanner.Text())
		if err != nil {
			tt.printf("%v\n", err)
			tt.prompt()

			continue
		}

		if len(args) > 0 {
			if quit := tt.dispatch(ctx, scanner, args); quit {
				return nil
			}
		}

		tt.prompt()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	return nil
}

func (tt *TerminalTransport) dispatch(ctx context.Context, scanner *bufio.Scanner, args []string) (quit bool) {
	cmd, args := strings.ToLower(args[0]), args[1:]

	var err error

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		tt.help()
	case "status":
		tt.status()
	case "login":
		err = tt.login(ctx, args)
	case "register":
		err = tt.register(ctx, args)
	case "back":
		err = tt.ctrl.NavigateLogin()
	case "logout":
		err = tt.ctrl.Logout(ctx)
	case "refresh":
		if err = tt.ctrl.Refresh(ctx); err == nil {
			tt.list()
		}
	case "list":
		err = tt.whenDashboard(tt.list)
	case "categories":
		err = tt.whenDashboard(func() {
			tt.printf("%s\n", strings.Join(tt.ctrl.Categories(), ", "))
		})
	case "search", "category", "min", "max", "clear":
		err = tt.filter(cmd, args)
	case "remote":
		err = tt.remote(ctx, args)
	case "buy":
		err = tt.withID(args, "buy <id>", func(id domain.ItemID) error {
			return tt.ctrl.Purchase(ctx, id)
		})
	case "add":
		if err = tt.ctrl.OpenAdd(ctx); err == nil {
			tt.status()
		}
	case "edit":
		err = tt.withID(args, "edit <id>", func(id domain.ItemID) error {
			if err := tt.ctrl.OpenUpdate(ctx, id); err != nil {
				return err
			}

			tt.status()

			return nil
		})
	case "restock":
		err = tt.withID(args, "restock <id>", func(id domain.ItemID) error {
			if err := tt.ctrl.OpenRestock(ctx, id); err != nil {
				return err
			}

			tt.status()

			return nil
		})
	case "set":
		err = tt.set(args)
	case "submit":
		err = tt.ctrl.SubmitForm(ctx)
	case "cancel":
		err = tt.ctrl.CancelForm()
	case "delete":
		err = tt.withID(args, "delete <id>", func(id domain.ItemID) error {
			return tt.delete(ctx, scanner, id)
		})
	default:
		tt.printf("unknown command %q, type 'help'\n", cmd)
	}

	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidTransition):
		tt.printf("'%s' is not available in the %s view\n", cmd, ViewName(tt.ctrl.View()))
	case errors.Is(err, errUsage):
		tt.printf("%v\n", err)
	default:
		// the controller already reported it
		tt.log.DebugContext(ctx, "command failed", "command", cmd, "error", err)
	}

	return false
}

var errUsage = errors.New("usage")

func usage(format string) error {
	return fmt.Errorf("%w: %s", errUsage, format)
}

func (tt *TerminalTransport) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("login <username> <password>")
	}

	if err := tt.ctrl.SubmitLogin(ctx, domain.Credentials{Username: args[0], Password: args[1]}); err != nil {
		return err
	}

	tt.list()

	return nil
}

func (tt *TerminalTransport) register(ctx context.Context, args []string) error {
	if _, ok := tt.ctrl.View().(RegisterView); !ok && len(args) == 0 {
		return tt.ctrl.NavigateRegister()
	}

	if len(args) != 3 {
		return usage("register <username> <email> <password>")
	}

	return tt.ctrl.SubmitRegister(ctx, domain.Registration{Username: args[0], Email: args[1], Password: args[2]})
}

func (tt *TerminalTransport) filter(cmd string, args []string) error {
	if _, ok := tt.ctrl.View().(DashboardView); !ok {
		return ErrInvalidTransition
	}

	value := strings.Join(args, " ")
	criteria := tt.ctrl.Criteria()

	switch cmd {
	case "search":
		criteria.Term = value
	case "category":
		criteria.Category = value
	case "min":
		criteria.MinPrice = value
	case "max":
		criteria.MaxPrice = value
	case "clear":
		criteria = domain.FilterCriteria{}
	}

	tt.ctrl.SetCriteria(criteria)
	tt.list()

	return nil
}

func (tt *TerminalTransport) remote(ctx context.Context, args []string) error {
	var query domain.SearchQuery

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return usage("remote [name=..] [category=..] [min=..] [max=..]")
		}

		switch strings.ToLower(key) {
		case "name":
			query.Name = value
		case "category":
			query.Category = value
		case "min":
			query.MinPrice = value
		case "max":
			query.MaxPrice = value
		default:
			return usage("remote [name=..] [category=..] [min=..] [max=..]")
		}
	}

	items, err := tt.ctrl.Search(ctx, query)
	if err != nil {
		return err
	}

	tt.table(items)

	return nil
}

func (tt *TerminalTransport) set(args []string) error {
	if len(args) == 0 {
		return usage("set <field>=<value>...")
	}

	dash, ok := tt.ctrl.View().(DashboardView)
	if !ok {
		return ErrInvalidTransition
	}

	var item *domain.ItemDraft

	switch form := dash.Form.(type) {
	case AddForm:
		item = &form.Draft
	case UpdateForm:
		item = &form.Draft
	case RestockForm:
		restock := form.Draft

		for _, arg := range args {
			key, value, ok := strings.Cut(arg, "=")
			if !ok || strings.ToLower(key) != "quantity" {
				return usage("set quantity=<n>")
			}

			restock.Quantity = value
		}

		return tt.ctrl.SetRestockDraft(restock)
	default:
		return ErrInvalidTransition
	}

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return usage("set <field>=<value>...")
		}

		switch strings.ToLower(key) {
		case "name":
			item.Name = value
		case "category":
			item.Category = value
		case "price":
			item.Price = value
		case "quantity":
			item.Quantity = value
		default:
			return usage("set name=.. category=.. price=.. quantity=..")
		}
	}

	return tt.ctrl.SetItemDraft(*item)
}

func (tt *TerminalTransport) delete(ctx context.Context, scanner *bufio.Scanner, id domain.ItemID) error {
	name := id.String()
	for _, item := range tt.ctrl.Visible() {
		if item.ID == id {
			name = item.Name
		}
	}

	tt.printf("Delete %s? [y/N] ", name)

	if !scanner.Scan() || !strings.EqualFold(strings.TrimSpace(scanner.Text()), "y") {
		tt.printf("cancelled\n")

		return nil
	}

	return tt.ctrl.Delete(ctx, id)
}

func (tt *TerminalTransport) withID(args []string, format string, f func(domain.ItemID) error) error {
	if len(args) != 1 {
		return usage(format)
	}

	id, err := domain.ParseItemID(args[0])
	if err != nil {
		return usage(format)
	}

	return f(id)
}

func (tt *TerminalTransport) whenDashboard(f func()) error {
	if _, ok := tt.ctrl.View().(DashboardView); !ok {
		return ErrInvalidTransition
	}

	f()

	return nil
}

func (tt *TerminalTransport) list() {
	if !tt.ctrl.Criteria().IsZero() {
		c := tt.ctrl.Criteria()
		tt.printf("filter: term=%q category=%q min=%q max=%q\n", c.Term, c.Category, c.MinPrice, c.MaxPrice)
	}

	tt.table(tt.ctrl.Visible())
}

func (tt *TerminalTransport) table(items []domain.Item) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	if len(items) == 0 {
		fmt.Fprintln(tt.out, "No sweets found.")

		return
	}

	w := tabwriter.NewWriter(tt.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")

	for _, item := range items {
		stock := fmt.Sprintf("%d", item.Quantity)
		if !item.InStock() {
			stock = "out of stock"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", item.ID, item.Name, item.Category, item.Price.StringFixed(2), stock)
	}

	_ = w.Flush()
}

func (tt *TerminalTransport) status() {
	view := tt.ctrl.View()

	if sess, ok := tt.ctrl.Session(); ok {
		role := "customer"
		if sess.User.IsStaff {
			role = "staff"
		}

		tt.printf("user: %s (%s)\n", sess.User.Username, role)
	}

	dash, ok := view.(DashboardView)
	if !ok {
		tt.printf("view: %s\n", ViewName(view))

		return
	}

	tt.printf("view: dashboard, form: %s\n", FormName(dash.Form))

	switch form := dash.Form.(type) {
	case AddForm:
		tt.printDraft(form.Draft)
	case UpdateForm:
		tt.printf("editing #%s %s\n", form.Item.ID, form.Item.Name)
		tt.printDraft(form.Draft)
	case RestockForm:
		tt.printf("restocking #%s %s (%d in stock)\n", form.Item.ID, form.Item.Name, form.Item.Quantity)
		tt.printf("  quantity=%q\n", form.Draft.Quantity)
	}
}

func (tt *TerminalTransport) printDraft(d domain.ItemDraft) {
	tt.printf("  name=%q category=%q price=%q quantity=%q\n", d.Name, d.Category, d.Price, d.Quantity)
}

func (tt *TerminalTransport) help() {
	tt.printf(`commands:
  login <username> <password>            sign in
  register [<username> <email> <password>]  open or submit the registration form
  back                                   return to login
  list | categories | refresh            show the inventory
  search|category|min|max <value>        filter the list, 'clear' resets
  remote [name=..] [category=..] [min=..] [max=..]  search on the server
  buy <id>                               purchase one unit
  add | edit <id> | restock <id>         open an admin form
  set <field>=<value>...                 edit the open form
  submit | cancel                        submit or discard the open form
  delete <id>                            delete a sweet
  status | logout | quit
`)
}

func (tt *TerminalTransport) prompt() {
	tt.printf("%s", tt.cfg.Prompt)
}

func (tt *TerminalTransport) printf(format string, args ...any) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	fmt.Fprintf(tt.out, format, args...)
}

// splitArgs splits line at unquoted whitespace. Single and double quotes group words.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quote   rune
		inArg   bool
	)

	for _, r := range line {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0:
			current.WriteRune(r)
		case r == '"' || r == '\'':
			quote, inArg = r, true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, ErrUnbalancedQuote
	}

	if inArg {
		args = append(args, current.String())
	}

	return args, nil
}
