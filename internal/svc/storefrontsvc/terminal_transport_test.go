package storefrontsvc_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/sweetshop/internal/domain"
	"github.com/mkrupp/sweetshop/internal/svc/inventorysvc"
	"github.com/mkrupp/sweetshop/internal/svc/notifysvc"
	"github.com/mkrupp/sweetshop/internal/svc/storefrontsvc"
)

func setupTestTerminal(t *testing.T, staff bool) (*fixture, *storefrontsvc.TerminalTransport, *bytes.Buffer) {
	t.Helper()

	f := setupTestController(t, staff)
	channel := notifysvc.NewChannel(notifysvc.NotifyConfig{DisplaySeconds: 60})
	f.cache = inventorysvc.NewCache(f.api)
	f.ctrl = storefrontsvc.NewController(f.sessions, f.api, f.cache, channel)

	out := &bytes.Buffer{}
	term := storefrontsvc.NewTerminalTransport(f.ctrl, storefrontsvc.TerminalTransportConfig{Prompt: "> "}, out)
	channel.Subscribe(term.ShowStatus)

	return f, term, out
}

func TestTerminalTransport_StaffSession(t *testing.T) {
	t.Parallel()

	f, term, out := setupTestTerminal(t, true)

	script := strings.Join([]string{
		"list",
		"login alice secret",
		"search gulab",
		"clear",
		"buy 2",
		"add",
		`set name="Kaju Katli" category=Indian price=12.5 quantity=4`,
		"submit",
		"delete 1",
		"y",
		"status",
		"logout",
		"quit",
		"login alice secret",
	}, "\n")

	require.NoError(t, term.Serve(context.Background(), strings.NewReader(script)))

	output := out.String()
	assert.Contains(t, output, "'list' is not available in the login view")
	assert.Contains(t, output, "[success] Login successful!")
	assert.Contains(t, output, `filter: term="gulab"`)
	assert.Contains(t, output, "out of stock")
	assert.Contains(t, output, "10.00")
	assert.Contains(t, output, "[error] Out of stock")
	assert.Contains(t, output, "[success] Sweet added successfully!")
	assert.Contains(t, output, "Delete Gulab Jamun? [y/N]")
	assert.Contains(t, output, "[success] Sweet deleted successfully!")
	assert.Contains(t, output, "user: alice (staff)")
	assert.Contains(t, output, "[success] Logged out successfully")

	assert.Equal(t, "Kaju Katli", f.api.input.Name)
	assert.Equal(t, storefrontsvc.LoginView{}, f.ctrl.View())
	assert.Equal(t, 1, f.api.called("login"))
}

func TestTerminalTransport_CustomerSession(t *testing.T) {
	t.Parallel()

	f, term, out := setupTestTerminal(t, false)

	script := strings.Join([]string{
		"register",
		"register bob bob@example.com secret",
		"login bob",
		"login bob secret",
		"edit 1",
		"delete 1",
		"n",
		"buy x",
		"buy 1",
		"frobnicate",
	}, "\n")

	require.NoError(t, term.Serve(context.Background(), strings.NewReader(script)))

	output := out.String()
	assert.Contains(t, output, "[success] Registration successful! Please login.")
	assert.Contains(t, output, "usage: login <username> <password>")
	assert.Contains(t, output, "[error] Access Denied: Admin only")
	assert.Contains(t, output, "usage: buy <id>")
	assert.Contains(t, output, "[success] Purchase successful!")
	assert.Contains(t, output, `unknown command "frobnicate"`)

	assert.Equal(t, storefrontsvc.DashboardView{Form: storefrontsvc.NoForm{}}, f.ctrl.View())
	assert.Zero(t, f.api.called("delete"))
}

func TestTerminalTransport_RestockForm(t *testing.T) {
	t.Parallel()

	f, term, out := setupTestTerminal(t, true)

	script := strings.Join([]string{
		"login alice secret",
		"restock 2",
		"set price=1",
		"set quantity=7",
		"submit",
	}, "\n")

	require.NoError(t, term.Serve(context.Background(), strings.NewReader(script)))

	output := out.String()
	assert.Contains(t, output, "restocking #2 Candy (0 in stock)")
	assert.Contains(t, output, "usage: set quantity=<n>")
	assert.Contains(t, output, "[success] Sweet restocked successfully!")
	assert.Equal(t, 7, f.api.restock)
}

func TestTerminalTransport_StopsOnCancel(t *testing.T) {
	t.Parallel()

	_, term, _ := setupTestTerminal(t, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, term.Serve(ctx, strings.NewReader("help\n")), context.Canceled)
}

func TestTerminalTransport_ShowStatusIgnoresClear(t *testing.T) {
	t.Parallel()

	_, term, out := setupTestTerminal(t, false)

	term.ShowStatus(domain.StatusMessage{}, false)
	assert.Empty(t, out.String())

	term.ShowStatus(domain.StatusMessage{Text: "Purchase failed", Kind: domain.StatusError}, true)
	assert.Equal(t, "[error] Purchase failed\n", out.String())
}
