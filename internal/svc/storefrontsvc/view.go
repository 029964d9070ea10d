package storefrontsvc

import "github.com/mkrupp/sweetshop/internal/domain"

// View is the active screen: exactly one of LoginView, RegisterView or DashboardView.
type View interface {
	isView()
}

// LoginView shows the login form.
type LoginView struct{}

// RegisterView shows the registration form.
type RegisterView struct{}

// DashboardView shows the inventory. It requires a session.
type DashboardView struct {
	Form AdminForm
}

func (LoginView) isView()     {}
func (RegisterView) isView()  {}
func (DashboardView) isView() {}

// AdminForm is the staff sub-form of the dashboard: exactly one of NoForm,
// AddForm, UpdateForm or RestockForm.
type AdminForm interface {
	isAdminForm()
}

// NoForm means no admin form is open.
type NoForm struct{}

// AddForm creates a new item.
type AddForm struct {
	Draft domain.ItemDraft
}

// UpdateForm edits Item. Draft starts as a copy of the item's fields.
type UpdateForm struct {
	Item  domain.Item
	Draft domain.ItemDraft
}

// RestockForm adds units to Item. Draft starts empty.
type RestockForm struct {
	Item  domain.Item
	Draft domain.RestockDraft
}

func (NoForm) isAdminForm()      {}
func (AddForm) isAdminForm()     {}
func (UpdateForm) isAdminForm()  {}
func (RestockForm) isAdminForm() {}

// ViewName returns a short lowercase name of v.
func ViewName(v View) string {
	switch v.(type) {
	case LoginView:
		return "login"
	case RegisterView:
		return "register"
	case DashboardView:
		return "dashboard"
	default:
		return "unknown"
	}
}

// FormName returns a short lowercase name of f.
func FormName(f AdminForm) string {
	switch f.(type) {
	case NoForm:
		return "none"
	case AddForm:
		return "add"
	case UpdateForm:
		return "update"
	case RestockForm:
		return "restock"
	default:
		return "unknown"
	}
}
