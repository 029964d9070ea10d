package storefrontsvc

// User-facing status texts.
const (
	MsgLoginSuccess    = "Login successful!"
	MsgLoginFailed     = "Login failed"
	MsgRegisterSuccess = "Registration successful! Please login."
	MsgRegisterFailed  = "Registration failed"
	MsgLogoutSuccess   = "Logged out successfully"
	MsgSessionExpired  = "Session expired. Please login again."
	MsgFetchFailed     = "Failed to fetch sweets"
	MsgSearchFailed    = "Search failed"
	MsgPurchaseSuccess = "Purchase successful!"
	MsgPurchaseFailed  = "Purchase failed"
	MsgPurchasePending = "Purchase already in progress"
	MsgOutOfStock      = "Out of stock"
	MsgAddSuccess      = "Sweet added successfully!"
	MsgAddFailed       = "Failed to add sweet"
	MsgUpdateSuccess   = "Sweet updated successfully!"
	MsgUpdateFailed    = "Failed to update sweet"
	MsgDeleteSuccess   = "Sweet deleted successfully!"
	MsgDeleteFailed    = "Failed to delete sweet"
	MsgRestockSuccess  = "Sweet restocked successfully!"
	MsgRestockFailed   = "Failed to restock sweet"
	MsgAdminOnly       = "Access Denied: Admin only"
	MsgUnknownItem     = "Sweet not found"
	MsgMissingFields   = "Please fill in all fields"

	retrySuffix = ". Please try again."
)
