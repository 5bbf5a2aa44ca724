package dashboard

import (
	"github.com/bookbuddy/storefront/internal/navigation"
	"github.com/bookbuddy/storefront/pkg/enums"
)

type MenuItem struct {
	Label string
	Route string
}

// Menu returns the dashboard sidebar for role.
func Menu(role enums.UserRole) []MenuItem {
	if role.IsAdmin() {
		return []MenuItem{
			{Label: "Dashboard", Route: navigation.RouteAdminDashboard},
			{Label: "Create Category", Route: navigation.RouteCreateCategory},
			{Label: "Create Product", Route: navigation.RouteCreateProduct},
			{Label: "Products", Route: navigation.RouteAdminProducts},
			{Label: "Orders", Route: navigation.RouteAdminOrders},
			{Label: "Users", Route: navigation.RouteAdminUsers},
		}
	}
	return []MenuItem{
		{Label: "Dashboard", Route: navigation.RouteUserDashboard},
		{Label: "Profile", Route: navigation.RouteUserProfile},
		{Label: "Orders", Route: navigation.RouteUserOrders},
	}
}
