package domain

import "time"

type User struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"password,omitempty" db:"password"`
	RoleID    int64     `json:"role_id" db:"role_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Role struct {
	ID          int64        `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Permissions []Permission `json:"permissions" db:"-"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

type Permission string

const (
	PermInventoryRead  Permission = "inventory:read"
	PermProductsWrite  Permission = "products:write"
	PermPartiesWrite   Permission = "parties:write"
	PermSalesWrite     Permission = "sales:write"
	PermPurchasesWrite Permission = "purchases:write"
	PermReturnsWrite   Permission = "returns:write"
	PermExchangesWrite Permission = "exchanges:write"
	PermUsersManage    Permission = "users:manage"
)

// AllPermissions is granted to the seeded admin role.
var AllPermissions = []Permission{
	PermInventoryRead,
	PermProductsWrite,
	PermPartiesWrite,
	PermSalesWrite,
	PermPurchasesWrite,
	PermReturnsWrite,
	PermExchangesWrite,
	PermUsersManage,
}

func (p Permission) Valid() bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}
