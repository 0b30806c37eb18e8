package enums

import (
	"fmt"
	"strings"
)

// AdminOrderAction is the decision an admin takes on an order.
type AdminOrderAction string

const (
	AdminOrderActionAccept AdminOrderAction = "accept"
	AdminOrderActionCancel AdminOrderAction = "cancel"
)

// ParseAdminOrderAction converts raw input into an AdminOrderAction.
func ParseAdminOrderAction(value string) (AdminOrderAction, error) {
	switch AdminOrderAction(strings.ToLower(strings.TrimSpace(value))) {
	case AdminOrderActionAccept:
		return AdminOrderActionAccept, nil
	case AdminOrderActionCancel:
		return AdminOrderActionCancel, nil
	}
	return "", fmt.Errorf("invalid admin order action %q", value)
}
