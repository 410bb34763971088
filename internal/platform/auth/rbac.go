package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Directory roles. Every authenticated actor has exactly one.
const (
	RolePatient       = "patient"
	RoleDoctor        = "doctor"
	RoleHealthWorker  = "health_worker"
	RoleLabTechnician = "lab_technician"
	RoleAdmin         = "admin"
)

// ValidRole reports whether s names a known directory role.
func ValidRole(s string) bool {
	switch s {
	case RolePatient, RoleDoctor, RoleHealthWorker, RoleLabTechnician, RoleAdmin:
		return true
	}
	return false
}

// RequireRole returns middleware that checks the actor's role against the
// allowed set. Admin passes every check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := RoleFromContext(c.Request().Context())
			if role == RoleAdmin {
				return next(c)
			}
			for _, required := range roles {
				if role == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
