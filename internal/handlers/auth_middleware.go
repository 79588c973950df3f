package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/UMS-P-2025/coursework-service/internal/models"
	"github.com/UMS-P-2025/coursework-service/internal/services"
)

const accountContextKey = "account"

// AuthMiddleware authenticates bearer tokens and loads the current account
// into the request context. The account is re-fetched on every request, so a
// rejected faculty loses access immediately, not at token expiry.
type AuthMiddleware struct {
	authService services.AuthService
}

func NewAuthMiddleware(authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing or malformed Authorization header",
			})
			return
		}

		account, err := m.authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			return
		}

		c.Set(accountContextKey, account)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated account holds one of
// the given roles. Faculty must additionally be approved.
func (m *AuthMiddleware) RequireRole(roles ...models.AccountRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := CurrentAccount(c)
		if account == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Not authenticated",
			})
			return
		}

		if err := m.authService.Authorize(account, roles...); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "You do not have permission to perform this action",
			})
			return
		}

		if account.Role == models.RoleFaculty && !account.IsApprovedFaculty() {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Account is pending admin approval",
			})
			return
		}

		c.Next()
	}
}

// CurrentAccount returns the authenticated account, or nil outside the
// authenticated chain.
func CurrentAccount(c *gin.Context) *models.Account {
	if v, ok := c.Get(accountContextKey); ok {
		if account, ok := v.(*models.Account); ok {
			return account
		}
	}
	return nil
}
