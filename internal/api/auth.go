package api

import (
	"net/http"
	"os"
	"strings"

	"github.com/farmtofork/farmtofork/backend/market-service/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates JWT bearer tokens and stores the caller's identity
// on the request context. Signature verification here is a fast-path check;
// the store's row-level authorization is the final gate on every write.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   string(models.ErrUnauthenticated),
				Message: "Please provide a valid authorization token",
			})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   string(models.ErrUnauthenticated),
				Message: "Authorization header must be in format 'Bearer <token>'",
			})
			c.Abort()
			return
		}

		tokenString := tokenParts[1]

		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   string(models.ErrInternal),
				Message: "JWT secret missing",
			})
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   string(models.ErrUnauthenticated),
				Message: "The provided token is invalid or expired",
			})
			c.Abort()
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if sub, ok := claims["user_id"].(string); ok {
				c.Set("user_id", sub)
			} else if sub, ok := claims["sub"].(string); ok {
				c.Set("user_id", sub)
			}
			if email, ok := claims["email"].(string); ok {
				c.Set("email", email)
			}
			if r, ok := claims["role"].(string); ok {
				c.Set("role", r)
			}
		}

		c.Next()
	}
}

// GetUserID extracts the stable user identifier from the JWT claims
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}

	userIDStr, ok := userID.(string)
	return userIDStr, ok && userIDStr != ""
}

// GetUserEmail extracts the caller's email from the JWT claims
func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get("email")
	if !exists {
		return "", false
	}

	emailStr, ok := email.(string)
	return emailStr, ok && emailStr != ""
}

// GetUserRole extracts the caller's role claim, defaulting to consumer
func GetUserRole(c *gin.Context) string {
	roleVal, exists := c.Get("role")
	if !exists {
		return models.RoleConsumer
	}
	role, ok := roleVal.(string)
	if !ok || role == "" {
		return models.RoleConsumer
	}
	return role
}

// AdminMiddleware ensures the caller holds the admin role
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserRole(c) != models.RoleAdmin {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Error:   string(models.ErrForbidden),
				Message: "Admin role required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
