package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/identity"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

const CartOwnerKey = "cart_owner"

// CartSessions folds an anonymous cart into a user's cart and keeps an
// anonymous cart alive while its cookie is refreshed
type CartSessions interface {
	MergeAnonymousCart(ctx context.Context, anonymousToken string, userID uint) error
	KeepAlive(ctx context.Context, anonymousToken string) error
}

// CartIdentityMiddleware resolves the cart owner once per request and keeps
// the anonymous cart cookie in sync. It must run after OptionalAuthenticate.
type CartIdentityMiddleware struct {
	resolver *identity.Resolver
	sessions CartSessions
	cfg      config.CartConfig
}

func NewCartIdentityMiddleware(resolver *identity.Resolver, sessions CartSessions, cfg config.CartConfig) *CartIdentityMiddleware {
	return &CartIdentityMiddleware{
		resolver: resolver,
		sessions: sessions,
		cfg:      cfg,
	}
}

func (m *CartIdentityMiddleware) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cfg.TokenCookieName, value, maxAge, m.cfg.CookiePath, "", m.cfg.CookieSecure, true)
}

func (m *CartIdentityMiddleware) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, _ := c.Cookie(m.cfg.TokenCookieName)

		var userID *uint
		if id, ok := GetUserID(c); ok {
			userID = &id
		}

		// First authenticated request after shopping anonymously
		if userID != nil && identity.ValidToken(token) {
			if err := m.sessions.MergeAnonymousCart(c.Request.Context(), token, *userID); err != nil {
				log.Error("Failed to merge anonymous cart", err, logger.Fields{
					"user_id": *userID,
				})
				apperrors.Respond(c, err, "merge cart")
				c.Abort()
				return
			}
			m.setCookie(c, "", -1)
		}

		resolution := m.resolver.Resolve(userID, token)
		if !resolution.Owner.IsAuthenticated() {
			// refreshed on every visit so the cookie expires after TokenTTL of inactivity
			m.setCookie(c, resolution.Owner.AnonymousToken, int(m.cfg.TokenTTL.Seconds()))
			if resolution.MintedToken == "" {
				if err := m.sessions.KeepAlive(c.Request.Context(), resolution.Owner.AnonymousToken); err != nil {
					log.Warn("Failed to keep anonymous cart alive", logger.Fields{
						"error": err.Error(),
					})
				}
			}
		}
		if resolution.MintedToken != "" {
			log.Debug("Issued anonymous cart token", logger.Fields{
				"replaced_malformed": token != "",
			})
		}

		c.Set(CartOwnerKey, resolution.Owner)
		c.Next()
	}
}

// GetCartOwner returns the owner resolved by CartIdentityMiddleware
func GetCartOwner(c *gin.Context) (identity.OwnerKey, bool) {
	owner, exists := c.Get(CartOwnerKey)
	if !exists {
		return identity.OwnerKey{}, false
	}
	key, ok := owner.(identity.OwnerKey)
	return key, ok
}
