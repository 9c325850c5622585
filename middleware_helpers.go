package identity

import (
	"context"

	"github.com/goliatone/go-identity/middleware/jwtware"
	"github.com/goliatone/go-router"
)

// ValidationListener aliases the jwtware listener so consumers can use identity helpers directly.
type ValidationListener = jwtware.ValidationListener

// GuardValidator adapts a TokenService to the guard's TokenValidator without
// an import cycle.
type GuardValidator struct {
	tokens TokenService
}

func NewGuardValidator(tokens TokenService) GuardValidator {
	return GuardValidator{tokens: tokens}
}

func (g GuardValidator) Validate(raw string) (jwtware.Claims, error) {
	claims, err := g.tokens.Validate(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ContextEnricherAdapter stores validated claims in the standard context so
// code below the transport layer can read them.
func ContextEnricherAdapter(c context.Context, claims jwtware.Claims) context.Context {
	ic, ok := claims.(*IdentityClaims)
	if !ok {
		return c
	}
	return WithClaimsContext(c, ic)
}

// AccessGuard builds the bearer token middleware for protected routes.
func AccessGuard(tokens TokenService, config Config) router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		TokenValidator:  NewGuardValidator(tokens),
		ContextKey:      config.GetContextKey(),
		TokenLookup:     config.GetTokenLookup(),
		AuthScheme:      config.GetAuthScheme(),
		ContextEnricher: ContextEnricherAdapter,
	})
}

// RegisterValidationListeners appends listeners to a jwtware.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}
