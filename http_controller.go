package identity

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// RegisterIdentityRoutes mounts the JSON identity endpoints. The guard is
// applied only to the profile route; signup, login, and verification have to
// stay reachable without a session.
func RegisterIdentityRoutes[T any](app router.Router[T], guard router.MiddlewareFunc, opts ...IdentityControllerOption) {
	controller := NewIdentityController(opts...)

	app.Post(controller.Routes.Signup, controller.SignupPost).
		SetName("signup.post")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("login.post")

	app.Get(controller.Routes.VerifyEmail, controller.VerifyEmailGet).
		SetName("verify-email.get")

	app.Get(controller.Routes.Profile, controller.ProfileGet, guard).
		SetName("profile.get")
}

type IdentityControllerRoutes struct {
	Signup      string
	Login       string
	VerifyEmail string
	Profile     string
}

type IdentityController struct {
	Logger      Logger
	Routes      *IdentityControllerRoutes
	Signup      *SignupHandler
	VerifyEmail *VerifyEmailHandler
	Auther      Authenticator
	ContextKey  string
}

type IdentityControllerOption func(*IdentityController) *IdentityController

func NewIdentityController(opts ...IdentityControllerOption) *IdentityController {
	c := &IdentityController{
		Logger: defLogger{},
		Routes: &IdentityControllerRoutes{
			Signup:      "/signup",
			Login:       "/login",
			VerifyEmail: "/verify-email",
			Profile:     "/profile",
		},
		ContextKey: "user",
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Signup == nil {
		panic("Missing SignupHandler in identity controller...")
	}

	if c.VerifyEmail == nil {
		panic("Missing VerifyEmailHandler in identity controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in identity controller...")
	}

	return c
}

func WithControllerLogger(l Logger) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithSignupHandler(h *SignupHandler) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Signup = h
		return c
	}
}

func WithVerifyEmailHandler(h *VerifyEmailHandler) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.VerifyEmail = h
		return c
	}
}

func WithAuthenticator(a Authenticator) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		c.Auther = a
		return c
	}
}

func WithContextKey(key string) IdentityControllerOption {
	return func(c *IdentityController) *IdentityController {
		if key != "" {
			c.ContextKey = key
		}
		return c
	}
}

// SignupRequest payload
type SignupRequest struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *IdentityController) SignupPost(ctx router.Context) error {
	payload := new(SignupRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("signup parse payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, errorBody("Error parsing body"))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Debug("signup validate payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, validationBody(err))
	}

	var res *SignupResponse

	req := SignupMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(s *SignupResponse) {
			res = s
		},
	}

	if err := a.Signup.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("signup execute: %v", err)
		return a.renderError(ctx, err)
	}

	if res.Stage == SignupResent {
		return ctx.JSON(router.StatusOK, map[string]string{
			"message": "Verification email resent. Please check your inbox.",
		})
	}

	return ctx.JSON(router.StatusCreated, map[string]string{
		"message": "Signup successful. Please verify your email.",
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *IdentityController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, errorBody("Error parsing body"))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Debug("login validate payload: %v", err)
		return ctx.JSON(router.StatusBadRequest, validationBody(err))
	}

	result, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, result)
}

func (a *IdentityController) VerifyEmailGet(ctx router.Context) error {
	token := ctx.Query("token", "")

	var res *VerifyEmailResponse

	req := VerifyEmailMessage{
		Token: token,
		OnResponse: func(v *VerifyEmailResponse) {
			res = v
		},
	}

	if err := a.VerifyEmail.Execute(ctx.Context(), req); err != nil {
		a.Logger.Debug("verify email execute: %v", err)
		// on this endpoint a bad link is a client error, not an auth
		// failure, there is no session to reject
		if IsTokenExpiredError(err) || IsMalformedError(err) {
			return ctx.JSON(router.StatusBadRequest, errorBody("Invalid or expired token"))
		}
		return a.renderError(ctx, err)
	}

	if res.Redirect != "" {
		return ctx.Redirect(res.Redirect, router.StatusFound)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "Email verified.",
		"email":   res.Email,
	})
}

// ProfileGet echoes back the claims the guard resolved. It never reaches
// here without them unless the route was mounted without the guard.
func (a *IdentityController) ProfileGet(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, errorBody("Access denied"))
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": map[string]string{
			"id":    claims.AccountID(),
			"email": claims.Email,
		},
	})
}

// renderError maps workflow errors to their HTTP shape. Rich errors carry
// their own status code; anything else is a 500.
func (a *IdentityController) renderError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Code > 0 {
		return ctx.JSON(richErr.Code, map[string]string{
			"error": richErr.Message,
			"code":  richErr.TextCode,
		})
	}

	return ctx.JSON(router.StatusInternalServerError, errorBody("Internal server error"))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func validationBody(err error) map[string]any {
	body := map[string]any{"error": "Validation failed"}
	if fields, ok := err.(validation.Errors); ok {
		body["fields"] = fields
	}
	return body
}
