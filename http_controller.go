package staff

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Controller serves the JSON API. Every handler returns errors to the
// app level error handler; success bodies are written in place.
type Controller struct {
	Debug    bool
	Logger   Logger
	Repo     RepositoryManager
	Tokens   TokenService
	Provider *UserProvider
	Avatars  AvatarStorage
	UserKey  string
}

type ControllerOption func(*Controller) *Controller

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		Logger:  defLogger{},
		Avatars: NoAvatarStorage{},
		UserKey: "current_user",
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in controller...")
	}

	if c.Provider == nil {
		c.Provider = NewUserProvider(c.Repo.Users())
	}

	return c
}

func WithControllerLogger(l Logger) ControllerOption {
	return func(c *Controller) *Controller {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithRepositoryManager(repo RepositoryManager) ControllerOption {
	return func(c *Controller) *Controller {
		c.Repo = repo
		return c
	}
}

func WithTokenService(tokens TokenService) ControllerOption {
	return func(c *Controller) *Controller {
		c.Tokens = tokens
		return c
	}
}

func WithAvatarStorage(store AvatarStorage) ControllerOption {
	return func(c *Controller) *Controller {
		if store != nil {
			c.Avatars = store
		}
		return c
	}
}

func WithUserContextKey(key string) ControllerOption {
	return func(c *Controller) *Controller {
		if key != "" {
			c.UserKey = key
		}
		return c
	}
}

// RegisterRoutes mounts the API. The gate middleware runs on every
// route that requires a bearer token; login and signup stay public.
func RegisterRoutes(app *fiber.App, gate fiber.Handler, c *Controller) {
	app.Get("/health", c.Health)
	app.Post("/login", c.Login)
	app.Post("/users", c.Create)

	app.Get("/me", gate, c.Me)
	app.Get("/users", gate, c.Index)
	app.Get("/users/:id", gate, c.Show)
	app.Patch("/users/:id", gate, c.Update)
	app.Put("/users/:id", gate, c.Update)
	app.Delete("/users/:id", gate, c.Destroy)
	app.Get("/uploads/presign", gate, c.PresignUpload)
}

func (a *Controller) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "online"})
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

// Login verifies credentials and hands back a signed token. Any failure
// in parsing, validation, or verification collapses into the same 401
// body so callers learn nothing about which accounts exist.
func (a *Controller) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		return respond(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	if err := payload.Validate(); err != nil {
		return respond(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	user, err := a.Provider.VerifyIdentity(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Info("login rejected", "email", payload.Email)
		return respond(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	token, err := a.Tokens.Generate(user)
	if err != nil {
		return err
	}

	return c.JSON(DataEnvelope{
		Data:    token,
		Status:  fiber.StatusOK,
		Message: "You are logged in successfully",
	})
}

// Me returns the profile of whoever owns the presented token.
func (a *Controller) Me(c *fiber.Ctx) error {
	user, ok := UserFromFiber(c, a.UserKey)
	if !ok {
		return respond(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	profile, err := ProjectUser(c.UserContext(), user, a.Avatars)
	if err != nil {
		return err
	}

	return c.JSON(DataEnvelope{
		Data:   profile,
		Status: fiber.StatusOK,
	})
}

func (a *Controller) Index(c *fiber.Ctx) error {
	records, err := a.Repo.Users().List(c.UserContext())
	if err != nil {
		return err
	}

	profiles, err := ProjectUsers(c.UserContext(), records, a.Avatars)
	if err != nil {
		return err
	}

	return c.JSON(profiles)
}

func (a *Controller) Show(c *fiber.Ctx) error {
	current, ok := UserFromFiber(c, a.UserKey)
	if !ok {
		return respond(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respond(c, fiber.StatusNotFound, "Not Found")
	}

	if !current.CanAccess(id) {
		return ErrForbidden
	}

	user, err := a.Repo.Users().Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	profile, err := ProjectUser(c.UserContext(), user, a.Avatars)
	if err != nil {
		return err
	}

	return c.JSON(profile)
}

// CreateUserPayload is the signup body
type CreateUserPayload struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Admin    bool   `form:"admin" json:"admin"`
	Avatar   string `form:"avatar" json:"avatar"`
}

// Validate will validate the payload
func (r CreateUserPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(4, 254), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 72)),
	)
}

func (a *Controller) Create(c *fiber.Ctx) error {
	payload := new(CreateUserPayload)

	if err := c.BodyParser(payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("create user validate payload: %s", err)
		return err
	}

	handler := NewRegisterUserHandler(a.Repo)
	user, err := handler.Execute(c.UserContext(), RegisterUserMessage{
		Name:      payload.Name,
		Email:     payload.Email,
		Password:  payload.Password,
		Admin:     payload.Admin,
		AvatarKey: payload.Avatar,
	})
	if err != nil {
		return err
	}

	profile, err := ProjectUser(c.UserContext(), user, a.Avatars)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(profile)
}

// UpdateUserPayload carries partial updates, nil means leave alone.
type UpdateUserPayload struct {
	Name     *string `form:"name" json:"name"`
	Email    *string `form:"email" json:"email"`
	Password *string `form:"password" json:"password"`
	Admin    *bool   `form:"admin" json:"admin"`
	Avatar   *string `form:"avatar" json:"avatar"`
}

// Validate will validate the payload
func (r UpdateUserPayload) Validate() error {
	fields := []*validation.FieldRules{}

	if r.Name != nil {
		fields = append(fields, validation.Field(&r.Name, validation.Required, validation.Length(1, 200)))
	}
	if r.Email != nil {
		fields = append(fields, validation.Field(&r.Email, validation.Required, validation.Length(4, 254), is.Email))
	}
	if r.Password != nil {
		fields = append(fields, validation.Field(&r.Password, validation.Required, validation.Length(6, 72)))
	}

	return validation.ValidateStruct(&r, fields...)
}

func (a *Controller) Update(c *fiber.Ctx) error {
	current, ok := UserFromFiber(c, a.UserKey)
	if !ok {
		return respond(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respond(c, fiber.StatusNotFound, "Not Found")
	}

	if !current.CanAccess(id) {
		return ErrForbidden
	}

	payload := new(UpdateUserPayload)
	if err := c.BodyParser(payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("update user validate payload: %s", err)
		return err
	}

	user, err := a.Repo.Users().Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	if payload.Name != nil {
		user.Name = *payload.Name
	}
	if payload.Email != nil {
		user.Email = *payload.Email
	}
	if payload.Password != nil {
		hash, err := HashPassword(*payload.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
		}
		user.PasswordHash = hash
	}
	if payload.Admin != nil {
		// only admins grant or revoke the flag, self-edits cannot escalate
		if !current.Admin {
			return ErrForbidden
		}
		user.Admin = *payload.Admin
	}

	var staleAvatar string
	if payload.Avatar != nil && *payload.Avatar != user.AvatarKey {
		staleAvatar = user.AvatarKey
		user.AvatarKey = *payload.Avatar
	}

	user, err = a.Repo.Users().Update(c.UserContext(), user)
	if err != nil {
		return err
	}

	if staleAvatar != "" {
		if err := a.Avatars.Purge(c.UserContext(), staleAvatar); err != nil {
			a.Logger.Warn("failed to purge replaced avatar %s: %s", staleAvatar, err)
		}
	}

	profile, err := ProjectUser(c.UserContext(), user, a.Avatars)
	if err != nil {
		return err
	}

	return c.JSON(profile)
}

func (a *Controller) Destroy(c *fiber.Ctx) error {
	current, ok := UserFromFiber(c, a.UserKey)
	if !ok {
		return respond(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respond(c, fiber.StatusNotFound, "Not Found")
	}

	if !current.CanAccess(id) {
		return ErrForbidden
	}

	user, err := a.Repo.Users().Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	if err := a.Repo.Users().Delete(c.UserContext(), id); err != nil {
		return err
	}

	if user.AvatarKey != "" {
		if err := a.Avatars.Purge(c.UserContext(), user.AvatarKey); err != nil {
			a.Logger.Warn("failed to purge avatar %s: %s", user.AvatarKey, err)
		}
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// PresignUpload grants the caller a direct upload slot for their new
// avatar. The returned key is what they later PATCH into their profile.
func (a *Controller) PresignUpload(c *fiber.Ctx) error {
	filename := c.Query("filename")
	if filename == "" {
		return validation.Errors{
			"filename": fmt.Errorf("cannot be blank"),
		}
	}

	key, url, err := a.Avatars.PresignUpload(c.UserContext(), filename, c.Query("content_type"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"url": url,
		"key": key,
	})
}
