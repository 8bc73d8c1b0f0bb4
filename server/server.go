package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	auth "github.com/hbiu/lms-auth"
	"github.com/uptrace/bun"
)

const sessionUserKey = "session_user"

// Server is the reference identity API the session core talks to. It serves
// the /auth endpoints with the same heterogeneous response shapes the client
// decoder documents.
type Server struct {
	app    *fiber.App
	db     *bun.DB
	users  Users
	tokens *TokenService
	logger auth.Logger
	debug  bool
}

type Option func(*Server)

// WithLogger overrides the default logger
func WithLogger(l auth.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDebug enables request payload dumps
func WithDebug(debug bool) Option {
	return func(s *Server) {
		s.debug = debug
	}
}

// WithUsers overrides the default users repository
func WithUsers(users Users) Option {
	return func(s *Server) {
		if users != nil {
			s.users = users
		}
	}
}

// New wires the identity API on top of the given database handle
func New(db *bun.DB, tokens *TokenService, opts ...Option) *Server {
	s := &Server{
		app:    fiber.New(fiber.Config{AppName: "lms-identity"}),
		db:     db,
		users:  NewUsersRepository(db),
		tokens: tokens,
		logger: auth.DefaultLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.routes()

	return s
}

// App exposes the underlying fiber app, mainly for app.Test
func (s *Server) App() *fiber.App {
	return s.app
}

// Init creates the users table if needed
func (s *Server) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*auth.User)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Seed registers the demo identities so a fresh install answers the same
// credentials the offline table does.
func (s *Server) Seed(ctx context.Context) error {
	hash, err := auth.HashPassword(auth.DemoPassword)
	if err != nil {
		return err
	}

	for _, user := range auth.DemoUsers() {
		if _, err := s.users.GetByEmail(ctx, user.Email); err == nil {
			continue
		} else if !repository.IsRecordNotFound(err) {
			return err
		}

		user.PasswordHash = hash
		if _, err := s.users.Register(ctx, user); err != nil {
			return err
		}
	}

	return nil
}

// Listen serves the API on the given address
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) routes() {
	api := s.app.Group("/api/auth")

	api.Post("/login", s.loginPost)
	api.Post("/register", s.registerPost)
	api.Get("/me", s.requireSession, s.meGet)
	api.Put("/me", s.requireSession, s.mePut)
}

func (s *Server) loginPost(c *fiber.Ctx) error {
	payload := new(auth.LoginRequest)
	if err := c.BodyParser(payload); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "failed to parse body")
	}

	if err := payload.Validate(); err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	if s.debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	user, err := s.users.GetByEmail(c.Context(), payload.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return errorJSON(c, fiber.StatusUnauthorized, "the credentials provided are invalid")
		}
		s.logger.Error("login lookup failed: %v", err)
		return errorJSON(c, fiber.StatusInternalServerError, "login failed")
	}

	if err := auth.ComparePasswordAndHash(payload.Password, user.PasswordHash); err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "the credentials provided are invalid")
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		s.logger.Error("token mint failed: %v", err)
		return errorJSON(c, fiber.StatusInternalServerError, "login failed")
	}

	return c.JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

func (s *Server) registerPost(c *fiber.Ctx) error {
	payload := new(auth.RegisterRequest)
	if err := c.BodyParser(payload); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "failed to parse body")
	}

	if err := payload.Validate(); err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	ctx := c.Context()

	if _, err := s.users.GetByEmail(ctx, payload.Email); err == nil {
		return errorJSON(c, fiber.StatusConflict, "email is already registered")
	} else if !repository.IsRecordNotFound(err) {
		s.logger.Error("register lookup failed: %v", err)
		return errorJSON(c, fiber.StatusInternalServerError, "registration failed")
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		return errorJSON(c, fiber.StatusUnprocessableEntity, "invalid password")
	}

	user := &auth.User{
		Role:         payload.Role,
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Email:        payload.Email,
		Phone:        payload.Phone,
		PasswordHash: hash,
	}

	if id, err := hashid.NewUUID(user.Email); err == nil {
		user.ID = id
	}

	record, err := s.users.Register(ctx, user)
	if err != nil {
		s.logger.Error("register failed: %v", err)
		return errorJSON(c, fiber.StatusInternalServerError, "registration failed")
	}

	token, err := s.tokens.Generate(record)
	if err != nil {
		s.logger.Error("token mint failed: %v", err)
		return errorJSON(c, fiber.StatusInternalServerError, "registration failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user":  record,
			"token": token,
		},
	})
}

func (s *Server) meGet(c *fiber.Ctx) error {
	user := sessionUser(c)
	if user == nil {
		return errorJSON(c, fiber.StatusUnauthorized, "session token missing or rejected")
	}

	return c.JSON(user)
}

func (s *Server) mePut(c *fiber.Ctx) error {
	user := sessionUser(c)
	if user == nil {
		return errorJSON(c, fiber.StatusUnauthorized, "session token missing or rejected")
	}

	patch := new(auth.ProfilePatch)
	if err := c.BodyParser(patch); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "failed to parse body")
	}

	ctx := c.Context()

	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if email != user.Email {
			if _, err := s.users.GetByEmail(ctx, email); err == nil {
				return errorJSON(c, fiber.StatusConflict, "email is already registered")
			} else if !repository.IsRecordNotFound(err) {
				s.logger.Error("profile lookup failed: %v", err)
				return errorJSON(c, fiber.StatusInternalServerError, "profile update failed")
			}
		}
		patch.Email = &email
	}

	if patch.IsEmpty() {
		return c.JSON(fiber.Map{"data": user})
	}

	patch.Apply(user)

	record, err := s.users.UpdateTx(ctx, s.db, user, repository.UpdateByID(user.ID.String()))
	if err != nil {
		s.logger.Error("profile update failed: %v", err)
		return errorJSON(c, fiber.StatusInternalServerError, "profile update failed")
	}

	return c.JSON(fiber.Map{"data": record})
}

// requireSession resolves the bearer token into a user record and stashes it
// in the request locals.
func (s *Server) requireSession(c *fiber.Ctx) error {
	raw := bearerToken(c.Get(fiber.HeaderAuthorization))
	if raw == "" {
		return errorJSON(c, fiber.StatusUnauthorized, "session token missing or rejected")
	}

	claims, err := s.tokens.Validate(raw)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "session token missing or rejected")
	}

	id, err := uuid.Parse(claims.UID)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "session token missing or rejected")
	}

	user, err := s.users.GetByID(c.Context(), id.String())
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "session token missing or rejected")
	}

	c.Locals(sessionUserKey, user)

	return c.Next()
}

func sessionUser(c *fiber.Ctx) *auth.User {
	user, _ := c.Locals(sessionUserKey).(*auth.User)
	return user
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"message": message,
		},
	})
}
