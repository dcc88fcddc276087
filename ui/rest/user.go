package rest

import (
	domainUser "github.com/castline/castline/domains/user"
	pkgError "github.com/castline/castline/pkg/error"
	"github.com/castline/castline/scheduling/application"
	"github.com/gofiber/fiber/v2"
)

type User struct {
	Service *application.UserService
}

func InitRestUser(app fiber.Router, service *application.UserService) User {
	handler := User{Service: service}

	group := app.Group("/users")
	group.Post("/", handler.Register)
	group.Get("/:id", handler.Get)

	return handler
}

func (h *User) Register(c *fiber.Ctx) error {
	var request domainUser.RegisterRequest
	if err := c.BodyParser(&request); err != nil {
		return respondError(c, pkgError.ValidationError(err.Error()))
	}

	user, err := h.Service.Register(c.UserContext(), request)
	if err != nil {
		return respondError(c, err)
	}
	return respondCreated(c, "User registered", user)
}

func (h *User) Get(c *fiber.Ctx) error {
	user, err := h.Service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "User retrieved", user)
}
