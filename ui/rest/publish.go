package rest

import (
	"github.com/castline/castline/scheduling/application"
	"github.com/gofiber/fiber/v2"
)

type Publish struct {
	Publisher *application.PublisherService
}

// InitRestPublish exposes the orchestrator for operational tooling: a manual
// full run and a manual single-cast retry.
func InitRestPublish(app fiber.Router, publisher *application.PublisherService) Publish {
	handler := Publish{Publisher: publisher}

	group := app.Group("/publish")
	group.Post("/run", handler.Run)
	group.Post("/:id", handler.PublishOne)

	return handler
}

func (h *Publish) Run(c *fiber.Ctx) error {
	summary, err := h.Publisher.RunOnce(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Publisher run complete", summary)
}

func (h *Publish) PublishOne(c *fiber.Ctx) error {
	outcome, err := h.Publisher.PublishOne(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Publish attempt finished", outcome)
}
