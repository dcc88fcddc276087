package rest

import (
	domainCast "github.com/castline/castline/domains/cast"
	pkgError "github.com/castline/castline/pkg/error"
	"github.com/castline/castline/scheduling/application"
	"github.com/castline/castline/scheduling/domain"
	"github.com/gofiber/fiber/v2"
)

type Cast struct {
	Scheduler *application.SchedulerService
}

func InitRestCast(app fiber.Router, scheduler *application.SchedulerService) Cast {
	handler := Cast{Scheduler: scheduler}

	group := app.Group("/casts")
	group.Post("/", handler.Schedule)
	group.Post("/batch", handler.ScheduleBatch)
	group.Get("/", handler.List)
	group.Get("/stats", handler.Stats)
	group.Patch("/:id", handler.Update)
	group.Post("/:id/cancel", handler.Cancel)
	group.Post("/:id/retry", handler.Retry)
	group.Delete("/:id", handler.Delete)

	return handler
}

func (h *Cast) Schedule(c *fiber.Ctx) error {
	userID, ok := requireUserID(c)
	if !ok {
		return missingUserID(c)
	}

	var request domainCast.ScheduleRequest
	if err := c.BodyParser(&request); err != nil {
		return respondError(c, pkgError.ValidationError(err.Error()))
	}

	created, err := h.Scheduler.Schedule(c.UserContext(), userID, request)
	if err != nil {
		return respondError(c, err)
	}
	return respondCreated(c, "Cast scheduled", created)
}

func (h *Cast) ScheduleBatch(c *fiber.Ctx) error {
	userID, ok := requireUserID(c)
	if !ok {
		return missingUserID(c)
	}

	var request domainCast.BatchScheduleRequest
	if err := c.BodyParser(&request); err != nil {
		return respondError(c, pkgError.ValidationError(err.Error()))
	}
	if len(request.Casts) == 0 {
		return respondError(c, pkgError.ValidationError("casts list is empty"))
	}

	results := h.Scheduler.ScheduleBatch(c.UserContext(), userID, request)
	return respondOK(c, "Batch processed", results)
}

func (h *Cast) List(c *fiber.Ctx) error {
	userID, ok := requireUserID(c)
	if !ok {
		return missingUserID(c)
	}

	var request domainCast.ListRequest
	if err := c.QueryParser(&request); err != nil {
		return respondError(c, pkgError.ValidationError(err.Error()))
	}

	casts, err := h.Scheduler.ListByUser(c.UserContext(), userID, domain.ListOptions{
		Status: domain.CastStatus(request.Status),
		Limit:  request.Limit,
		Offset: request.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Casts retrieved", casts)
}

func (h *Cast) Stats(c *fiber.Ctx) error {
	userID, ok := requireUserID(c)
	if !ok {
		return missingUserID(c)
	}

	counts, err := h.Scheduler.Stats(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Stats retrieved", counts)
}

func (h *Cast) Update(c *fiber.Ctx) error {
	userID, ok := requireUserID(c)
	if !ok {
		return missingUserID(c)
	}

	var request domainCast.UpdateRequest
	if err := c.BodyParser(&request); err != nil {
		return respondError(c, pkgError.ValidationError(err.Error()))
	}

	updated, err := h.Scheduler.Update(c.UserContext(), c.Params("id"), userID, request)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Cast updated", updated)
}

func (h *Cast) Cancel(c *fiber.Ctx) error {
	userID, ok := requireUserID(c)
	if !ok {
		return missingUserID(c)
	}

	if err := h.Scheduler.Cancel(c.UserContext(), c.Params("id"), userID); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Cast cancelled", nil)
}

func (h *Cast) Retry(c *fiber.Ctx) error {
	userID, ok := requireUserID(c)
	if !ok {
		return missingUserID(c)
	}

	var request domainCast.RetryRequest
	if err := c.BodyParser(&request); err != nil {
		return respondError(c, pkgError.ValidationError(err.Error()))
	}

	requeued, err := h.Scheduler.Retry(c.UserContext(), c.Params("id"), userID, request.ScheduledAt)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Cast re-enqueued", requeued)
}

func (h *Cast) Delete(c *fiber.Ctx) error {
	userID, ok := requireUserID(c)
	if !ok {
		return missingUserID(c)
	}

	if err := h.Scheduler.Delete(c.UserContext(), c.Params("id"), userID); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, "Cast deleted", nil)
}
