package rest

import (
	"github.com/castline/castline/infrastructure/valkey"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Health struct {
	DB     *gorm.DB
	Valkey *valkey.Client
}

func InitRestHealth(app fiber.Router, db *gorm.DB, vk *valkey.Client) Health {
	handler := Health{DB: db, Valkey: vk}

	group := app.Group("/health")
	group.Get("/status", handler.GetStatus)

	return handler
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	status := fiber.Map{
		"database": "ok",
		"valkey":   "disabled",
	}
	healthy := true

	if sqlDB, err := h.DB.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		status["database"] = "unreachable"
		healthy = false
	}

	if h.Valkey != nil {
		if h.Valkey.IsConnected() {
			status["valkey"] = "ok"
		} else {
			status["valkey"] = "unreachable"
			healthy = false
		}
	}

	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	return c.JSON(status)
}
