package rest

import (
	"errors"

	pkgError "github.com/castline/castline/pkg/error"
	"github.com/castline/castline/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// userIDHeader identifies the acting user. The auth layer in front of the API
// is responsible for making it trustworthy; the handlers only require it.
const userIDHeader = "X-User-ID"

func requireUserID(c *fiber.Ctx) (string, bool) {
	userID := c.Get(userIDHeader)
	return userID, userID != ""
}

func missingUserID(c *fiber.Ctx) error {
	return respondError(c, pkgError.ValidationError(userIDHeader+" header is required"))
}

// respondError maps typed errors to their HTTP status; anything untyped is a 500.
func respondError(c *fiber.Ctx, err error) error {
	var generic pkgError.GenericError
	if errors.As(err, &generic) {
		return c.Status(generic.StatusCode()).JSON(utils.ResponseData{
			Status:  generic.StatusCode(),
			Code:    generic.ErrCode(),
			Message: generic.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(utils.ResponseData{
		Status:  fiber.StatusInternalServerError,
		Code:    "INTERNAL_SERVER_ERROR",
		Message: err.Error(),
	})
}

func respondOK(c *fiber.Ctx, message string, results interface{}) error {
	return c.JSON(utils.ResponseData{
		Status:  fiber.StatusOK,
		Code:    "SUCCESS",
		Message: message,
		Results: results,
	})
}

func respondCreated(c *fiber.Ctx, message string, results interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(utils.ResponseData{
		Status:  fiber.StatusCreated,
		Code:    "SUCCESS",
		Message: message,
		Results: results,
	})
}
