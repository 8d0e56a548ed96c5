package server

import (
	"errors"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/PizzaHomicide/lectern/internal/video"
	"github.com/gofiber/fiber/v2"
)

// response is the envelope every JSON endpoint answers with
type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func jsonOK(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(response{Success: true, Data: data})
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(response{Success: false, Message: message})
}

// statusFor maps application errors onto HTTP status codes
func statusFor(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "Missing or invalid token"
	case errors.Is(err, domain.ErrInvalidReport):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrLessonNotFound):
		return fiber.StatusNotFound, "Lesson not found"
	case errors.Is(err, domain.ErrCohortNotFound):
		return fiber.StatusNotFound, "Cohort not found"
	case errors.Is(err, domain.ErrNotEnrolled):
		return fiber.StatusForbidden, "Not enrolled in this cohort"
	case errors.Is(err, video.ErrNotEmbeddable):
		return fiber.StatusUnprocessableEntity, "Lesson video is not embeddable"
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	status, message := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.Error("Request failed", "request_id", c.Locals(localRequestID), "path", c.Path(), "error", err)
	}
	return jsonError(c, status, message)
}
