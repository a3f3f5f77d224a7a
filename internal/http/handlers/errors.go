package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "pumarket/internal/log"
	"pumarket/internal/services"
	"pumarket/internal/storage"
)

const genericFailure = "Something went wrong. Please try again."

// statusFor maps service and storage errors to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalid),
		errors.Is(err, services.ErrImageMissing),
		errors.Is(err, storage.ErrTooLarge),
		errors.Is(err, storage.ErrBadKey):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrAuthRequired), errors.Is(err, services.ErrBadCreds), errors.Is(err, services.ErrBadToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrQuotaReached),
		errors.Is(err, services.ErrUnavailable),
		errors.Is(err, services.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrThrottled):
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// userMessage is the text shown for err. Unexpected errors never leak.
func userMessage(err error) string {
	switch {
	case statusFor(err) == fiber.StatusInternalServerError:
		return genericFailure
	case errors.Is(err, storage.ErrTooLarge):
		return "That image is too large."
	case errors.Is(err, services.ErrInvalid):
		msg := strings.TrimPrefix(err.Error(), services.ErrInvalid.Error()+": ")
		if msg == "" {
			return "Please check the form and try again."
		}
		return strings.ToUpper(msg[:1]) + msg[1:] + "."
	default:
		msg := err.Error()
		return strings.ToUpper(msg[:1]) + msg[1:] + "."
	}
}

// fail logs err at the level its status deserves and renders a message page.
func fail(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	status := statusFor(err)
	c.Status(status)
	switch {
	case status == fiber.StatusInternalServerError:
		applog.Error(c, action+".fail", err, fields)
	case status == fiber.StatusForbidden:
		applog.Security(c, "access.denied."+action, fields)
	case status == fiber.StatusBadRequest:
		applog.Security(c, "validation.fail", withReason(fields, action, err))
	default:
		applog.Info(c, action+".rejected", withReason(fields, action, err))
	}
	return page(c, status, userMessage(err))
}

func withReason(fields map[string]any, action string, err error) map[string]any {
	out := map[string]any{"op": action, "reason": err.Error()}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// ErrorHandler is the application-wide fiber error handler. Internal
// details are logged, never rendered.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := genericFailure
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		status = fe.Code
		msg = "We could not handle that request."
		if status == fiber.StatusNotFound {
			msg = "Page not found"
		}
		if status == fiber.StatusRequestEntityTooLarge {
			msg = "That upload is too large."
		}
	}
	c.Status(status)
	applog.Error(c, "server.error", err, nil)
	if rerr := c.Render("notfound", fiber.Map{"Message": msg, "Theme": theme(c)}); rerr != nil {
		return c.Status(status).SendString(msg)
	}
	return nil
}
