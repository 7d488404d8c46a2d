package utils

import "github.com/gofiber/fiber/v2"

// SuccessResponse writes the standard success envelope.
func SuccessResponse(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// ErrorResponse writes the standard error envelope. The wrapped error, when
// present, is exposed as a detail string for API consumers.
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	body := fiber.Map{
		"message": message,
		"code":    status,
	}
	if err != nil {
		body["detail"] = err.Error()
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   body,
	})
}
