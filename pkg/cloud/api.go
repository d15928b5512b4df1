package cloud

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterAPIRoutes registers the read-only robot API
func (h *Collector) RegisterAPIRoutes(api fiber.Router) {
	robots := api.Group("/robots")

	// List connected robots
	robots.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"robots": h.GetRobotInfos(),
			"count":  h.RobotCount(),
		})
	})

	// Get collector stats
	robots.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})

	// Latest snapshot of a connected robot
	robots.Get("/:id/latest", func(c *fiber.Ctx) error {
		robot := h.GetRobot(c.Params("id"))
		if robot == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "robot not connected"})
		}
		latest := robot.Latest()
		if latest == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no snapshot yet"})
		}
		return c.JSON(latest)
	})

	// Persisted history, newest first
	robots.Get("/:id/history", func(c *fiber.Ctx) error {
		if h.store == nil {
			return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "history disabled"})
		}
		limit := c.QueryInt("limit", DefaultHistoryLimit)
		if limit < 1 || limit > 10000 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be 1..10000"})
		}
		records, err := h.store.History(c.UserContext(), c.Params("id"), limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{
			"robot":   c.Params("id"),
			"records": records,
			"count":   len(records),
		})
	})
}
