package journeystore

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
)

func SetupServer(listen string, store *Store) error {
	webApp := fiber.New()
	webApp.Use(newLogger())

	webApp.Get("/journeys", func(c *fiber.Ctx) error {
		journeys := store.Values()

		journeysReduced, err := sheriff.Marshal(&sheriff.Options{
			Groups: []string{"basic"},
		}, journeys)
		if err != nil {
			c.SendStatus(fiber.StatusInternalServerError)
			return c.JSON(fiber.Map{
				"error": "Sherrif could not reduce journeys",
			})
		}

		return c.JSON(fiber.Map{
			"journeys":    journeysReduced,
			"count":       len(journeys),
			"generatedAt": time.Now(),
		})
	})

	return webApp.Listen(listen)
}
