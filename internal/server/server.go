// Package server is the static file surface: three routes, nothing else.
// It only ever reads the downloads directory; files appear there fully
// written before their names are handed out, so no partial clip is ever
// served.
package server

import (
	"errors"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ablomer/steam-clip-bot/internal/logging"
	"github.com/ablomer/steam-clip-bot/internal/storage"
)

// New builds the fiber app serving stored clips. clips may be nil, in which
// case the health payload omits the indexed count.
func New(store *storage.Store, clips *storage.ClipIndex) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	log := logging.Component("server")

	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "Steam Clip Bot File Server",
			"version": "1.0.0",
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		_, statErr := os.Stat(store.Dir())
		resp := fiber.Map{
			"status":               "healthy",
			"downloads_dir":        store.Dir(),
			"downloads_dir_exists": statErr == nil,
			"file_count":           store.FileCount(),
		}
		if clips != nil {
			if count, err := clips.Count(); err == nil {
				resp["clips_indexed"] = count
			} else {
				log.Error().Err(err).Msg("failed to count indexed clips")
			}
		}
		return c.JSON(resp)
	})

	app.Get("/:filename", func(c *fiber.Ctx) error {
		filename := c.Params("filename")

		path, err := store.Resolve(filename)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "file not found"})
		case errors.Is(err, storage.ErrInvalidName):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "invalid file path"})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read file"})
		}

		if err := c.SendFile(path); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to send file"})
		}
		// SendFile guesses the content type from the extension; override it
		// with the clip map so mkv/flv embed correctly.
		c.Set(fiber.HeaderContentType, store.MIMEType(filename))
		return nil
	})

	return app
}
