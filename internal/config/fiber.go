package config

import (
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

func NewFiber(logger *logrus.Logger, cfg AppConfig) *fiber.App {
	bodyLimit := cfg.BodyLimitMB
	if bodyLimit < 1 {
		bodyLimit = 100
	}

	app := fiber.New(
		fiber.Config{
			AppName:           "SmoothTrack",
			BodyLimit:         bodyLimit * 1024 * 1024,
			DisableKeepalive:  false,
			StrictRouting:     true,
			CaseSensitive:     true,
			EnablePrintRoutes: cfg.Env != "test",
			JSONEncoder:       jsoniter.Marshal,
			JSONDecoder:       jsoniter.Unmarshal,
		})

	logger.WithField("body_limit_mb", bodyLimit).Debug("Fiber app configured")

	return app
}
