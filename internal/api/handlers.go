package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lindaliu1/endangered-ocean/internal/store"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

// handleDebugDB confirms environment wiring in dev without exposing
// credentials.
func (s *Server) handleDebugDB(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"database_url": s.store.RedactedURL()})
}

func (s *Server) handleListSpecies(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit < 1 || limit > 500 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 500")
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "offset must not be negative")
	}
	status := strings.TrimSpace(c.Query("status"))
	if status != "" && status != "Endangered" && status != "Threatened" {
		return fiber.NewError(fiber.StatusBadRequest, "status must be Endangered or Threatened")
	}

	records, err := s.store.ListSpecies(c.Context(), store.SpeciesFilter{
		Status: status,
		Threat: strings.TrimSpace(c.Query("threat")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(records)
}

func (s *Server) handleGetSpecies(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid species id")
	}

	rec, err := s.store.GetSpecies(c.Context(), int64(id))
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "species not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

func (s *Server) handleListThreats(c *fiber.Ctx) error {
	threats, err := s.store.ListThreats(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(threats)
}
