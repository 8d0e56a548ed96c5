package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PizzaHomicide/lectern/internal/domain"
	"github.com/PizzaHomicide/lectern/internal/video"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type progressRequest struct {
	LessonID  uint `json:"lessonId" validate:"required"`
	WatchTime *int `json:"watchTime" validate:"required,gte=0"`
	Completed bool `json:"completed"`
}

// reportProgress handles POST /progress
func (s *Server) reportProgress(c *fiber.Ctx) error {
	var req progressRequest
	if err := c.BodyParser(&req); err != nil {
		return fmt.Errorf("%w: malformed body", domain.ErrInvalidReport)
	}
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidReport, validationMessage(err))
	}

	res, err := s.svc.Progress.ReportProgress(c.UserContext(), studentID(c), domain.ProgressReport{
		LessonID:         req.LessonID,
		WatchTimeSeconds: *req.WatchTime,
		Completed:        req.Completed,
	})
	if err != nil {
		return err
	}

	body := fiber.Map{
		"success":   true,
		"watchTime": res.WatchTimeSeconds,
		"completed": res.Completed,
	}
	if res.Created {
		body["created"] = true
	} else {
		body["updated"] = true
	}
	return c.Status(fiber.StatusOK).JSON(body)
}

// getProgress handles GET /progress.  With lessonId it returns that lesson's row, with cohortId the cohort summary,
// otherwise every row of the caller.
func (s *Server) getProgress(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if raw := c.Query("lessonId"); raw != "" {
		id, err := parseID(raw, "lessonId")
		if err != nil {
			return err
		}
		rows, err := s.svc.Progress.LessonProgress(ctx, studentID(c), id)
		if err != nil {
			return err
		}
		return jsonOK(c, rows)
	}

	if raw := c.Query("cohortId"); raw != "" {
		id, err := parseID(raw, "cohortId")
		if err != nil {
			return err
		}
		summary, err := s.svc.Aggregator.SummarizeCohort(ctx, studentID(c), id)
		if err != nil {
			return err
		}
		return jsonOK(c, summary)
	}

	rows, err := s.svc.Progress.ListProgress(ctx, studentID(c))
	if err != nil {
		return err
	}
	return jsonOK(c, rows)
}

// dashboard handles GET /progress/dashboard
func (s *Server) dashboard(c *fiber.Ctx) error {
	cards, err := s.svc.Aggregator.Dashboard(c.UserContext(), studentID(c))
	if err != nil {
		return err
	}
	return jsonOK(c, cards)
}

// cohortLessons handles GET /cohorts/:id/lessons
func (s *Server) cohortLessons(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"), "id")
	if err != nil {
		return err
	}
	entries, err := s.svc.Catalog.CohortLessons(c.UserContext(), studentID(c), id)
	if err != nil {
		return err
	}
	return jsonOK(c, entries)
}

// lessonEmbed handles GET /lessons/:id/embed with a standalone page hosting the provider's sandboxed player
func (s *Server) lessonEmbed(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"), "id")
	if err != nil {
		return err
	}
	embed, err := s.svc.Catalog.LessonEmbed(c.UserContext(), studentID(c), id)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	c.Set("X-Frame-Options", "SAMEORIGIN")
	return video.RenderEmbedPage(c.Response().BodyWriter(), embed)
}

func parseID(raw, name string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s must be a positive integer", name))
	}
	return uint(id), nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", jsonName(fe.Field())))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must not be negative", jsonName(fe.Field())))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", jsonName(fe.Field())))
		}
	}
	return strings.Join(msgs, ", ")
}

func jsonName(field string) string {
	switch field {
	case "LessonID":
		return "lessonId"
	case "WatchTime":
		return "watchTime"
	default:
		return field
	}
}
