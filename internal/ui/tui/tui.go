package tui

import (
	"fmt"

	"github.com/PizzaHomicide/lectern/internal/client"
	"github.com/PizzaHomicide/lectern/internal/config"
	"github.com/PizzaHomicide/lectern/internal/service"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/models"
	tea "github.com/charmbracelet/bubbletea"
)

func Run(cfg *config.Config) error {
	apiClient, err := client.New(cfg.Client)
	if err != nil {
		return fmt.Errorf("failed to create service client: %w", err)
	}
	lessonService := service.NewLessonService(apiClient, cfg.Client.CohortID)

	p := tea.NewProgram(models.NewAppModel(cfg, lessonService, apiClient), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
