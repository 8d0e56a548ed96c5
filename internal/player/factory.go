package player

import (
	"github.com/PizzaHomicide/lectern/internal/config"
	"github.com/PizzaHomicide/lectern/internal/log"
)

// CreateMediaElement creates a new media element based on the configuration
func CreateMediaElement(cfg config.PlayerConfig) MediaElement {
	log.Info("Creating media element", "type", cfg.Type)

	switch cfg.Type {
	case "mpv":
		return NewMPVElement(cfg)
	default:
		log.Warn("Unknown player type, falling back to MPV", "type", cfg.Type)
		return NewMPVElement(cfg)
	}
}
