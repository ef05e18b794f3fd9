package checkin

import (
	"fmt"

	"calmnest-api/internal/config"
	"calmnest-api/internal/slot"
)

// Templates holds the check-in text sent for each slot.
type Templates map[slot.Slot]string

func DefaultTemplates() Templates {
	return Templates{
		slot.Morning:   "Good morning 🌅 How are you feeling today?",
		slot.Afternoon: "Hey there 🌤️ Just checking in — how's your afternoon going?",
		slot.Evening:   "Good evening 🌆 How was your day? I'm here if you want to talk.",
		slot.Night:     "Hey 🌙 Winding down? Remember, it's okay to rest. I'm here if you need me.",
	}
}

// TemplatesFromConfig overlays configured texts on the defaults.
func TemplatesFromConfig(cfg config.CheckinTemplates) Templates {
	t := DefaultTemplates()
	for s, text := range map[slot.Slot]string{
		slot.Morning:   cfg.Morning,
		slot.Afternoon: cfg.Afternoon,
		slot.Evening:   cfg.Evening,
		slot.Night:     cfg.Night,
	} {
		if text != "" {
			t[s] = text
		}
	}
	return t
}

func (t Templates) Validate() error {
	for _, s := range slot.All {
		if t[s] == "" {
			return fmt.Errorf("missing check-in template for %s", s)
		}
	}
	return nil
}
