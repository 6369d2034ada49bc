package reminder

import (
	"net/mail"

	"github.com/trezcool/plantcare/core"
	"github.com/trezcool/plantcare/core/plant"
	"github.com/trezcool/plantcare/core/user"
)

const (
	templateName   = "watering_reminder"
	DefaultSubject = "Plant Watering Reminder"
)

// NotificationBatch holds the due plants of one owner, in plant store order.
type NotificationBatch struct {
	Owner  user.User
	Plants []plant.Plant
}

// NotificationData is what the watering_reminder templates render.
type NotificationData struct {
	Name   string
	Plants []NotificationPlant
}

type NotificationPlant struct {
	Name        string
	LastWatered string
}

// NewNotification builds the single reminder message of a batch.
// LastWatered dates are formatted in the location they carry.
func NewNotification(batch NotificationBatch, subject string) *core.EmailMessage {
	if subject == "" {
		subject = DefaultSubject
	}

	data := NotificationData{
		Name:   batch.Owner.Name,
		Plants: make([]NotificationPlant, 0, len(batch.Plants)),
	}
	for _, p := range batch.Plants {
		data.Plants = append(data.Plants, NotificationPlant{
			Name:        p.Name,
			LastWatered: plant.FormatDisplayDate(p.LastWatered),
		})
	}

	return &core.EmailMessage{
		To:           []mail.Address{batch.Owner.Address()},
		Subject:      subject,
		TemplateName: templateName,
		TemplateData: data,
	}
}
