package core

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessage_Render(t *testing.T) {
	msg := &EmailMessage{
		To:              []mail.Address{{Name: "Jane", Address: "jane@test.cd"}},
		Subject:         "Reminder",
		TemplateName:    "watering_reminder",
		FrontendBaseURL: "https://plantcare.test",
		TemplateData: map[string]interface{}{
			"Name": "Jane",
			"Plants": []map[string]string{
				{"Name": "Fern", "LastWatered": "Saturday, June 8, 2024"},
				{"Name": "Cactus & Co", "LastWatered": "Monday, May 6, 2024"},
			},
		},
	}
	require.NoError(t, msg.Render())
	require.NoError(t, msg.Validate())

	assert.Contains(t, msg.TextContent, "Hello Jane!")
	assert.Contains(t, msg.TextContent, "- Fern (Last watered: Saturday, June 8, 2024)")
	assert.Contains(t, msg.TextContent, "- Cactus & Co (Last watered: Monday, May 6, 2024)")
	assert.Contains(t, msg.TextContent, "https://plantcare.test")
	assert.Contains(t, msg.HTMLContent, "<strong>Cactus &amp; Co</strong>")
	assert.Equal(t, "jane@test.cd", msg.Recipients())
}

func TestEmailMessage_RenderErrors(t *testing.T) {
	unknown := &EmailMessage{TemplateName: "nope"}
	assert.Error(t, unknown.Render())

	missingData := &EmailMessage{TemplateName: "watering_reminder", TemplateData: map[string]interface{}{}}
	assert.Error(t, missingData.Render())

	empty := &EmailMessage{To: []mail.Address{{Address: "a@test.cd"}}}
	require.NoError(t, empty.Render())
	assert.Error(t, empty.Validate())

	plain := &EmailMessage{To: []mail.Address{{Address: "a@test.cd"}}, BodyStr: "hi"}
	require.NoError(t, plain.Render())
	assert.NoError(t, plain.Validate())
	assert.Equal(t, "hi", plain.TextContent)
}

func TestErrorKinds(t *testing.T) {
	storeErr := NewStoreError("listing users", assert.AnError)
	assert.ErrorIs(t, storeErr, ErrStoreUnavailable)
	assert.ErrorIs(t, storeErr, assert.AnError)
	assert.NotErrorIs(t, storeErr, ErrDeliveryFailed)
	assert.Nil(t, NewStoreError("noop", nil))

	delErr := NewDeliveryError("a@test.cd", assert.AnError)
	assert.ErrorIs(t, delErr, ErrDeliveryFailed)
	assert.Contains(t, delErr.Error(), "a@test.cd")
}
