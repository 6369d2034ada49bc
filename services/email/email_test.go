package emailsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/plantcare/core"
)

func newMessage() *core.EmailMessage {
	return &core.EmailMessage{
		To:      []mail.Address{{Name: "Jane", Address: "jane@test.cd"}},
		Subject: "Hello",
		BodyStr: "Hi there",
	}
}

func TestConsoleService_SendMessage(t *testing.T) {
	var out bytes.Buffer
	svc := &consoleService{
		defaultFromEmail: mail.Address{Name: "PlantCare", Address: "noreply@localhost"},
		subjPrefix:       "[PlantCare] ",
		out:              &out,
		clock:            core.SystemClock,
	}

	require.NoError(t, svc.SendMessage(context.Background(), newMessage()))
	assert.Contains(t, out.String(), "Subject: [PlantCare] Hello\r\n")
	assert.Contains(t, out.String(), `To: "Jane" <jane@test.cd>`)
	assert.Contains(t, out.String(), "Hi there")

	noRcpt := newMessage()
	noRcpt.To = nil
	err := svc.SendMessage(context.Background(), noRcpt)
	assert.True(t, errors.Is(err, core.ErrDeliveryFailed), "error = %v", err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = svc.SendMessage(ctx, newMessage())
	assert.True(t, errors.Is(err, core.ErrDeliveryFailed), "error = %v", err)
}

func TestConsoleServiceMock(t *testing.T) {
	svc := NewConsoleServiceMock()
	require.NoError(t, svc.SendMessage(context.Background(), newMessage()))
	require.Len(t, svc.SentMessages(), 1)
	assert.Equal(t, "Hi there", svc.SentMessages()[0].TextContent)

	svc.Fail = func(*core.EmailMessage) error { return errors.New("smtp down") }
	err := svc.SendMessage(context.Background(), newMessage())
	assert.True(t, errors.Is(err, core.ErrDeliveryFailed), "error = %v", err)
	assert.Len(t, svc.SentMessages(), 1)

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}

func TestSendgridService_SendMessage(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "accepted", status: http.StatusAccepted},
		{name: "refused", status: http.StatusUnauthorized, wantErr: true},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload map[string]interface{}
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, endpoint, r.URL.Path)
				assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
				b, _ := io.ReadAll(r.Body)
				_ = json.Unmarshal(b, &payload)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			origHost := host
			host = srv.URL
			defer func() { host = origHost }()

			conf := &core.Config{
				AppName:          "PlantCare",
				SendgridApiKey:   "key",
				DefaultFromEmail: mail.Address{Name: "PlantCare", Address: "noreply@localhost"},
			}
			svc := NewSendgridService(conf, core.NopLogger{})

			err := svc.SendMessage(context.Background(), newMessage())
			if (err != nil) != tt.wantErr {
				t.Fatalf("SendMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				assert.True(t, errors.Is(err, core.ErrDeliveryFailed))
			}
			pers := payload["personalizations"].([]interface{})[0].(map[string]interface{})
			assert.Equal(t, "[PlantCare] Hello", pers["subject"])
		})
	}
}
