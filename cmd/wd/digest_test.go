package main

import (
	"strings"
	"testing"

	"github.com/wheelsdeals/tireshop/internal/config"
)

func TestDigestCmd_RequiresPlatform(t *testing.T) {
	cfg := writeTestConfig(t, "")
	_, err := run(t, "digest", "-c", cfg)
	if err == nil || !strings.Contains(err.Error(), "telegraph.platform") {
		t.Errorf("err = %v, want platform error", err)
	}
}

func TestCreateAdapter(t *testing.T) {
	tests := []struct {
		name    string
		tg      config.TelegraphConfig
		wantNil bool
		wantErr string
	}{
		{name: "disabled", wantNil: true},
		{name: "slack", tg: config.TelegraphConfig{Platform: "slack", Channel: "C1", Slack: config.SlackConfig{BotToken: "xoxb-test"}}},
		{name: "discord", tg: config.TelegraphConfig{Platform: "discord", Channel: "123", Discord: config.DiscordConfig{BotToken: "token"}}},
		{name: "slack without token", tg: config.TelegraphConfig{Platform: "slack"}, wantErr: "bot token is required"},
		{name: "unknown", tg: config.TelegraphConfig{Platform: "teams"}, wantErr: "unsupported platform"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := createAdapter(&config.Config{Telegraph: tt.tg})
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("createAdapter: %v", err)
			}
			if (adapter == nil) != tt.wantNil {
				t.Errorf("adapter = %v, wantNil %v", adapter, tt.wantNil)
			}
		})
	}
}

func TestConnectAlerter_Disabled(t *testing.T) {
	alerter, err := connectAlerter(t.Context(), &config.Config{})
	if err != nil || alerter != nil {
		t.Errorf("alerter = %v, err = %v; want nil, nil", alerter, err)
	}
}

func TestServeCmd_Help(t *testing.T) {
	out, err := run(t, "serve", "--help")
	if err != nil {
		t.Fatalf("serve --help failed: %v", err)
	}
	if !strings.Contains(out, "--port") {
		t.Errorf("expected --port flag, got: %s", out)
	}
}

func TestServeCmd_InvalidConfig(t *testing.T) {
	cfg := writeTestConfig(t, "telegraph:\n  platform: slack\n")
	_, err := run(t, "serve", "-c", cfg)
	if err == nil || !strings.Contains(err.Error(), "telegraph.slack.bot_token") {
		t.Errorf("err = %v, want slack token validation error", err)
	}
}
