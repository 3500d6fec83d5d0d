package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "server: irc.example.net\nnick: bot\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := &Config{
		Server:    "irc.example.net",
		Port:      6667,
		Nick:      "bot",
		Username:  "bot",
		IRCName:   "bot",
		DataDir:   "./data",
		LogLevel:  "info",
		SendRate:  2,
		SendBurst: 5,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg.Addr() != "irc.example.net:6667" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
server: irc.example.net
tls: true
tls_insecure: true
server_pass: letmein
proxy: socks5://127.0.0.1:9050
nick: bot
alternate: bot_
nick_pass: hunter2
username: ident
irc_name: A Bot
mode: "8"
channels:
  - "#one"
  - "#two"
data_dir: /var/lib/ircutils
log_level: debug
send_rate: 0.5
send_burst: 1
encoding: windows-1252
filter_formatting: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 6697 {
		t.Errorf("TLS default port = %d, want 6697", cfg.Port)
	}
	if diff := cmp.Diff([]string{"#one", "#two"}, cfg.Channels); diff != "" {
		t.Errorf("channels mismatch (-want +got):\n%s", diff)
	}
	if cfg.SendRate != 0.5 || cfg.SendBurst != 1 || cfg.Mode != "8" || !cfg.FilterFormatting {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Proxy != "socks5://127.0.0.1:9050" || cfg.Encoding != "windows-1252" || cfg.Alternate != "bot_" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load should fail for a missing file")
	}
	if _, err := Load(writeConfig(t, "server: [unclosed")); err == nil {
		t.Error("Load should fail for invalid YAML")
	}
	if _, err := Load(writeConfig(t, "nick: bot\n")); err == nil {
		t.Error("Load should fail without a server")
	}
	if _, err := Load(writeConfig(t, "server: irc.example.net\n")); err == nil {
		t.Error("Load should fail without a nick")
	}
}
