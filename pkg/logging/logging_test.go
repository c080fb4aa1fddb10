package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"silly", LevelSilly},
		{"debug", LevelDebug},
		{"verbose", LevelVerbose},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"silent", LevelSilent},

		{"SILLY", LevelSilly},
		{"Verbose", LevelVerbose},
		{"dEbUg", LevelDebug},

		// Empty string defaults to Info
		{"", LevelInfo},

		// Unrecognized defaults to Info
		{"trace", LevelInfo},
		{"unknown", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLevelNamesRoundTrip(t *testing.T) {
	for _, name := range LevelNames {
		got := strings.ToLower(LevelName(ParseLevel(name)))
		if got != name {
			t.Errorf("LevelName(ParseLevel(%q)) = %q", name, got)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"Json", FormatJSON},
		{"text", FormatText},
		{"", FormatText},
		{"yaml", FormatText}, // unrecognized defaults to text
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseFormat(tt.input)
			if result != tt.expected {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNewDynamic(t *testing.T) {
	var buf bytes.Buffer
	logger, level := NewDynamic(Config{Level: LevelInfo, Output: &buf})

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug entry written at info level: %q", buf.String())
	}

	level.Set(LevelSilly)
	logger.Log(context.Background(), LevelSilly, "shown")
	if !strings.Contains(buf.String(), "level=SILLY") {
		t.Errorf("expected silly entry, got %q", buf.String())
	}

	buf.Reset()
	level.Set(LevelSilent)
	logger.Error("hidden")
	if buf.Len() != 0 {
		t.Errorf("error entry written when silent: %q", buf.String())
	}
}

func TestStoreKeepsLatestEntries(t *testing.T) {
	store := NewStore(2)
	logger := slog.New(store.Handler(LevelInfo)).With("component", "test")

	logger.Debug("ignored")
	logger.Info("first")
	logger.Warn("second", "n", 2)
	logger.Error("third")

	entries := store.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "second" || entries[0].Level != "WARN" {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
	if entries[0].Attrs["component"] != "test" {
		t.Errorf("expected logger attrs, got %v", entries[0].Attrs)
	}
	if entries[1].Message != "third" {
		t.Errorf("unexpected last entry %+v", entries[1])
	}
}

func TestMultiHandler(t *testing.T) {
	var buf bytes.Buffer
	store := NewStore(10)
	logger := slog.New(NewMultiHandler(
		NewHandler(Config{Output: &buf}, LevelWarn),
		store.Handler(LevelDebug),
	))

	logger.Debug("debug only in store")
	logger.Warn("everywhere")

	if strings.Contains(buf.String(), "debug only in store") {
		t.Error("text handler received a debug entry")
	}
	if !strings.Contains(buf.String(), "everywhere") {
		t.Error("text handler missed the warn entry")
	}
	if got := len(store.Entries()); got != 2 {
		t.Errorf("store entries = %d, want 2", got)
	}
}
