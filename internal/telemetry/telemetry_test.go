package telemetry

import (
	"context"
	"testing"
)

func TestSampleRate(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"", defaultSampleRate},
		{"1", 1},
		{" 0.25 ", 0.25},
		{"0", 0},
		{"1.5", defaultSampleRate},
		{"-0.1", defaultSampleRate},
		{"half", defaultSampleRate},
	}
	for _, tt := range tests {
		if got := sampleRate(tt.raw); got != tt.want {
			t.Errorf("sampleRate(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		in       string
		host     string
		insecure bool
	}{
		{"http://otel:4318", "otel:4318", true},
		{"https://collector.example.com/", "collector.example.com", false},
		{"localhost:4318", "localhost:4318", true},
	}
	for _, tt := range tests {
		host, insecure := splitEndpoint(tt.in)
		if host != tt.host || insecure != tt.insecure {
			t.Errorf("splitEndpoint(%q) = %q, %v", tt.in, host, insecure)
		}
	}
}

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	shutdown, err := Init(context.Background(), "nssplayer", "test")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected shutdown func")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
