package types

import (
	"math"
	"testing"
	"time"
)

func TestParseProtocol(t *testing.T) {
	t.Parallel()

	valid := map[string]Protocol{
		"acp":    ProtocolACP,
		"A2A":    ProtocolA2A,
		" mcp ":  ProtocolMCP,
		"Custom": ProtocolCustom,
	}
	for in, want := range valid {
		got, err := ParseProtocol(in)
		if err != nil || got != want {
			t.Fatalf("ParseProtocol(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseProtocol("grpc"); err == nil {
		t.Fatalf("expected error for unknown protocol")
	}
	if Protocol("http").Valid() {
		t.Fatalf("expected http to be invalid")
	}
}

func TestHealthState_Rank(t *testing.T) {
	t.Parallel()

	if !(HealthHealthy.Rank() > HealthDegraded.Rank() &&
		HealthDegraded.Rank() > HealthDiscovered.Rank() &&
		HealthDiscovered.Rank() > HealthUnhealthy.Rank()) {
		t.Fatalf("health rank ordering broken")
	}
}

func TestAgent_CloneIsDeep(t *testing.T) {
	t.Parallel()

	orig := &Agent{
		AgentID:      "a2a-math",
		Name:         "Math Agent",
		Protocol:     ProtocolA2A,
		Endpoint:     "http://a2a-math-agent:8002",
		Status:       HealthHealthy,
		DiscoveredAt: time.Now(),
		Capabilities: []Capability{
			{Name: "add", Tags: []string{"arithmetic", "math"}},
		},
		Metadata: map[string]string{"version": "1.0"},
	}

	cp := orig.Clone()
	cp.Capabilities[0].Tags[0] = "mutated"
	cp.Metadata["version"] = "9.9"

	if orig.Capabilities[0].Tags[0] != "arithmetic" {
		t.Fatalf("clone shares tag slice with original")
	}
	if orig.Metadata["version"] != "1.0" {
		t.Fatalf("clone shares metadata map with original")
	}
	if (*Agent)(nil).Clone() != nil {
		t.Fatalf("nil clone should stay nil")
	}
}

func TestAgent_HasTag(t *testing.T) {
	t.Parallel()

	ag := &Agent{Capabilities: []Capability{
		{Name: "add", Tags: []string{"arithmetic", "math"}},
		{Name: "greet", Tags: []string{"greeting"}},
	}}
	if !ag.HasTag("math") || !ag.HasTag("greeting") {
		t.Fatalf("expected tags to be found")
	}
	if ag.HasTag("music") {
		t.Fatalf("unexpected tag match")
	}
	if got := len(ag.TagSet()); got != 3 {
		t.Fatalf("TagSet size = %d, want 3", got)
	}
}

func TestClampConfidence(t *testing.T) {
	t.Parallel()

	cases := map[float64]float64{
		-0.5:       0,
		0:          0,
		0.42:       0.42,
		1:          1,
		1.7:        1,
		math.NaN(): 0,
	}
	for in, want := range cases {
		if got := ClampConfidence(in); got != want {
			t.Fatalf("ClampConfidence(%v) = %v, want %v", in, got, want)
		}
	}
}
