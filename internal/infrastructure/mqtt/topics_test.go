package mqtt

import "testing"

func TestStateTopic(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		device string
		want   string
	}{
		{name: "simple", base: "lora2mqtt", device: "garage", want: "lora2mqtt/garage/state"},
		{name: "mixed case device", base: "lora2mqtt", device: "Garage", want: "lora2mqtt/garage/state"},
		{name: "spaces become underscores", base: "lora2mqtt", device: "Front Gate", want: "lora2mqtt/front_gate/state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StateTopic(tt.base, tt.device); got != tt.want {
				t.Errorf("StateTopic(%q, %q) = %q, want %q", tt.base, tt.device, got, tt.want)
			}
		})
	}
}

func TestDiscoveryTopic(t *testing.T) {
	got := DiscoveryTopic("homeassistant", "cover", "Garage", "Door")
	want := "homeassistant/cover/garage/door/config"
	if got != want {
		t.Errorf("DiscoveryTopic() = %q, want %q", got, want)
	}
}

func TestStatusTopic(t *testing.T) {
	if got := StatusTopic("lora2mqtt"); got != "lora2mqtt/status" {
		t.Errorf("StatusTopic() = %q, want %q", got, "lora2mqtt/status")
	}
}

func TestNormalizeSegment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already clean", input: "garage", want: "garage"},
		{name: "uppercase", input: "GARAGE", want: "garage"},
		{name: "spaces", input: "Front Door Sensor", want: "front_door_sensor"},
		{name: "wildcard characters stripped", input: "a+b#c/d", want: "a_b_c_d"},
		{name: "surrounding whitespace", input: "  Garage ", want: "garage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeSegment(tt.input); got != tt.want {
				t.Errorf("NormalizeSegment(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
