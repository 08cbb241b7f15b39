package topic

import "testing"

func TestBuilderBuild(t *testing.T) {
	tests := []struct {
		root string
		name string
		want string
	}{
		{"", DefaultTelemetry, "chomp_topic"},
		{"site-a", DefaultControl, "site-a/control_topic"},
		{"/site-a/box-7/", DefaultStatus, "site-a/box-7/actuator_topic"},
		{"site-a", "/rental_topic", "site-a/rental_topic"},
	}

	for _, tt := range tests {
		if got := NewBuilder(tt.root).Build(tt.name); got != tt.want {
			t.Errorf("NewBuilder(%q).Build(%q) = %q, want %q", tt.root, tt.name, got, tt.want)
		}
	}
}
