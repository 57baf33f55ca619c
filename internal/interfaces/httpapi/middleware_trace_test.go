package httpapi

import "testing"

func TestShouldTraceRequest(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "/v1/progress", want: true},
		{path: "/v1/progress/tasks", want: true},
		{path: " /V1/progress ", want: true},
		{path: "/healthz", want: false},
		{path: "/metrics", want: false},
		{path: "/", want: false},
	}

	for _, tt := range tests {
		if got := shouldTraceRequest(tt.path); got != tt.want {
			t.Fatalf("shouldTraceRequest(%q)=%v want=%v", tt.path, got, tt.want)
		}
	}
}
