package entities

import (
	"errors"
	"net/http"
	"testing"
)

func TestHeaders_GetAnyCase(t *testing.T) {
	h := NewHeaders(map[string]string{
		"X-UnityCloudBuild-Event": "ProjectBuildSuccess",
		" x-unitycloudbuild-signature ": "abc",
	})

	tests := []struct {
		name   string
		lookup string
		want   string
		wantOK bool
	}{
		{"canonical event name", HeaderEvent, "ProjectBuildSuccess", true},
		{"lower-case event name", "x-unitycloudbuild-event", "ProjectBuildSuccess", true},
		{"upper-case event name", "X-UNITYCLOUDBUILD-EVENT", "ProjectBuildSuccess", true},
		{"trimmed signature name", HeaderSignature, "abc", true},
		{"absent header", "X-Other", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := h.Get(tt.lookup)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Get(%q) = %q, %v, want %q, %v", tt.lookup, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestHeadersFromHTTP(t *testing.T) {
	header := http.Header{}
	header.Set("X-Unitycloudbuild-Event", "ProjectBuildSuccess")
	header.Add("Accept", "application/json")
	header.Add("Accept", "text/plain")
	header["Empty"] = nil

	h := HeadersFromHTTP(header)

	if v, _ := h.Get(HeaderEvent); v != "ProjectBuildSuccess" {
		t.Errorf("event = %q", v)
	}
	if v, _ := h.Get("accept"); v != "application/json" {
		t.Errorf("accept = %q, want first value", v)
	}
	if _, ok := h.Get("empty"); ok {
		t.Error("headers without values should be dropped")
	}
}

func TestTargetMapping_AppID(t *testing.T) {
	m := TargetMapping{"ios-adhoc": "app-ios"}

	if id, ok := m.AppID("ios-adhoc"); !ok || id != "app-ios" {
		t.Errorf("AppID(ios-adhoc) = %q, %v", id, ok)
	}
	if _, ok := m.AppID("android-adhoc"); ok {
		t.Error("AppID(android-adhoc) should be untracked")
	}
	var empty TargetMapping
	if _, ok := empty.AppID("ios-adhoc"); ok {
		t.Error("nil mapping should track nothing")
	}
}

func TestNewHeaders_CollidingNamesAreDeterministic(t *testing.T) {
	raw := map[string]string{
		"x-unitycloudbuild-event": "ProjectBuildFailure",
		"X-UnityCloudBuild-Event": "ProjectBuildSuccess",
		"X-UNITYCLOUDBUILD-EVENT": "ProjectBuildQueued",
	}

	for i := 0; i < 100; i++ {
		got, _ := NewHeaders(raw).Get(HeaderEvent)
		if got != "ProjectBuildQueued" {
			t.Fatalf("iteration %d: event = %q, want the value of the first name in sorted order", i, got)
		}
	}
}

func TestErrUnsupportedPlatformIsPolicyRejection(t *testing.T) {
	if !errors.Is(ErrUnsupportedPlatform, ErrPolicyRejection) {
		t.Error("ErrUnsupportedPlatform should wrap ErrPolicyRejection")
	}
}
