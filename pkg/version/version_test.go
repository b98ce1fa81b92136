package version

import "testing"

func TestString(t *testing.T) {
	if s := String(); s == "" {
		t.Fatal("String() returned empty string")
	}
}

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	if info.Version != Version {
		t.Errorf("expected version %q, got %q", Version, info.Version)
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("expected OS and Arch to be populated")
	}
}
