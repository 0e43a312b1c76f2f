package utils

import "testing"

func TestGetEnvDefault(t *testing.T) {
	if got := GetEnv("BLUEPRINT_TEST_MISSING", "fallback", nil); got != "fallback" {
		t.Fatalf("want=fallback got=%s", got)
	}
	t.Setenv("BLUEPRINT_TEST_SET", "value")
	if got := GetEnv("BLUEPRINT_TEST_SET", "fallback", nil); got != "value" {
		t.Fatalf("want=value got=%s", got)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("BLUEPRINT_TEST_INT", " 42 ")
	if got := GetEnvAsInt("BLUEPRINT_TEST_INT", 7, nil); got != 42 {
		t.Fatalf("want=42 got=%d", got)
	}
	t.Setenv("BLUEPRINT_TEST_INT", "not-a-number")
	if got := GetEnvAsInt("BLUEPRINT_TEST_INT", 7, nil); got != 7 {
		t.Fatalf("want=7 got=%d", got)
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	if got := GetEnvAsFloat("BLUEPRINT_TEST_FLOAT", 0.35, nil); got != 0.35 {
		t.Fatalf("want=0.35 got=%v", got)
	}
	t.Setenv("BLUEPRINT_TEST_FLOAT", "0.6")
	if got := GetEnvAsFloat("BLUEPRINT_TEST_FLOAT", 0.35, nil); got != 0.6 {
		t.Fatalf("want=0.6 got=%v", got)
	}
	t.Setenv("BLUEPRINT_TEST_FLOAT", "bogus")
	if got := GetEnvAsFloat("BLUEPRINT_TEST_FLOAT", 0.35, nil); got != 0.35 {
		t.Fatalf("want=0.35 got=%v", got)
	}
}
