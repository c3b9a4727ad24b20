package envutil

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_INT", "nope")
	if got := Int("ENVUTIL_TEST_INT", 7); got != 7 {
		t.Fatalf("want=7 got=%d", got)
	}
	t.Setenv("ENVUTIL_TEST_INT", " 12 ")
	if got := Int("ENVUTIL_TEST_INT", 7); got != 12 {
		t.Fatalf("want=12 got=%d", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_BOOL", "off")
	if Bool("ENVUTIL_TEST_BOOL", true) {
		t.Fatal("off should parse as false")
	}
	t.Setenv("ENVUTIL_TEST_BOOL", "maybe")
	if !Bool("ENVUTIL_TEST_BOOL", true) {
		t.Fatal("unknown values keep the default")
	}
}

func TestSeconds(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_SECS", "0")
	if got := Seconds("ENVUTIL_TEST_SECS", time.Minute); got != time.Minute {
		t.Fatalf("non-positive should fall back, got=%s", got)
	}
	t.Setenv("ENVUTIL_TEST_SECS", "5")
	if got := Seconds("ENVUTIL_TEST_SECS", time.Minute); got != 5*time.Second {
		t.Fatalf("want=5s got=%s", got)
	}
}
