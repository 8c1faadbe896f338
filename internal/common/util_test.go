package common

import (
	"testing"
)

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_ZerosFullCapacityWhenResliced(t *testing.T) {
	backing := []byte{9, 9, 9, 9}
	WipeByteArray(backing[:2][:cap(backing)])
	for i, v := range backing {
		if v != 0 {
			t.Fatalf("expected backing[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}
