package singleinstance

import (
	"errors"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	name := "copytrans-test-" + t.Name()

	lock, err := Acquire(name)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()

	if _, err := Acquire(name); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Acquire err = %v, want ErrAlreadyRunning", err)
	}

	lock.Release()

	again, err := Acquire(name)
	if err != nil {
		t.Fatalf("Acquire after Release: %v", err)
	}
	again.Release()
}

func TestReleaseNilIsSafe(t *testing.T) {
	var lock *Lock
	lock.Release()
}

func TestDoubleReleaseIsSafe(t *testing.T) {
	lock, err := Acquire("copytrans-test-double")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	lock.Release()
	lock.Release()
}
