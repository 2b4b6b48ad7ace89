package app

import (
	"testing"
	"time"
)

func TestNewRun(t *testing.T) {
	started := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)
	r := NewRun("serve", started)

	if r.ID != "20240615T143045Z" {
		t.Errorf("ID = %q, want %q", r.ID, "20240615T143045Z")
	}
	if r.Command != "serve" {
		t.Errorf("Command = %q, want %q", r.Command, "serve")
	}
	if r.Status != "success" {
		t.Errorf("Status = %q, want %q", r.Status, "success")
	}

	r.Fail()
	if r.Status != "error" {
		t.Errorf("Status after Fail() = %q, want %q", r.Status, "error")
	}
}
