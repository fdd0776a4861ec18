package cli

import (
	"errors"
	"testing"
)

func TestConfigError(t *testing.T) {
	err := &ConfigError{
		Field:   "modules.library",
		Message: "file does not exist",
	}

	want := "config error in modules.library: file does not exist"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestConfigErrorNoField(t *testing.T) {
	err := NewConfigError("", "failed to load config")

	want := "config error: failed to load config"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCommandError(t *testing.T) {
	underlying := errors.New("schema build failed")
	err := NewCommandError("lint", underlying)

	want := "command lint failed: schema build failed"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is does not reach the wrapped error")
	}
}

func TestCommandErrorAs(t *testing.T) {
	var err error = NewCommandError("validate", errors.New("boom"))

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatal("errors.As failed to match *CommandError")
	}
	if cmdErr.Command != "validate" {
		t.Errorf("Command = %q, want %q", cmdErr.Command, "validate")
	}
}
