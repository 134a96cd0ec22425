package main

import (
	"testing"
)

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("ECHONOTE_STORAGE_DATA_DIR", t.TempDir())
	t.Setenv("ECHONOTE_API_TOKEN", "")
}

// TestOnboardingStatusOnFreshInstall runs the status command against an
// empty data dir; it should report never-started without erroring.
func TestOnboardingStatusOnFreshInstall(t *testing.T) {
	setTestEnv(t)
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"onboarding", "status"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("onboarding status: %v", err)
	}
}

// TestOnboardingResetIdempotentOnFreshInstall: reset with no prior
// state succeeds.
func TestOnboardingResetIdempotentOnFreshInstall(t *testing.T) {
	setTestEnv(t)
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"onboarding", "reset"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("onboarding reset: %v", err)
	}
}

// TestCompleteThenStatus runs the complete command and verifies status
// succeeds afterwards.
func TestCompleteThenStatus(t *testing.T) {
	setTestEnv(t)
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"onboarding", "complete", "--summary-model", "gemma3:1b"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("onboarding complete: %v", err)
	}

	rootCmd.SetArgs([]string{"onboarding", "status"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("onboarding status: %v", err)
	}
}

func TestConfigSetRejectsUnknownKey(t *testing.T) {
	setTestEnv(t)
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"config", "set", "nope.bogus", "1"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("config set on unknown key succeeded, want error")
	}
}
