package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCmdPrintsVersion(t *testing.T) {
	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out.Len() == 0 {
		t.Error("version command produced no output")
	}
}

func TestGetCmdRequiresBetterhistServer(t *testing.T) {
	t.Setenv("BETTERHIST_SERVER", "")
	t.Setenv("BETTERHIST_AUTH", "")

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"get", "-1"})
	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error when BETTERHIST_SERVER is unset")
	}
	if !strings.Contains(err.Error(), "BETTERHIST_SERVER") {
		t.Errorf("error = %q, want it to mention BETTERHIST_SERVER", err.Error())
	}
}

func TestGetCmdRejectsNonIntegerIndex(t *testing.T) {
	t.Setenv("BETTERHIST_SERVER", "127.0.0.1:9") // the index is parsed before the environment is read
	t.Setenv("BETTERHIST_AUTH", "tok")

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"get", "notanumber"})
	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for non-integer index")
	}
}
