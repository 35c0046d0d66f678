package cli

import (
	"testing"
)

// offline points the API client at a closed port so argument errors can be
// told apart from connection errors.
func offline(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SC_SERVER_URL", "http://127.0.0.1:1")
	t.Setenv("SC_API_KEY", "sc_test")
}

func TestAddRequiresScientificName(t *testing.T) {
	offline(t)
	_, err := executeCommand("add")
	if err == nil {
		t.Fatal("expected error when no name provided")
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	offline(t)
	tests := []struct {
		name string
		args []string
	}{
		{"unknown kingdom", []string{"add", "Panthera leo", "--kingdom", "Animals"}},
		{"negative population", []string{"add", "Panthera leo", "--population", "-5"}},
		{"blank name", []string{"add", "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(tt.args...)
			if err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestListAcceptsNoArgs(t *testing.T) {
	offline(t)
	_, err := executeCommand("list", "extra")
	if err == nil {
		t.Fatal("expected error for extra args")
	}
}

func TestListRejectsUnknownKingdom(t *testing.T) {
	offline(t)
	_, err := executeCommand("list", "--kingdom", "Minerals")
	if err == nil || err.Error() != `unknown kingdom "Minerals"` {
		t.Fatalf("err = %v, want unknown kingdom", err)
	}
}

func TestIDArguments(t *testing.T) {
	offline(t)
	tests := []struct {
		name string
		args []string
	}{
		{"show missing", []string{"show"}},
		{"show non-numeric", []string{"show", "abc"}},
		{"show zero", []string{"show", "0"}},
		{"edit missing", []string{"edit"}},
		{"edit non-numeric", []string{"edit", "abc", "--common-name", "Lion"}},
		{"remove missing", []string{"remove"}},
		{"remove negative", []string{"remove", "-1"}},
		{"comments missing", []string{"comments"}},
		{"comments non-numeric", []string{"comments", "x"}},
		{"uncomment missing", []string{"uncomment"}},
		{"uncomment non-numeric", []string{"uncomment", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestEditRequiresAField(t *testing.T) {
	offline(t)
	_, err := executeCommand("edit", "1")
	if err == nil {
		t.Fatal("expected error when no field flags are given")
	}
}

func TestEditRejectsUnknownKingdom(t *testing.T) {
	offline(t)
	_, err := executeCommand("edit", "1", "--kingdom", "Minerals")
	if err == nil {
		t.Fatal("expected error for unknown kingdom")
	}
}

func TestCommentRequiresIDAndText(t *testing.T) {
	offline(t)
	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{"comment"}},
		{"id only", []string{"comment", "1"}},
		{"blank text", []string{"comment", "1", "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestAskRequiresQuestion(t *testing.T) {
	offline(t)
	for _, args := range [][]string{{"ask"}, {"ask", "  "}} {
		if _, err := executeCommand(args...); err == nil {
			t.Fatalf("%v: expected error", args)
		}
	}
}

func TestProfileAddRequiresEmailAndName(t *testing.T) {
	offline(t)
	_, err := executeCommand("profile", "add", "ada@example.com")
	if err == nil {
		t.Fatal("expected error when no display name provided")
	}
}

func TestServeAcceptsNoArgs(t *testing.T) {
	_, err := executeCommand("serve", "extra")
	if err == nil {
		t.Fatal("expected error for extra args")
	}
}
