package provision

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTerminalPrompterAsk(t *testing.T) {
	out := new(bytes.Buffer)
	prompter := NewTerminalPrompter(strings.NewReader("Ava Admin\n"), out)

	answer, err := prompter.Ask("Name")
	require.NoError(t, err)
	require.Equal(t, "Ava Admin", answer)
	require.Contains(t, out.String(), "Name:")
}

func TestTerminalPrompterSelectByNumber(t *testing.T) {
	out := new(bytes.Buffer)
	prompter := NewTerminalPrompter(strings.NewReader("2\n"), out)

	choice, err := prompter.Select("Which panel?", []string{"admin", "ops"})
	require.NoError(t, err)
	require.Equal(t, "ops", choice)
	require.Contains(t, out.String(), "[1] admin")
	require.Contains(t, out.String(), "[2] ops")
}

func TestTerminalPrompterSelectByName(t *testing.T) {
	prompter := NewTerminalPrompter(strings.NewReader("admin\n"), new(bytes.Buffer))
	choice, err := prompter.Select("Which panel?", []string{"admin", "ops"})
	require.NoError(t, err)
	require.Equal(t, "admin", choice)
}

func TestTerminalPrompterSecretFallsBackWithoutTerminal(t *testing.T) {
	prompter := NewTerminalPrompter(strings.NewReader("hunter2\n"), new(bytes.Buffer))
	secret, err := prompter.AskSecret("Password")
	require.NoError(t, err)
	require.Equal(t, "hunter2", secret)
}

func TestTerminalPrompterSequentialReads(t *testing.T) {
	prompter := NewTerminalPrompter(strings.NewReader("Ava\nava@example.com\nhunter2\n"), new(bytes.Buffer))

	name, err := prompter.Ask("Name")
	require.NoError(t, err)
	email, err := prompter.Ask("Email address")
	require.NoError(t, err)
	secret, err := prompter.AskSecret("Password")
	require.NoError(t, err)

	require.Equal(t, "Ava", name)
	require.Equal(t, "ava@example.com", email)
	require.Equal(t, "hunter2", secret)
}

func TestTerminalPrompterEOF(t *testing.T) {
	prompter := NewTerminalPrompter(strings.NewReader(""), new(bytes.Buffer))
	_, err := prompter.Ask("Name")
	require.Error(t, err)
}
