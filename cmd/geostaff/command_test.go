package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geostaff-client/internal/handler"
)

func TestCommandRegistry_Execute(t *testing.T) {
	r := NewCommandRegistry(VersionInfo{Version: "test"})
	var got []string
	r.Register(&Command{Name: "status", Description: "Show status", Run: func(args []string) error {
		got = args
		return nil
	}})

	require.NoError(t, r.Execute([]string{"status", "--x", "1"}))
	assert.Equal(t, []string{"--x", "1"}, got)
	require.NoError(t, r.Execute([]string{"help"}))

	err := r.Execute([]string{"teleport"})
	var ue *usageError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "unknown command: teleport", ue.Error())

	require.ErrorAs(t, r.Execute(nil), &ue)
}

func TestCommandRegistry_HelpKeepsRegistrationOrder(t *testing.T) {
	r := NewCommandRegistry(VersionInfo{})
	for _, name := range []string{"login", "status", "leave"} {
		r.Register(&Command{Name: name, Description: name + " command"})
	}

	var buf bytes.Buffer
	r.PrintHelp(&buf)
	out := buf.String()
	login := bytes.Index(buf.Bytes(), []byte("login command"))
	status := bytes.Index(buf.Bytes(), []byte("status command"))
	leave := bytes.Index(buf.Bytes(), []byte("leave command"))
	assert.True(t, login < status && status < leave, out)
}

func TestErrorText(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "login needs exactly one phone number", errorText(ctx, usagef("login needs exactly one phone number")))
	assert.Equal(t, handler.Message(ctx, errors.New("boom")), errorText(ctx, errors.New("boom")))
}
