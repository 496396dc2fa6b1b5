package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/possync/internal/pos"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data, "ignored in json mode")
	require.NoError(t, err)

	var resp Envelope
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("VALIDATION", "table 3 has no orders", nil)
	require.NoError(t, err)

	var resp Envelope
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION", resp.Error.Code)
	assert.Equal(t, "table 3 has no orders", resp.Error.Message)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]string{"path": "possync.yaml"}
	err := formatter.Error("INVALID_CONFIG", "log_level: conflicting values", details)
	require.NoError(t, err)

	var resp Envelope
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success(map[string]bool{"changed": false}, "No remote changes.")
	require.NoError(t, err)
	assert.Equal(t, "No remote changes.\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("NOT_FOUND", "table 9 not found", nil)
	require.NoError(t, err)
	assert.Equal(t, "Error [NOT_FOUND]: table 9 not found\n", buf.String())
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"sheet": "Orders"}
	err := formatter.Error("REMOTE_UNAVAILABLE", "spreadsheet unreachable", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [REMOTE_UNAVAILABLE]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("Processing %s", "orders.yaml")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "Processing orders.yaml")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestOutputFormatter_VerboseLogKeepsJSONClean(t *testing.T) {
	out, diag := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag, Verbose: true}

	formatter.VerboseLog("Validating %s", "menu.yaml")
	require.NoError(t, formatter.Success(map[string]int{"tables": 10}, ""))

	assert.Equal(t, "Validating menu.yaml\n", diag.String())
	var resp Envelope
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	cause := pos.Errorf(pos.ErrCodeValidation, "service.payment", "table 3 has no orders")
	err := formatter.Fail("payment", cause)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, cause)

	var resp Envelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "VALIDATION", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "payment: ")
}

func TestOutputFormatter_FailUncoded(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Fail("write summary", errors.New("disk full"))

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "Error [ERROR]: write summary: disk full\n", buf.String())
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain error", errors.New("boom"), ExitFailure},
		{"command error", NewExitError(ExitCommandError, "bad config"), ExitCommandError},
		{"wrapped", fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "open", errors.New("locked"))), ExitCommandError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitError_Message(t *testing.T) {
	assert.Equal(t, "bad config", NewExitError(ExitCommandError, "bad config").Error())
	assert.Equal(t, "open: locked", WrapExitError(ExitCommandError, "open", errors.New("locked")).Error())
}
