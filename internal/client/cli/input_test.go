package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	assert.Error(t, err)
}

func TestGetMultiline_DoubleEnter(t *testing.T) {
	var out bytes.Buffer
	got, err := GetMultiline(rdr("a\nb\n\n\n"), "Enter text", &out)
	require.NoError(t, err)
	assert.Equal(t, "a\nb", got)
}

func TestGetMultiline_EOFWithoutBlankLine(t *testing.T) {
	var out bytes.Buffer
	got, err := GetMultiline(rdr("only line"), "Enter text", &out)
	require.NoError(t, err)
	assert.Equal(t, "only line", got)
}

func TestGetAssignments(t *testing.T) {
	var out bytes.Buffer
	got, err := GetAssignments(rdr("title = New title\ndue=\n\nignored=1\n"), "Fields", &out)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"title": "New title", "due": ""}, got)

	_, err = GetAssignments(rdr("oops\n"), "Fields", &out)
	assert.Error(t, err)
}

func TestParseArgs(t *testing.T) {
	opts, words := parseArgs([]string{"Status=todo", "oldest", "q=a=b"})
	assert.Equal(t, map[string]string{"status": "todo", "q": "a=b"}, opts)
	assert.Equal(t, []string{"oldest"}, words)
}
