package ratpoison

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindows(t *testing.T) {
	out := "0 4194307 * xterm\n1 6291459 - vim main.go\t[+]\n2 8388611 + \n"
	windows, err := ParseWindows([]byte(out))
	require.NoError(t, err)
	require.Len(t, windows, 3)

	assert.Equal(t, Window{Number: 0, XID: 4194307, Flag: '*', Title: "xterm", Group: -1}, windows[0])
	assert.True(t, windows[0].Current())
	assert.Equal(t, "vim main.go\t[+]", windows[1].Title)
	assert.Equal(t, "", windows[2].Title)
	assert.False(t, windows[2].Current())
}

func TestParseWindowsEmpty(t *testing.T) {
	windows, err := ParseWindows([]byte("No managed windows\n"))
	require.NoError(t, err)
	assert.Empty(t, windows)

	windows, err = ParseWindows(nil)
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestParseWindowsMalformed(t *testing.T) {
	for _, line := range []string{
		"x 123 * title",
		"1 abc * title",
		"1 123",
		"1 123 ",
		" 1 123 * title",
	} {
		t.Run(line, func(t *testing.T) {
			_, err := ParseWindows([]byte("0 1 * ok\n" + line + "\n"))
			require.Error(t, err)
			assert.True(t, IsProtocolError(err))

			var perr *ProtocolError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, line, perr.Line)
		})
	}
}

func TestParseGroups(t *testing.T) {
	groups, err := ParseGroups([]byte("0-default\n1*work\n12+mail client\n"))
	require.NoError(t, err)
	assert.Equal(t, []Group{
		{Number: 0, Name: "default"},
		{Number: 1, Name: "work", Current: true},
		{Number: 12, Name: "mail client"},
	}, groups)

	_, err = ParseGroups([]byte("default\n"))
	assert.ErrorIs(t, err, ErrProtocol)
}

type recorder struct {
	calls [][]string
	reply map[string]string
}

func (r *recorder) Execute(path string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{path}, args...))
	if out, ok := r.reply[strings.Join(args, " ")]; ok {
		return []byte(out), nil
	}
	return nil, errors.New("exit status 1")
}

func TestClientCommands(t *testing.T) {
	r := &recorder{reply: map[string]string{
		"-c gselect 2 -c windows %n %i %s %t": "3 77 * top\n",
		"-c gselect 2 -c select 3":            "",
		"-c unmanage":                         "",
		"-c unmanage alttab":                  "",
	}}
	c := NewClient(r, "/bin/ratpoison")

	windows, err := c.WindowsInGroup(2)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, 2, windows[0].Group)

	require.NoError(t, c.Select(2, 3))
	assert.Equal(t, []string{"/bin/ratpoison", "-c", "gselect 2", "-c", "select 3"}, r.calls[1])

	added, err := c.Unmanage("alttab")
	require.NoError(t, err)
	assert.True(t, added)

	_, err = c.Groups()
	assert.Error(t, err)
	assert.False(t, IsProtocolError(err))
}
