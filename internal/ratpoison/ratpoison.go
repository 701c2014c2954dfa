// Package ratpoison drives the ratpoison window manager through its command
// line controller and parses the tabular text it prints.
package ratpoison

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/bryanchriswhite/alttab/internal/logger"
)

// Binary is the controller executable name looked up on PATH.
const Binary = "ratpoison"

// WindowFormat is the `windows` format string understood by ParseWindows:
// window number, X window id, status flag, title.
const WindowFormat = "%n %i %s %t"

// DefaultTimeout bounds a single controller invocation.
const DefaultTimeout = 2 * time.Second

// Executor runs the controller and returns its standard output.
type Executor interface {
	Execute(path string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Timeout time.Duration
}

// Execute runs path with args and returns stdout.
func (r ExecRunner) Execute(path string, args ...string) ([]byte, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s %s: %w: %s", path, strings.Join(args, " "), err, msg)
		}
		return out, fmt.Errorf("%s %s: %w", path, strings.Join(args, " "), err)
	}
	return out, nil
}

// Locate finds the controller on PATH.
func Locate() (string, error) {
	path, err := exec.LookPath(Binary)
	if err != nil {
		return "", fmt.Errorf("can't find %s executable: %w", Binary, err)
	}
	return path, nil
}

// Client issues controller commands.
type Client struct {
	exec Executor
	path string
}

// NewClient creates a client that runs the controller at path.
func NewClient(exec Executor, path string) *Client {
	return &Client{exec: exec, path: path}
}

// Path returns the controller path.
func (c *Client) Path() string {
	return c.path
}

// run passes every command with its own -c flag, so several commands share
// one process.
func (c *Client) run(commands ...string) ([]byte, error) {
	args := make([]string, 0, 2*len(commands))
	for _, cmd := range commands {
		args = append(args, "-c", cmd)
	}
	log := logger.WithComponent("ratpoison")
	out, err := c.exec.Execute(c.path, args...)
	if err != nil {
		log.Debug().Err(err).Strs("commands", commands).Msg("run: controller failed")
		return nil, err
	}
	log.Trace().Strs("commands", commands).Str("output", string(out)).Msg("run: controller output")
	return out, nil
}

// Windows lists the windows of the current group.
func (c *Client) Windows() ([]Window, error) {
	out, err := c.run("windows " + WindowFormat)
	if err != nil {
		return nil, err
	}
	return ParseWindows(out)
}

// WindowsInGroup selects group and lists its windows in one invocation.
func (c *Client) WindowsInGroup(group int) ([]Window, error) {
	out, err := c.run(fmt.Sprintf("gselect %d", group), "windows "+WindowFormat)
	if err != nil {
		return nil, err
	}
	windows, err := ParseWindows(out)
	if err != nil {
		return nil, err
	}
	for i := range windows {
		windows[i].Group = group
	}
	return windows, nil
}

// Groups lists all groups.
func (c *Client) Groups() ([]Group, error) {
	out, err := c.run("groups")
	if err != nil {
		return nil, err
	}
	return ParseGroups(out)
}

// SelectGroup makes group current.
func (c *Client) SelectGroup(group int) error {
	_, err := c.run(fmt.Sprintf("gselect %d", group))
	return err
}

// Select focuses window number in group. A negative group leaves the group
// alone.
func (c *Client) Select(group, number int) error {
	sel := fmt.Sprintf("select %d", number)
	if group < 0 {
		_, err := c.run(sel)
		return err
	}
	_, err := c.run(fmt.Sprintf("gselect %d", group), sel)
	return err
}

// Unmanaged returns ratpoison's list of window names it leaves alone.
func (c *Client) Unmanaged() ([]string, error) {
	out, err := c.run("unmanage")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// Unmanage adds name to the unmanaged list unless it is already there.
// It reports whether a registration was sent.
func (c *Client) Unmanage(name string) (bool, error) {
	names, err := c.Unmanaged()
	if err != nil {
		return false, fmt.Errorf("can't get unmanaged window list: %w", err)
	}
	for _, n := range names {
		if n == name {
			return false, nil
		}
	}
	if _, err := c.run("unmanage " + name); err != nil {
		return false, fmt.Errorf("can't register in unmanaged window list: %w", err)
	}
	return true, nil
}

// IsProtocolError reports whether err came from unparseable output.
func IsProtocolError(err error) bool {
	return errors.Is(err, ErrProtocol)
}
