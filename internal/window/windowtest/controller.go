package windowtest

import (
	"fmt"
	"strings"
	"sync"
)

// Controller is a scripted ratpoison executor. Replies are keyed by the
// arguments joined with spaces, e.g. "-c groups".
type Controller struct {
	mu      sync.Mutex
	Replies map[string]string
	Fail    map[string]error
	Calls   []string
}

// NewController creates an executor with no scripted replies.
func NewController() *Controller {
	return &Controller{Replies: make(map[string]string), Fail: make(map[string]error)}
}

// Execute returns the scripted reply for args.
func (c *Controller) Execute(path string, args ...string) ([]byte, error) {
	key := strings.Join(args, " ")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, key)
	if err, ok := c.Fail[key]; ok {
		return nil, err
	}
	if out, ok := c.Replies[key]; ok {
		return []byte(out), nil
	}
	return nil, fmt.Errorf("%s %s: exit status 1", path, key)
}
