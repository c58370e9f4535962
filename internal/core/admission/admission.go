// Package admission caps the number of job directories that may exist at once.
//
// The count and the later directory creation are not atomic. Two requests
// racing past the check can both be admitted, so the ceiling is a soft limit
// that may be overshot by the number of requests in flight at that instant.
package admission

import (
	"github.com/rs/zerolog/log"
)

const DefaultCeiling = 5

// Counter reports how many jobs are currently holding a directory.
type Counter interface {
	CountJobDirs() (int, error)
}

type Controller struct {
	counter Counter
	ceiling int
}

func NewController(counter Counter, ceiling int) *Controller {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	return &Controller{counter: counter, ceiling: ceiling}
}

// TryAdmit reports whether a new job may start. A failed listing rejects.
func (c *Controller) TryAdmit() bool {
	n, err := c.counter.CountJobDirs()
	if err != nil {
		log.Error().Err(err).Msg("admission: count active jobs")
		return false
	}
	return n < c.ceiling
}

// Active returns the current number of job directories, or -1 if the root
// cannot be listed.
func (c *Controller) Active() int {
	n, err := c.counter.CountJobDirs()
	if err != nil {
		return -1
	}
	return n
}

func (c *Controller) Ceiling() int { return c.ceiling }
