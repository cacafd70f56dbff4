// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package respond

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jeranaias/rigrun-chat/internal/util"
)

// =============================================================================
// CANNED SOURCE
// =============================================================================

// Default simulated latency bounds.
const (
	DefaultMinLatency = 1 * time.Second
	DefaultMaxLatency = 3 * time.Second
)

// topicRunes is how much of the prompt a reply quotes back.
const topicRunes = 20

// Canned replies with one of a fixed set of markdown documents after a
// uniformly random delay in [MinLatency, MaxLatency).
type Canned struct {
	MinLatency time.Duration
	MaxLatency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCanned returns a canned source with the default 1-3s latency.
func NewCanned() *Canned {
	return &Canned{
		MinLatency: DefaultMinLatency,
		MaxLatency: DefaultMaxLatency,
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// NewCannedSeeded returns a canned source with deterministic choices and
// the given latency bounds.
func NewCannedSeeded(seed uint64, minLatency, maxLatency time.Duration) *Canned {
	return &Canned{
		MinLatency: minLatency,
		MaxLatency: maxLatency,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// GenerateReply waits out the simulated latency and returns a reply. It
// returns ctx.Err() if the context ends first.
func (c *Canned) GenerateReply(ctx context.Context, prompt string) (string, error) {
	delay, pick := c.roll()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return "", err
	}

	topic := util.PrefixRunes(util.SingleLine(prompt), topicRunes)
	return fmt.Sprintf(replyTemplates[pick], topic), nil
}

// roll draws the delay and template for one reply.
func (c *Canned) roll() (time.Duration, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	delay := c.MinLatency
	if span := c.MaxLatency - c.MinLatency; span > 0 {
		delay += time.Duration(c.rng.Int64N(int64(span)))
	}
	return delay, c.rng.IntN(len(replyTemplates))
}

// =============================================================================
// REPLY TEMPLATES
// =============================================================================

// replyTemplates each take the quoted topic as their only argument.
var replyTemplates = []string{
	`You asked about "%s". Here is an overview:

## Key Concepts

- **Fundamentals**: what the pieces are and how they fit
- **Practice**: where this shows up in real work
- **Pitfalls**: the mistakes people make most often

### Code Example
` + "```go" + `
func example() string {
	fmt.Println("a short snippet")
	return "formatted nicely"
}
` + "```" + `

> Start small and build up once the basics hold.`,

	`Good question about **%s**. Here is how the options compare:

| Option | Strength | Trade-off |
|--------|----------|-----------|
| Analysis | Deep understanding | Takes longer |
| Examples | Quick to apply | Less general |
| Step-by-step | Easy to follow | More verbose |

### Next Steps
1. Review the fundamentals
2. Work through an example
3. Apply it to your own case

Want me to go deeper on any row?`,

	`Here is a plan for "%s":

### Immediate Actions
- Start with the basics
- Build incrementally
- Test and iterate

### Sketch
` + "```python" + `
def plan():
    steps = ["analyze", "design", "build", "review"]
    return [s.upper() for s in steps]
` + "```" + `

> **Tip**: finish one step before starting the next.`,

	`Happy to help with "%s".

## Overview
There are a few moving parts worth separating.

#### Query
` + "```sql" + `
SELECT category, COUNT(*) AS total
FROM examples
WHERE status = 'active'
GROUP BY category
ORDER BY total DESC;
` + "```" + `

#### Timeline

| Step | Action | When |
|------|--------|------|
| 1 | Research and planning | Week 1 |
| 2 | First implementation | Weeks 2-3 |
| 3 | Testing | Week 4 |
| 4 | Documentation \| handoff | Week 5 |

### Common Pitfalls
- Rushing the planning phase
- Ignoring edge cases
- Skipping tests`,
}
