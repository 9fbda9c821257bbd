// Copyright 2026 CortexBuild Ltd.
// SPDX-License-Identifier: AGPL-3.0

package httpclient

import "sync/atomic"

// Stats is a snapshot of one client's counters.
type Stats struct {
	Attempts  int64
	Successes int64
	Failures  int64
	Retries   int64
}

type statsCounters struct {
	attempts  atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64
	retries   atomic.Int64
}

func (s *statsCounters) attempted() { s.attempts.Add(1) }
func (s *statsCounters) succeeded() { s.successes.Add(1) }
func (s *statsCounters) failed()    { s.failures.Add(1) }
func (s *statsCounters) retried()   { s.retries.Add(1) }

func (c *Client) Stats() Stats {
	return Stats{
		Attempts:  c.stats.attempts.Load(),
		Successes: c.stats.successes.Load(),
		Failures:  c.stats.failures.Load(),
		Retries:   c.stats.retries.Load(),
	}
}

func (c *Client) ResetStats() {
	c.stats.attempts.Store(0)
	c.stats.successes.Store(0)
	c.stats.failures.Store(0)
	c.stats.retries.Store(0)
}
