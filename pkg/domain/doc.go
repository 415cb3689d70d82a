/*
Package domain contains the core domain types of the yerf timing engine.

It defines the vocabulary shared by the tracker, the reporting scheduler and
the adapters: sample lifecycle states, dependency states of waterfall
samples, report entries and batches, read-only sample snapshots and the
error values of the engine. The package is kept free of I/O and of any
dependency on the tree itself so adapters can import it without pulling the
engine.

# Key Types

  - State: lifecycle of a sample (created, started, stopped, reportable, reported).
  - DependencyState: per-dependency tracking of a waterfall sample.
  - Entry: one flattened delta or offset value handed to a reporting transport.
  - Batch: a group of entries sent in one acknowledgment unit.
  - SampleSnapshot: value copy of a sample for renderers.
*/
package domain
