/*
Package ports defines the driven ports (interfaces) of the yerf engine.

These interfaces decouple the tracker and the reporting scheduler from
transports and host environments.

# Key Interfaces

  - Sink: delivers a batch of report entries and acknowledges it.
  - EntrySource: the query side of the reporting queue (implemented by *yerf.Tracker).
  - ResourceTimings: host-provided timing entries scanned by BackfillRequest.
*/
package ports
