// Package services implements the application layer of the calcium tools.
// It sits between the transports (the CLI and the HTTP handlers) and the
// domain packages, so both run the exact same pipeline.
//
// # Analysis Pipeline
//
// AnalysisService.Run executes one analysis:
//
//	1. check the start frames; when any is not positive return ErrNotReady
//	   without opening the input
//	2. validate and parse the recording (dataprocessing)
//	3. demultiplex it and run the responder analysis (imaging)
//	4. build the summary and write the reports (exporter)
//	5. record run metrics and publish lifecycle events
//
// Every run carries a run ID in its context; log records and spans created
// during the run are tagged with it.
//
// # Events
//
// When constructed WithEvents, the service publishes analysis:started,
// analysis:waiting, analysis:completed and analysis:failed. Serve mode wires
// the WebSocket hub here.
package services
