package report

import "go.uber.org/fx"

// Module provides the stdout reporter
var Module = fx.Module("report",
	fx.Provide(NewReporter),
)
