package obs

import "github.com/prometheus/client_golang/prometheus"

// buildInfo is a constant 1 gauge labelled with version and commit.
var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "build_info",
		Help: "StayVista API build information.",
	},
	[]string{"version", "commit"},
)

// InitBuildInfo registers metrics if needed and publishes build_info{version,commit} 1.
func InitBuildInfo(version, commit string) {
	Init()
	buildInfo.WithLabelValues(version, commit).Set(1)
}
