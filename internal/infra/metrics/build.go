package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(buildInfo)
}

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "build_info",
		Help: "A constant metric labeled with version, commit and storage driver.",
	},
	[]string{"version", "commit", "storage", "go_version"},
)

func SetBuildInfo(version, commit, storage string) {
	buildInfo.WithLabelValues(version, commit, norm(storage), runtime.Version()).Set(1)
}
