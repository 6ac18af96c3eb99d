package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(jobsSubmittedTotal, jobsFinishedTotal, jobsResumedTotal, jobCostDollars)
}

var jobsSubmittedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "research_jobs_submitted_total",
		Help: "Total research jobs submitted to a backend, labeled by provider.",
	},
	[]string{"provider"},
)

var jobsFinishedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "research_jobs_finished_total",
		Help: "Total research jobs reaching a terminal state, labeled by status.",
	},
	[]string{"status"}, // 'completed', 'error'
)

var jobsResumedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "research_jobs_resumed_total",
		Help: "Total polling streams re-attached to persisted running jobs.",
	},
)

var jobCostDollars = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "research_job_cost_dollars_total",
		Help: "Accumulated dollar cost of completed research jobs.",
	},
)

func IncJobSubmitted(provider string) { jobsSubmittedTotal.WithLabelValues(provider).Inc() }
func IncJobFinished(status string)    { jobsFinishedTotal.WithLabelValues(status).Inc() }
func IncJobResumed()                  { jobsResumedTotal.Inc() }

func AddJobCost(dollars float64) {
	if dollars > 0 {
		jobCostDollars.Add(dollars)
	}
}
