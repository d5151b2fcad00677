package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for credential issuance.
type Metrics struct {
	Mints             *prometheus.CounterVec
	MintDurationMs    prometheus.Histogram
	TokenIDFallbacks  prometheus.Counter
	ChainReadFailures *prometheus.CounterVec
	Redemptions       *prometheus.CounterVec
	QuestCompletions  *prometheus.CounterVec
	WalletLinks       *prometheus.CounterVec
	Reconciled        prometheus.Counter
	GatewayReady      prometheus.Gauge
}

// New registers and returns collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Mints: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "soulbound_mints_total",
			Help: "Total number of mint attempts by result",
		}, []string{"result"}),
		MintDurationMs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "soulbound_mint_duration_ms",
			Help:    "Duration from signing to confirmed receipt in milliseconds",
			Buckets: []float64{500, 1000, 2500, 5000, 10000, 30000, 60000, 120000},
		}),
		TokenIDFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "soulbound_token_id_fallback_total",
			Help: "Confirmed mints whose receipt carried no Transfer log; token id recorded as 0",
		}),
		ChainReadFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "soulbound_chain_read_failures_total",
			Help: "Contract reads that returned the unavailable marker",
		}, []string{"method"}),
		Redemptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "soulbound_redemptions_total",
			Help: "Redemption attempts by outcome",
		}, []string{"outcome"}),
		QuestCompletions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "soulbound_quest_completions_total",
			Help: "Quest completion approvals by outcome",
		}, []string{"outcome"}),
		WalletLinks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "soulbound_wallet_links_total",
			Help: "External wallet link attempts by result",
		}, []string{"result"}),
		Reconciled: factory.NewCounter(prometheus.CounterOpts{
			Name: "soulbound_reconciled_credentials_total",
			Help: "Pending credentials resolved by the reconciler",
		}),
		GatewayReady: factory.NewGauge(prometheus.GaugeOpts{
			Name: "soulbound_gateway_ready",
			Help: "1 when the minting gateway initialized successfully",
		}),
	}
}

// Nop returns collectors registered on a throwaway registry.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) IncMint(result string) {
	if m != nil {
		m.Mints.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ObserveMintDuration(ms float64) {
	if m != nil {
		m.MintDurationMs.Observe(ms)
	}
}

func (m *Metrics) IncTokenIDFallback() {
	if m != nil {
		m.TokenIDFallbacks.Inc()
	}
}

func (m *Metrics) IncChainReadFailure(method string) {
	if m != nil {
		m.ChainReadFailures.WithLabelValues(method).Inc()
	}
}

func (m *Metrics) IncRedemption(outcome string) {
	if m != nil {
		m.Redemptions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncQuestCompletion(outcome string) {
	if m != nil {
		m.QuestCompletions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncWalletLink(result string) {
	if m != nil {
		m.WalletLinks.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncReconciled() {
	if m != nil {
		m.Reconciled.Inc()
	}
}

func (m *Metrics) SetGatewayReady(ready bool) {
	if m == nil {
		return
	}
	if ready {
		m.GatewayReady.Set(1)
		return
	}
	m.GatewayReady.Set(0)
}
