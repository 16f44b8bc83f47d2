package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vindex/logx"
)

type TxRejectedReason string

var (
	TxInvalid             TxRejectedReason = "invalid"
	TxInvalidSignature    TxRejectedReason = "invalid_signature"
	TxSenderNotExist      TxRejectedReason = "sender_not_exist"
	TxInsufficientBalance TxRejectedReason = "insufficient_balance"
	TxDuplicated          TxRejectedReason = "duplicated"
	TxApplyFailed         TxRejectedReason = "apply_failed"
)

var (
	mempoolSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vindex_mempool_size",
		Help: "Number of pending transactions in the mempool",
	})

	chainHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vindex_chain_height",
		Help: "Index of the latest committed block",
	})

	circulatingSupply = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vindex_circulating_supply",
		Help: "Circulating token supply",
	})

	burnedSupply = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vindex_burned_supply",
		Help: "Cumulative burned tokens",
	})

	blocksMined = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vindex_blocks_mined_total",
		Help: "Total number of blocks mined",
	})

	blockTxCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vindex_block_tx_count",
		Help:    "Transactions per mined block",
		Buckets: prometheus.ExponentialBuckets(1, 2, 11),
	})

	txAdmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vindex_tx_admitted_total",
		Help: "Transactions admitted to the mempool",
	})

	txRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vindex_tx_rejected_total",
		Help: "Transactions rejected, by reason",
	}, []string{"reason"})

	txApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vindex_tx_applied_total",
		Help: "Transactions applied to state, by type",
	}, []string{"type"})
)

func SetMempoolSize(n int)           { mempoolSize.Set(float64(n)) }
func SetChainHeight(index uint64)    { chainHeight.Set(float64(index)) }
func SetCirculatingSupply(v float64) { circulatingSupply.Set(v) }
func SetBurnedSupply(v float64)      { burnedSupply.Set(v) }

func RecordBlockMined(txCount int) {
	blocksMined.Inc()
	blockTxCount.Observe(float64(txCount))
}

func RecordTxAdmitted() { txAdmitted.Inc() }

func RecordTxRejected(reason TxRejectedReason) {
	txRejected.WithLabelValues(string(reason)).Inc()
}

func RecordTxApplied(txType string) {
	txApplied.WithLabelValues(txType).Inc()
}

// Serve exposes the metrics endpoint. Blocks; run it in its own goroutine.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logx.Info("MONITORING", "Serving metrics on ", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logx.Error("MONITORING", "Metrics server stopped: ", err)
	}
}
