// Package status exposes the gateway's Prometheus collectors.
package status

import "github.com/prometheus/client_golang/prometheus"

var (
	ipFramesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "m17_ip_frames_received_total",
		Help: "Total number of M17 IP frames received from the reflector.",
	})
	ipFramesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "m17_ip_frames_sent_total",
		Help: "Total number of M17 IP frames sent to the reflector.",
	})
	controlPackets = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "m17_control_packets_total",
		Help: "Control packets exchanged with the reflector, by type.",
	}, []string{"type"})
	crcFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "m17_crc_failures_total",
		Help: "Frames dropped because a checksum did not verify.",
	})
	decodeFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "m17_decode_failures_total",
		Help: "Frames dropped because FEC decoding failed.",
	})
	activeStreams = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "m17_streams_active",
		Help: "Streams currently in progress.",
	})
	monitorClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "m17_monitor_clients",
		Help: "Connected monitor WebSocket clients.",
	})
)

func init() {
	prometheus.MustRegister(ipFramesReceived, ipFramesSent, controlPackets, crcFailures, decodeFailures, activeStreams, monitorClients)
}

func RecordIPFrameReceived() {
	ipFramesReceived.Inc()
}

func RecordIPFrameSent() {
	ipFramesSent.Inc()
}

func RecordControlPacket(packetType string) {
	controlPackets.WithLabelValues(packetType).Inc()
}

func RecordCRCFailure() {
	crcFailures.Inc()
}

func RecordDecodeFailure() {
	decodeFailures.Inc()
}

func RecordStreamStarted() {
	activeStreams.Inc()
}

func RecordStreamEnded() {
	activeStreams.Dec()
}

func SetMonitorClients(n int) {
	monitorClients.Set(float64(n))
}
