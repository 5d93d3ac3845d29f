/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package broker

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the counters a Server exposes to an external scrape
// target. Nil-safe: a zero-value Metrics records nothing, so a Server
// built without WithMetrics still runs.
type Metrics struct {
	bytesRelayed      prometheus.Counter
	clientsConnected  prometheus.Gauge
	clientsRejected   prometheus.Counter
}

// NewMetrics builds a fresh Metrics bundle with the given namespace,
// without registering it anywhere.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		bytesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broker_bytes_relayed_total",
			Help:      "Total bytes fanned out to peer clients by the broker/chat relay.",
		}),
		clientsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "broker_clients_connected",
			Help:      "Current number of admitted broker/chat clients.",
		}),
		clientsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broker_clients_rejected_total",
			Help:      "Total connections rejected because max_clients was reached.",
		}),
	}
}

// Register adds every collector in m to reg. Safe to call once per
// Metrics instance; a second call returns reg's AlreadyRegisteredError.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.bytesRelayed, m.clientsConnected, m.clientsRejected} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) addBytes(n int) {
	if m == nil {
		return
	}
	m.bytesRelayed.Add(float64(n))
}

func (m *Metrics) clientAdmitted() {
	if m == nil {
		return
	}
	m.clientsConnected.Inc()
}

func (m *Metrics) clientDisconnected() {
	if m == nil {
		return
	}
	m.clientsConnected.Dec()
}

func (m *Metrics) clientRejected() {
	if m == nil {
		return
	}
	m.clientsRejected.Inc()
}
